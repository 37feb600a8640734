package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admission-gateway/middleware/admission"
	"admission-gateway/middleware/admission/domain"
	"admission-gateway/middleware/admission/infra"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	// .env é opcional; variáveis já exportadas têm precedência
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		slog.Error("gateway stopped", slog.Any("err", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:   "gateway",
		Usage:  "admission gate in front of an HTTP upstream",
		Flags:  flags(),
		Action: run,
	}
}

func run(c *cli.Context) error {
	cfg, err := configFromCLI(c)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logger := newLogger(os.Stderr, cfg.logLevel, cfg.logFormat)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gate, err := infra.NewGate(cfg.gateConfig(),
		infra.WithLogger(logger),
		infra.WithMetrics(infra.NewMetrics(reg)),
	)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	gate.StopOnDone(ctx)

	upstream, err := upstreamHandler(cfg.upstreamURL, logger)
	if err != nil {
		return err
	}

	var statsStore domain.StatsStore
	if cfg.rateStatsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.rateStatsRedisAddr,
			Password: cfg.rateStatsRedisPassword,
			DB:       cfg.rateStatsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis stats ping error: %w", err)
		}

		statsStore = infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.rateStatsPrefix),
			infra.WithStatsTTL(cfg.rateStatsTTL),
			infra.WithStatsBucket(cfg.rateStatsBucket),
			infra.WithStatsTrackClients(cfg.rateStatsTrackClients),
		)
	}

	h := upstream
	h = admission.InflightMiddleware(admission.InflightOptions{
		Max:            cfg.concurrencyMax,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.concurrencyTimeout,
	})(h)
	h = admission.Middleware(admission.Options{
		Gate:               gate,
		Stats:              statsStore,
		KeyHeader:          cfg.keyHeader,
		TrustXForwardedFor: cfg.trustXFF,
		RejectStatus:       cfg.rejectStatus,
		RetryAfter:         cfg.retryAfter,
		Logger:             logger,
	})(h)

	servers := []*http.Server{newServer(cfg.listenAddr, h)}
	if cfg.metricsAddr != "" {
		servers = append(servers, newServer(cfg.metricsAddr, adminRouter(reg)))
	}

	logger.Info("gateway listening",
		slog.String("addr", cfg.listenAddr),
		slog.String("upstream", cfg.upstreamURL),
		slog.Uint64("threshold", cfg.threshold),
		slog.Duration("ban", cfg.banDuration),
		slog.String("keyHeader", cfg.keyHeader),
		slog.Bool("trustXFF", cfg.trustXFF),
	)
	logger.Info("rate-stats", slog.Bool("enabled", cfg.rateStatsEnabled), slog.String("redisAddr", cfg.rateStatsRedisAddr),
		slog.String("bucket", cfg.rateStatsBucket), slog.Duration("ttl", cfg.rateStatsTTL))
	logger.Info("concurrency", slog.Int("max", cfg.concurrencyMax), slog.Duration("acquireTimeout", cfg.concurrencyTimeout))
	if cfg.metricsAddr != "" {
		logger.Info("admin listening", slog.String("addr", cfg.metricsAddr))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("graceful shutdown failed", slog.String("addr", srv.Addr), slog.Any("err", err))
			}
		}
		return nil
	})
	return g.Wait()
}

func newServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
}

// upstreamHandler devolve o reverse proxy ou, sem upstream, um 200 de corpo vazio.
func upstreamHandler(rawURL string, logger *slog.Logger) (http.Handler, error) {
	if rawURL == "" {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}), nil
	}

	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid UPSTREAM_URL: %q needs scheme and host", rawURL)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("proxy error", slog.Any("err", err))
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}
	return proxy, nil
}

func adminRouter(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}

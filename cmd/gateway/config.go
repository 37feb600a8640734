package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"admission-gateway/middleware/admission/infra"

	"github.com/urfave/cli/v2"
)

type config struct {
	listenAddr   string
	upstreamURL  string
	metricsAddr  string
	threshold    uint64
	banDuration  time.Duration
	keyHeader    string
	trustXFF     bool
	retryAfter   time.Duration
	rejectStatus int

	concurrencyMax     int
	concurrencyTimeout time.Duration

	logLevel  string
	logFormat string

	rateStatsEnabled       bool
	rateStatsRedisAddr     string
	rateStatsRedisPassword string
	rateStatsRedisDB       int
	rateStatsPrefix        string
	rateStatsTTL           time.Duration
	rateStatsBucket        string
	rateStatsTrackClients  bool
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "listen-addr", EnvVars: []string{"LISTEN_ADDR"}, Value: "127.0.0.1:25565"},
		&cli.StringFlag{Name: "upstream-url", EnvVars: []string{"UPSTREAM_URL"}, Usage: "reverse proxy target; empty answers 200 with no body"},
		&cli.StringFlag{Name: "metrics-addr", EnvVars: []string{"METRICS_ADDR"}, Usage: "admin listener for /metrics and /healthz; empty disables it"},
		&cli.Uint64Flag{Name: "threshold", EnvVars: []string{"THRESHOLD"}, Value: 10, Usage: "requests accepted per client before the ban"},
		&cli.DurationFlag{Name: "ban-duration", EnvVars: []string{"BAN_DURATION"}, Value: 60 * time.Second},
		&cli.StringFlag{Name: "key-header", EnvVars: []string{"KEY_HEADER"}},
		&cli.BoolFlag{Name: "trust-xff", EnvVars: []string{"TRUST_XFF"}},
		&cli.DurationFlag{Name: "retry-after", EnvVars: []string{"RETRY_AFTER"}, Usage: "static Retry-After on rejections; 0 omits the header"},
		&cli.IntFlag{Name: "reject-status", EnvVars: []string{"REJECT_STATUS"}, Value: http.StatusTooManyRequests},
		&cli.IntFlag{Name: "concurrency-max", EnvVars: []string{"CONCURRENCY_MAX"}, Value: 100},
		&cli.DurationFlag{Name: "concurrency-timeout", EnvVars: []string{"CONCURRENCY_TIMEOUT"}},
		&cli.StringFlag{Name: "log-level", EnvVars: []string{"LOG_LEVEL"}, Value: "info"},
		&cli.StringFlag{Name: "log-format", EnvVars: []string{"LOG_FORMAT"}, Value: "text"},
		&cli.BoolFlag{Name: "rate-stats-enabled", EnvVars: []string{"RATE_STATS_ENABLED"}},
		&cli.StringFlag{Name: "rate-stats-redis-addr", EnvVars: []string{"RATE_STATS_REDIS_ADDR"}},
		&cli.StringFlag{Name: "rate-stats-redis-password", EnvVars: []string{"RATE_STATS_REDIS_PASSWORD"}},
		&cli.IntFlag{Name: "rate-stats-redis-db", EnvVars: []string{"RATE_STATS_REDIS_DB"}},
		&cli.StringFlag{Name: "rate-stats-prefix", EnvVars: []string{"RATE_STATS_PREFIX"}, Value: "admission:stats"},
		&cli.DurationFlag{Name: "rate-stats-ttl", EnvVars: []string{"RATE_STATS_TTL"}, Value: 24 * time.Hour},
		&cli.StringFlag{Name: "rate-stats-bucket", EnvVars: []string{"RATE_STATS_BUCKET"}, Value: "minute"},
		&cli.BoolFlag{Name: "rate-stats-track-clients", EnvVars: []string{"RATE_STATS_TRACK_CLIENTS"}},
	}
}

func configFromCLI(c *cli.Context) (config, error) {
	cfg := config{
		listenAddr:   c.String("listen-addr"),
		upstreamURL:  strings.TrimSpace(c.String("upstream-url")),
		metricsAddr:  c.String("metrics-addr"),
		threshold:    c.Uint64("threshold"),
		banDuration:  c.Duration("ban-duration"),
		keyHeader:    c.String("key-header"),
		trustXFF:     c.Bool("trust-xff"),
		retryAfter:   c.Duration("retry-after"),
		rejectStatus: c.Int("reject-status"),

		concurrencyMax:     c.Int("concurrency-max"),
		concurrencyTimeout: c.Duration("concurrency-timeout"),

		logLevel:  c.String("log-level"),
		logFormat: c.String("log-format"),

		rateStatsEnabled:       c.Bool("rate-stats-enabled"),
		rateStatsRedisAddr:     c.String("rate-stats-redis-addr"),
		rateStatsRedisPassword: c.String("rate-stats-redis-password"),
		rateStatsRedisDB:       c.Int("rate-stats-redis-db"),
		rateStatsPrefix:        c.String("rate-stats-prefix"),
		rateStatsTTL:           c.Duration("rate-stats-ttl"),
		rateStatsBucket:        c.String("rate-stats-bucket"),
		rateStatsTrackClients:  c.Bool("rate-stats-track-clients"),
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (cfg config) gateConfig() infra.GateConfig {
	return infra.GateConfig{Threshold: cfg.threshold, BanDuration: cfg.banDuration}
}

func (cfg config) validate() error {
	if err := cfg.gateConfig().Validate(); err != nil {
		switch {
		case errors.Is(err, infra.ErrInvalidThreshold):
			return fmt.Errorf("THRESHOLD: %w", err)
		default:
			return fmt.Errorf("BAN_DURATION: %w", err)
		}
	}
	if cfg.rejectStatus < 400 || cfg.rejectStatus > 599 {
		return fmt.Errorf("REJECT_STATUS must be a 4xx or 5xx code, got %d", cfg.rejectStatus)
	}
	if cfg.concurrencyMax < 0 {
		return errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if cfg.rateStatsEnabled && strings.TrimSpace(cfg.rateStatsRedisAddr) == "" {
		return errors.New("RATE_STATS_REDIS_ADDR is required when RATE_STATS_ENABLED=true")
	}
	if _, err := parseLevel(cfg.logLevel); err != nil {
		return err
	}
	switch strings.ToLower(cfg.logFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.logFormat)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	lvl, err := parseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

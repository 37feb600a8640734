package admission

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"admission-gateway/middleware/admission/application"
	"admission-gateway/middleware/admission/domain"

	"golang.org/x/time/rate"
)

type Options struct {
	Gate               domain.Gate
	Stats              domain.StatsStore
	KeyFn              KeyFunc
	KeyHeader          string
	TrustXForwardedFor bool
	RejectStatus       int
	// RetryAfter > 0 envia um Retry-After fixo nas respostas bloqueadas.
	RetryAfter time.Duration
	Logger     *slog.Logger
	// DeniedLogEvery limita os logs de request bloqueada (padrão 1s).
	DeniedLogEvery time.Duration
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DeniedLogEvery <= 0 {
		opts.DeniedLogEvery = time.Second
	}

	svc := application.Service{
		Gate:       opts.Gate,
		RetryAfter: opts.RetryAfter,
	}
	// cliente banido costuma insistir; um log por intervalo basta.
	deniedLog := &rate.Sometimes{First: 1, Interval: opts.DeniedLogEvery}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := opts.KeyFn(r)
			dec := svc.Decide(client)

			if opts.Stats != nil {
				if err := opts.Stats.Record(r.Context(), domain.StatsEvent{
					Client:  client,
					Verdict: dec.Verdict,
					Method:  r.Method,
					Path:    r.URL.Path,
					At:      time.Now(),
				}); err != nil {
					opts.Logger.Debug("stats record failed", slog.Any("err", err))
				}
			}

			if !dec.Allowed() {
				deniedLog.Do(func() {
					opts.Logger.Info("denying client", slog.String("client", string(client)))
				})
				if dec.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(dec.RetryAfter.Seconds())))
				}
				// corpo vazio: nada do estado do ban vaza para o cliente
				w.WriteHeader(opts.RejectStatus)
				return
			}

			opts.Logger.Debug("allowing client", slog.String("client", string(client)))
			next.ServeHTTP(w, r)
		})
	}
}

package admission

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"admission-gateway/middleware/admission/domain"
	"admission-gateway/middleware/admission/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGate(t *testing.T, threshold uint64) *infra.Gate {
	t.Helper()
	g, err := infra.NewGate(infra.GateConfig{Threshold: threshold, BanDuration: time.Minute}, infra.WithLogger(quietLogger()))
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g
}

func serve(h http.Handler, remote string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "http://example/showTela", nil)
	r.RemoteAddr = remote
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestMiddleware_AllowsThenRejectsSameClient(t *testing.T) {
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})

	h := Middleware(Options{Gate: newGate(t, 2), Logger: quietLogger()})(next)

	for i := 0; i < 2; i++ {
		w := serve(h, "10.0.0.1:1234")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := serve(h, "10.0.0.1:4321")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Empty(t, w.Body.String(), "rejection must not carry a body")
	assert.Empty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, 2, calls)
}

func TestMiddleware_ClientsByHeaderAreIndependent(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Middleware(Options{Gate: newGate(t, 1), KeyHeader: "X-Api-Key", Logger: quietLogger()})(next)

	for _, key := range []string{"k1", "k2"} {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.Header.Set("X-Api-Key", key)
		r.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code, "key %s", key)
	}
}

func TestMiddleware_RetryAfterUsesSeconds(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Middleware(Options{
		Gate:         newGate(t, 1),
		RetryAfter:   2500 * time.Millisecond,
		RejectStatus: http.StatusForbidden,
		Logger:       quietLogger(),
	})(next)

	require.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1").Code)

	w := serve(h, "10.0.0.1:1")
	assert.Equal(t, http.StatusForbidden, w.Code)
	// int(2.5s.Seconds()) == 2
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
}

type recordingStats struct {
	events []domain.StatsEvent
	err    error
}

func (s *recordingStats) Record(_ context.Context, ev domain.StatsEvent) error {
	s.events = append(s.events, ev)
	return s.err
}

func TestMiddleware_RecordsStatsBestEffort(t *testing.T) {
	stats := &recordingStats{err: errors.New("redis down")}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Middleware(Options{Gate: newGate(t, 1), Stats: stats, Logger: quietLogger()})(next)

	assert.Equal(t, http.StatusOK, serve(h, "10.0.0.7:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, "10.0.0.7:1").Code)

	require.Len(t, stats.events, 2)
	assert.Equal(t, domain.Allowed, stats.events[0].Verdict)
	assert.Equal(t, domain.Denied, stats.events[1].Verdict)
	assert.Equal(t, domain.ClientID("10.0.0.7"), stats.events[1].Client)
	assert.Equal(t, "/showTela", stats.events[1].Path)
}

func TestMiddleware_NoGateAllowsEverything(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := Middleware(Options{Logger: quietLogger()})(next)

	for i := 0; i < 20; i++ {
		require.Equal(t, http.StatusNoContent, serve(h, "10.0.0.1:1").Code)
	}
}

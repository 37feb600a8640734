package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"admission-gateway/middleware/admission/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore grava contadores de decisão em hashes do Redis.
// Só relatório: o gate nunca lê daqui.
type RedisStatsStore struct {
	rdb redis.Cmdable

	prefix string
	// ttl vale só para buckets por minuto e hashes por cliente.
	// total é cumulativo e não expira.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"

	trackClients bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackClients(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackClients = track }
}

func NewRedisStatsStore(rdb redis.Cmdable, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "admission:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Keys devolve as chaves que um evento vai incrementar, na ordem do pipeline.
func (s *RedisStatsStore) Keys(ev domain.StatsEvent) []string {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	keys := []string{s.prefix + ":total"}
	if s.bucket == "minute" {
		keys = append(keys, fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504")))
	}
	if routeField(ev) != "" {
		keys = append(keys, s.prefix+":route")
	}
	if c := strings.TrimSpace(string(ev.Client)); s.trackClients && c != "" {
		keys = append(keys, s.prefix+":client:"+c)
	}
	return keys
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	field := ev.Verdict.String()
	routeKey := s.prefix + ":route"

	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range s.Keys(ev) {
			if key == routeKey {
				pipe.HIncrBy(ctx, key, routeField(ev)+":"+field, 1)
				continue
			}
			pipe.HIncrBy(ctx, key, field, 1)
			if s.ttl > 0 && key != s.prefix+":total" {
				pipe.Expire(ctx, key, s.ttl)
			}
		}
		return nil
	})
	return err
}

func routeField(ev domain.StatsEvent) string {
	return strings.TrimSpace(strings.TrimSpace(ev.Method) + " " + strings.TrimSpace(ev.Path))
}

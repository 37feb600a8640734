package infra

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"admission-gateway/middleware/admission/domain"
)

var (
	ErrInvalidThreshold   = errors.New("threshold must be > 0")
	ErrInvalidBanDuration = errors.New("ban duration must be > 0")
)

// GateConfig é lida uma única vez na construção e não muda depois.
type GateConfig struct {
	// Threshold é o máximo de requests aceitas antes do ban.
	Threshold uint64
	// BanDuration é o tempo que o cliente fica bloqueado, contado a partir do estouro.
	BanDuration time.Duration
}

func (c GateConfig) Validate() error {
	if c.Threshold == 0 {
		return ErrInvalidThreshold
	}
	if c.BanDuration <= 0 {
		return ErrInvalidBanDuration
	}
	return nil
}

// Gate é o contador por cliente com ban de duração fixa.
//
// Toda leitura/escrita da tabela acontece sob um único mutex global.
// Cada ban arma exatamente um timer de expiração; quando ele dispara, o registro
// do cliente é apagado e a próxima request volta a contar do zero.
type Gate struct {
	mu      sync.Mutex
	records map[domain.ClientID]*domain.ClientRecord
	expiry  map[domain.ClientID]Timer
	closed  bool

	threshold   uint64
	banDuration time.Duration

	now     func() time.Time
	sched   Scheduler
	logger  *slog.Logger
	metrics *Metrics
}

var _ domain.Gate = (*Gate)(nil)

type GateOption func(*Gate)

func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) { g.now = now }
}

func WithScheduler(s Scheduler) GateOption {
	return func(g *Gate) { g.sched = s }
}

func WithLogger(l *slog.Logger) GateOption {
	return func(g *Gate) { g.logger = l }
}

func WithMetrics(m *Metrics) GateOption {
	return func(g *Gate) { g.metrics = m }
}

func NewGate(cfg GateConfig, opts ...GateOption) (*Gate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gate config: %w", err)
	}

	g := &Gate{
		records:     make(map[domain.ClientID]*domain.ClientRecord),
		expiry:      make(map[domain.ClientID]Timer),
		threshold:   cfg.Threshold,
		banDuration: cfg.BanDuration,
		now:         time.Now,
		sched:       RealScheduler{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Evaluate implementa domain.Gate.
func (g *Gate) Evaluate(id domain.ClientID) domain.Verdict {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[id]
	if !ok {
		rec = &domain.ClientRecord{ID: id}
		g.records[id] = rec
		g.metrics.setTracked(len(g.records))
	}
	rec.Count++

	// já bloqueado: o veredito fica fixo até o timer apagar o registro.
	// Um novo estouro não estende o ban nem arma outro timer.
	if rec.Banned() {
		g.metrics.observe(domain.Denied)
		return domain.Denied
	}

	if rec.Count > g.threshold {
		rec.BannedUntil = g.now().Add(g.banDuration)
		g.armExpiry(id)
		g.logger.Warn("blocking client",
			slog.String("client", string(id)),
			slog.Duration("ban", g.banDuration),
			slog.Time("until", rec.BannedUntil),
		)
		g.metrics.breach(len(g.expiry))
		g.metrics.observe(domain.Denied)
		return domain.Denied
	}

	g.metrics.observe(domain.Allowed)
	return domain.Allowed
}

// armExpiry deve ser chamado com g.mu travado.
// A espera acontece no timer, fora do lock; só a remoção retoma o mutex.
func (g *Gate) armExpiry(id domain.ClientID) {
	if g.closed {
		return
	}
	g.expiry[id] = g.sched.AfterFunc(g.banDuration, func() { g.expire(id) })
}

// expire apaga o registro incondicionalmente. Registro ausente é no-op.
func (g *Gate) expire(id domain.ClientID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.expiry, id)
	if _, ok := g.records[id]; !ok {
		return
	}
	delete(g.records, id)

	g.logger.Info("client unblocked", slog.String("client", string(id)))
	g.metrics.expired(len(g.records), len(g.expiry))
}

// Close cancela todas as expirações pendentes. Depois dele nenhum timer novo
// é armado: clientes bloqueados continuam bloqueados até o processo sair.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.closed = true
	for id, t := range g.expiry {
		t.Stop()
		delete(g.expiry, id)
	}
	g.metrics.setPending(0)
}

// StopOnDone fecha o gate quando o contexto encerrar (ex: SIGTERM).
func (g *Gate) StopOnDone(ctx DoneContext) {
	go func() {
		<-ctx.Done()
		g.Close()
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context sem importar context aqui.
type DoneContext interface {
	Done() <-chan struct{}
}

package application

import (
	"context"
	"time"

	"admission-gateway/middleware/admission/domain"
)

// InflightService concentra a regra de aquisição/liberação de vagas com timeout,
// sem saber nada sobre HTTP.
type InflightService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire tenta adquirir uma vaga.
// Sem timeout espera até o ctx cancelar; com timeout desiste quando ele vence.
// Se ok=false, nenhuma vaga foi adquirida.
func (s InflightService) Acquire(ctx context.Context) (func(), bool) {
	if s.Pool == nil {
		return func() {}, true
	}

	if s.AcquireTimeout <= 0 {
		return s.Pool.Acquire(ctx)
	}

	acqCtx, cancel := context.WithTimeout(ctx, s.AcquireTimeout)
	defer cancel()
	return s.Pool.Acquire(acqCtx)
}

package application

import (
	"time"

	"admission-gateway/middleware/admission/domain"
)

// Service traduz o veredito do gate em uma decisão para a borda.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Gate domain.Gate
	// RetryAfter é uma dica estática; nunca reflete o tempo restante do ban.
	RetryAfter time.Duration
}

func (s Service) Decide(client domain.ClientID) domain.Decision {
	if s.Gate == nil {
		return domain.Decision{Verdict: domain.Allowed}
	}
	if s.Gate.Evaluate(client) == domain.Allowed {
		return domain.Decision{Verdict: domain.Allowed}
	}

	dec := domain.Decision{Verdict: domain.Denied}
	if s.RetryAfter > 0 {
		dec.RetryAfter = s.RetryAfter
	}
	return dec
}

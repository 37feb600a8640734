package domain

// Camada de domínio do gate de admissão.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import "time"

// ClientID identifica o cliente (normalmente o IP de origem).
// Só precisa ser comparável, o gate não interpreta o conteúdo.
type ClientID string

// Verdict é o resultado binário de uma decisão de admissão.
type Verdict uint8

const (
	Allowed Verdict = iota
	Denied
)

func (v Verdict) String() string {
	switch v {
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// ClientRecord é o estado de um cliente dentro da tabela de admissão.
//
// Count só cresce enquanto o registro existir. BannedUntil zero significa
// que o cliente não está bloqueado.
type ClientRecord struct {
	ID          ClientID
	Count       uint64
	BannedUntil time.Time
}

func (r ClientRecord) Banned() bool { return !r.BannedUntil.IsZero() }

// Gate decide se um cliente pode seguir. A operação é total: não há erro.
type Gate interface {
	Evaluate(ClientID) Verdict
}

type Decision struct {
	Verdict Verdict
	// RetryAfter é o valor estático a ser retornado em Retry-After quando bloquear.
	// Se 0, nenhum header é enviado.
	RetryAfter time.Duration
}

func (d Decision) Allowed() bool { return d.Verdict == Allowed }

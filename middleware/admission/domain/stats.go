package domain

import (
	"context"
	"time"
)

// StatsEvent representa uma decisão do gate vista pela borda HTTP.
//
// Method/Path são strings genéricas; o evento não carrega nada do estado do ban
// além do veredito.
//
// Observação: cuidado com cardinalidade ao salvar ClientID/Path sem controle.
type StatsEvent struct {
	Client  ClientID
	Verdict Verdict

	Method string
	Path   string

	At time.Time
}

// StatsStore é a estratégia de persistência das estatísticas.
//
// É só relatório: nada aqui alimenta a decisão do gate.
// O middleware trata erro como best-effort (não derruba request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}

package infra

import "time"

// Timer é o handle de uma tarefa adiada.
type Timer interface {
	Stop() bool
}

// Scheduler arma tarefas únicas adiadas. O Gate usa isso para a expiração do ban;
// nos testes é trocado por uma versão manual.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler usa time.AfterFunc: cada tarefa roda na própria goroutine do runtime.
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - Gate: contador por cliente com ban fixo e expiração agendada
//   - SlotPool: semáforo (golang.org/x/sync/semaphore) para requests em andamento
//   - MemoryStatsStore / RedisStatsStore: estatísticas best-effort das decisões
package infra

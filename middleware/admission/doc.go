// Package admission fornece os adapters HTTP (net/http) do gate de admissão e
// do limite de requests em andamento.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (veredito -> decisão, acquire/timeout) sem net/http
//   - infra: implementações concretas (gate com ban, semáforo, stats)
//   - admission (este pacote): middlewares HTTP + extração de chave + tradução para status
//
// Fluxo no gateway:
//
//   1) Extrai o id do cliente (header/XFF/IP)
//   2) Chama a camada application para obter a decisão
//   3) Se bloqueado, responde 429 com corpo vazio (ou 503 no limite de concorrência)
//   4) Se permitido, chama o próximo handler (ex: reverse proxy)
//
// Variáveis de ambiente do binário gateway (cmd/gateway) controlam o comportamento,
// como THRESHOLD, BAN_DURATION, CONCURRENCY_MAX e CONCURRENCY_TIMEOUT.
package admission

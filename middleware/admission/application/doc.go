// Package application contém os casos de uso do gate de admissão e do limite
// de requests em andamento.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(client) retorna uma Decision (veredito + retry-after).
package application

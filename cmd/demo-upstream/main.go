// Upstream mínimo para validar o gateway à mão:
//
//	UPSTREAM_URL=http://127.0.0.1:8081 go run ./cmd/gateway
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
)

func main() {
	r := chi.NewRouter()
	r.Get("/showTela", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<h1>Tela do Sistema</h1><p>Requisição recebida com sucesso!</p>"))
		slog.Info("showTela hit", slog.String("remote", r.RemoteAddr))
	})

	slog.Info("demo upstream listening", slog.String("addr", ":8081"))
	if err := http.ListenAndServe(":8081", r); err != nil {
		slog.Error("server error", slog.Any("err", err))
		os.Exit(1)
	}
}

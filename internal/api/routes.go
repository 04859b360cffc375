package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes регистрирует все маршруты.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	mux.Handle("GET /healthz", chain(http.HandlerFunc(h.Health)))
	mux.Handle("GET /readyz", chain(http.HandlerFunc(h.Ready)))

	// Prometheus опрашивает часто, без логирования запросов
	mux.Handle("GET /metrics", Recovery(h.logger)(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
}

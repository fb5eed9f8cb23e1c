package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/auravita/privacykit/internal/logging"
	"github.com/auravita/privacykit/internal/server/metrics"
)

// NewRouter wires the API routes, middleware, and metrics endpoint.
func NewRouter(h *Handler, m *metrics.Metrics, gatherer prometheus.Gatherer, secret []byte, log logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(observe(m))

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticate(secret, log))

		r.Route("/profile", func(r chi.Router) {
			r.Get("/salt", h.GetSalt)
			r.Put("/salt", h.PutSalt)
		})

		r.Post("/audit/events", h.AppendAuditEvent)
	})

	return r
}

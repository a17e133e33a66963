package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds and returns the Chi router with all routes configured.
// Health and metrics are unauthenticated; hazard and route endpoints require
// bearer auth. Rate limiting is applied globally per IP; a non-positive
// ratePerMinute uses 60.
func NewRouter(handlers *Handlers, token string, ratePerMinute int, db dbPinger, redisClient redisPinger, log *slog.Logger) *chi.Mux {
	if ratePerMinute <= 0 {
		ratePerMinute = 60
	}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httprate.LimitByIP(ratePerMinute, time.Minute))

	r.Get("/api/v1/health", HealthHandlerFunc(db, redisClient, log))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(token))
		r.Route("/api/v1/hazards", func(r chi.Router) {
			r.Get("/", handlers.GetHazards)
			r.Get("/history", handlers.GetHazardHistory)
		})
		r.Route("/api/v1/route", func(r chi.Router) {
			r.Get("/", handlers.GetRoute)
			r.Get("/history", handlers.GetRouteHistory)
		})
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)

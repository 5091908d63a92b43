package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/fightcamp/trainer-booking/internal/schedule"
)

type RouterConfig struct {
	Service *schedule.Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Availability and slots. Reads are public, they power the booking UI.
	r.Route("/trainers/{trainerID}", func(r chi.Router) {
		r.Get("/availability", getAvailabilityHandler(cfg.Service))
		r.Put("/availability", setAvailabilityHandler(cfg.Service))
		r.Get("/slots", getSlotsHandler(cfg.Service))

		r.Get("/timeoff", listTimeOffHandler(cfg.Service))
		r.Post("/timeoff", addTimeOffHandler(cfg.Service))
		r.Delete("/timeoff/{timeOffID}", removeTimeOffHandler(cfg.Service))
	})

	// Session endpoints
	r.Post("/sessions", bookSessionHandler(cfg.Service))
	r.Get("/sessions", listSessionsHandler(cfg.Service))
	r.Post("/sessions/{sessionID}/confirm", sessionTransitionHandler(cfg.Service.ConfirmSession))
	r.Post("/sessions/{sessionID}/cancel", sessionTransitionHandler(cfg.Service.CancelSession))
	r.Post("/sessions/{sessionID}/complete", sessionTransitionHandler(cfg.Service.CompleteSession))

	return r
}

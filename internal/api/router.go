package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Broadcaster        Broadcaster
	Health             *HealthHandler
	Logger             *zap.Logger
	JWTSecret          string
	BroadcastPerMinute int
	DefaultTopic       string
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger.Named("http")
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))

	r.Get("/health/live", cfg.Health.Liveness)
	r.Get("/health/ready", cfg.Health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/admin", func(r chi.Router) {
		r.Use(AdminOnly(cfg.JWTSecret))
		r.Post("/broadcast", broadcastHandler(
			cfg.Broadcaster,
			newBroadcastLimiter(cfg.BroadcastPerMinute),
			cfg.DefaultTopic,
			logger,
		))
	})

	return r
}

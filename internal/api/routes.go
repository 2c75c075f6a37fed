package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig collects what SetupRoutes mounts.
type RouterConfig struct {
	Handlers       *Handlers
	Health         *HealthChecker
	Metrics        http.Handler // nil disables /metrics
	AllowedOrigins []string
}

// SetupRoutes builds the HTTP router. The intake endpoints are served at the
// root and under /api.
func SetupRoutes(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(recoverJSON)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))

	r.MethodNotAllowed(methodNotAllowed)
	r.NotFound(notFound)

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.HandleHealth)
		r.Get("/health/live", cfg.Health.HandleLiveness)
		r.Get("/health/ready", cfg.Health.HandleReadiness)
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	intake := func(r chi.Router) {
		r.Post("/subscribe", cfg.Handlers.HandleSubscribe)
		r.Post("/unsubscribe", cfg.Handlers.HandleUnsubscribe)
	}
	intake(r)
	r.Route("/api", intake)

	return r
}

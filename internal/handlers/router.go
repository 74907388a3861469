package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abdul-hamid-achik/aegisvault/internal/app"
	"github.com/abdul-hamid-achik/aegisvault/internal/middleware"
	"github.com/abdul-hamid-achik/aegisvault/internal/services"
)

// Dependencies holds all the dependencies needed for handlers.
type Dependencies struct {
	App         *app.App
	Logger      *slog.Logger
	AuthService *services.AuthService
	RateLimiter *middleware.RateLimiter
}

// NewRouter creates and configures the HTTP router.
func NewRouter(deps *Dependencies) http.Handler {
	cfg := deps.App.Config
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Metrics())
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.Recovery(deps.Logger))
	if cfg.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))
	}
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(cfg.Server.MaxBodySize))

	r.NotFound(NotFoundHandler)
	r.MethodNotAllowed(MethodNotAllowedHandler)

	// Create handlers
	healthHandler := NewHealthHandler(deps.App.Vault)
	authHandler := NewAuthHandler(deps.AuthService, deps.App.TwoFactor)
	apiHandler := NewAPIHandler(deps.App.Vault)

	// Health checks and metrics (no auth, no rate limit)
	r.Get("/health", healthHandler.Liveness)
	r.Get("/ready", healthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(deps.RateLimiter))

		r.Post("/session", authHandler.CreateSession)
		r.Delete("/session", authHandler.DeleteSession)
		r.Post("/2fa/setup", authHandler.SetupTwoFactor)
		r.Get("/2fa/status", authHandler.TwoFactorStatus)
		r.Post("/passwords", apiHandler.GeneratePassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(deps.AuthService))

			r.Get("/entries", apiHandler.ListEntries)
			r.Post("/entries", apiHandler.CreateEntry)
			r.Delete("/entries/{id}", apiHandler.DeleteEntry)
		})
	})

	return r
}

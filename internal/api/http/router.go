package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"

	"github.com/networkhq/network-intake/internal/api/http/handlers"
	"github.com/networkhq/network-intake/internal/auth"
	"github.com/networkhq/network-intake/internal/observability"
	"github.com/networkhq/network-intake/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Submissions     *handlers.SubmissionsHandler
	Admin           *handlers.AdminHandler
	AuthMiddleware  *auth.AuthMiddleware
	WaitlistLimiter ratelimit.Limiter
	PartnerLimiter  ratelimit.Limiter
	Metrics         *observability.Metrics
	Logger          *zap.Logger
}

// RegisterRoutes wires HTTP routes. Anything unmatched ends in a 404.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	api := app.Group("/api")
	api.Get("/health", cfg.Health.Live)
	api.Get("/health/ready", cfg.Health.Ready)

	api.Post("/waitlist", RateLimitMiddleware(cfg.WaitlistLimiter, cfg.Logger, cfg.Metrics), cfg.Submissions.Waitlist)
	api.Post("/partner", RateLimitMiddleware(cfg.PartnerLimiter, cfg.Logger, cfg.Metrics), cfg.Submissions.Partner)

	if cfg.Admin != nil && cfg.AuthMiddleware != nil {
		admin := api.Group("/admin")
		admin.Post("/login", cfg.Admin.Login)
		admin.Get("/submissions", cfg.AuthMiddleware.Handle, auth.RequireAdmin(), cfg.Admin.ListSubmissions)
	}

	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Use(notFoundHandler)
}

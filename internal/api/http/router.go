package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Tickets *handlers.TicketsHandler
	Reports *handlers.ReportsHandler
	// Auth and AuthMiddleware are nil when no admin credential is configured;
	// the admin routes are then not registered at all.
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api")
	api.Get("/common-issues", cfg.Tickets.CommonIssues)
	api.Post("/analyze", cfg.Tickets.Analyze)

	api.Get("/stats", cfg.Reports.Stats)
	api.Get("/analytics", cfg.Reports.Analytics)
	api.Get("/knowledge-base", cfg.Reports.KnowledgeCatalog)
	api.Get("/knowledge-base/:category", cfg.Reports.KnowledgeBase)

	tickets := api.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/filters", cfg.Tickets.FilterOptions)
	tickets.Get("/export", cfg.Tickets.Export)
	tickets.Post("/resolve", cfg.Tickets.Resolve)
	tickets.Post("/escalate", cfg.Tickets.Escalate)
	tickets.Get("/:id", cfg.Tickets.GetTicket)

	if cfg.Auth == nil || cfg.AuthMiddleware == nil {
		return
	}
	app.Post("/auth/admin/login", cfg.Auth.AdminLogin)
	tickets.Patch("/:id/status", cfg.AuthMiddleware.Handle, auth.RequireRole(auth.RoleAdmin), cfg.Tickets.UpdateStatus)
}

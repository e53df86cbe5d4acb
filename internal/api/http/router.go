package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/trouble-ticket/internal/api/http/handlers"
	"github.com/spec-kit/trouble-ticket/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Info    *handlers.InfoHandler
	Metrics *handlers.MetricsHandler
	Tickets *handlers.TicketsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Info.Root)
	app.Get("/health", cfg.Health.Health)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Snapshot)

	item := domain.ResourcePath + "/:id"
	app.Get(domain.ResourcePath, cfg.Tickets.ListTickets)
	app.Post(domain.ResourcePath, cfg.Tickets.CreateTicket)
	app.Get(item, cfg.Tickets.GetTicket)
	app.Patch(item, cfg.Tickets.PatchTicket)
	app.Delete(item, cfg.Tickets.DeleteTicket)
}

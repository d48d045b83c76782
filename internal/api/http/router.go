package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-generator/internal/api/http/handlers"
	"github.com/spec-kit/ticket-generator/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Form              *handlers.FormHandler
	Tickets           *handlers.TicketsHandler
	SessionMiddleware *auth.SessionMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	pages := app.Group("", cfg.SessionMiddleware.Handle)
	pages.Get("/", cfg.Form.Show)
	pages.Post("/avatar", cfg.Form.UploadAvatar)
	pages.Post("/avatar/remove", cfg.Form.RemoveAvatar)
	pages.Get("/avatar/preview", cfg.Form.AvatarPreview)
	pages.Post("/tickets", cfg.Form.Submit)
	pages.Get("/ticket", cfg.Form.Ticket)

	api := app.Group("/api/v1", cfg.SessionMiddleware.Handle)
	api.Get("/session", cfg.Tickets.CurrentSession)
	api.Post("/tickets", cfg.Tickets.CreateTicket)
	api.Get("/tickets/:number", cfg.Tickets.GetTicket)
}

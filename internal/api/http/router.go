package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-desk/internal/api/http/handlers"
	"github.com/spec-kit/complaint-desk/internal/auth"
	"github.com/spec-kit/complaint-desk/internal/realtime"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Realtime       *realtime.Handler
	AuthMiddleware *auth.AuthMiddleware
	LoginLimiter   fiber.Handler
	APILimiter     fiber.Handler
}

// RegisterRoutes wires HTTP routes. Rate limiters always run before the
// identity check.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.LoginLimiter, cfg.Users.Login)
	authGroup.Get("/me", cfg.APILimiter, cfg.AuthMiddleware.Handle, cfg.Users.Me)
	authGroup.Post("/password/change", cfg.LoginLimiter, cfg.AuthMiddleware.Handle, cfg.Users.ChangePassword)

	tickets := app.Group("/tickets", cfg.APILimiter, cfg.AuthMiddleware.Handle)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)

	if cfg.Realtime != nil {
		app.Get("/ws", cfg.APILimiter, cfg.Realtime.Handshake, cfg.Realtime.Upgrade())
	}
}

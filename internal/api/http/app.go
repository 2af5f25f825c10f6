package http

import (
	"github.com/gofiber/fiber/v2"
)

// AppConfig holds fiber server level settings.
type AppConfig struct {
	Name        string
	ProxyHeader string
}

// NewApp builds the fiber application with middleware and routes installed.
func NewApp(app AppConfig, middleware MiddlewareConfig, routes RouteConfig) *fiber.App {
	server := fiber.New(fiber.Config{
		AppName:               app.Name,
		ProxyHeader:           app.ProxyHeader,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(server, middleware)
	RegisterRoutes(server, routes)
	return server
}

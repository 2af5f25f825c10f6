package http

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-desk/internal/observability"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util/errorutil"
)

// MiddlewareConfig configures the global middleware chain.
type MiddlewareConfig struct {
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	Timeout        time.Duration
	FrontendOrigin string
}

// RegisterMiddlewares attaches global middlewares: CORS, timeout, request
// logging, then error handling closest to the routes so the logger sees the
// final status.
func RegisterMiddlewares(app *fiber.App, cfg MiddlewareConfig) {
	app.Use(cors.New(corsConfig(cfg.FrontendOrigin)))
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
	app.Use(observability.RequestLogger(cfg.Logger, cfg.Metrics))
	app.Use(errorHandlingMiddleware(cfg.Logger, cfg.Metrics))
}

// ErrorHandler is installed as fiber's fallback handler for errors raised
// outside the middleware chain, such as unmatched routes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	domainErr := apperrors.ToDomainError(err)
	return c.Status(domainErr.HTTPStatus).JSON(errorBody(domainErr))
}

func corsConfig(origin string) cors.Config {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		origin = "*"
	}
	return cors.Config{
		AllowOrigins:  origin,
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, Retry-After",
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(errorBody(domainErr))
				err = nil
			}
		}()
		return c.Next()
	}
}

func errorBody(domainErr *apperrors.DomainError) fiber.Map {
	body := fiber.Map{
		"message": domainErr.Message,
		"code":    domainErr.Code,
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	return body
}

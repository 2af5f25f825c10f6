package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-desk/internal/observability"
)

// Pinger is a dependency that can report its availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName  string
	version      string
	dependencies map[string]Pinger
	metrics      *observability.Metrics
	realtime     func() int
}

// HealthOptions lists what the readiness probe checks. Nil entries are
// skipped, so the in-memory setup is always ready.
type HealthOptions struct {
	ServiceName  string
	Version      string
	Dependencies map[string]Pinger
	Metrics      *observability.Metrics
	RealtimeConn func() int
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(opts HealthOptions) *HealthHandler {
	deps := make(map[string]Pinger, len(opts.Dependencies))
	for name, dep := range opts.Dependencies {
		if dep != nil {
			deps[name] = dep
		}
	}
	return &HealthHandler{
		serviceName:  opts.ServiceName,
		version:      opts.Version,
		dependencies: deps,
		metrics:      opts.Metrics,
		realtime:     opts.RealtimeConn,
	}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	body := fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	}
	if h.realtime != nil {
		body["realtimeClients"] = h.realtime()
	}
	return c.JSON(body)
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true
	for name, dep := range h.dependencies {
		if err := dep.Ping(ctx); err != nil {
			depStatus[name] = err.Error()
			ready = false
		} else {
			depStatus[name] = "ok"
		}
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"message": "one or more dependencies unavailable",
		"code":    "DEPENDENCY_UNAVAILABLE",
		"details": depStatus,
	})
}

// Metrics returns the in-memory request counters.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}

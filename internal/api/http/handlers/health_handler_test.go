package handlers

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadyReportsDependencyFailures(t *testing.T) {
	cases := []struct {
		name string
		deps map[string]Pinger
		want int
	}{
		{"no dependencies", nil, fiber.StatusOK},
		{"all healthy", map[string]Pinger{"postgres": pingerFunc(func(context.Context) error { return nil })}, fiber.StatusOK},
		{"redis down", map[string]Pinger{
			"postgres": pingerFunc(func(context.Context) error { return nil }),
			"redis":    pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
		}, fiber.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/ready", NewHealthHandler(HealthOptions{ServiceName: "test", Dependencies: tc.deps}).Ready)

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ready", nil))
			if err != nil {
				t.Fatalf("app.Test() unexpected error: %v", err)
			}
			if resp.StatusCode != tc.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

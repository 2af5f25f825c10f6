// Package ratelimit implements fixed-window request budgets keyed by client.
package ratelimit

import (
	"context"
	"time"

	"github.com/spec-kit/complaint-desk/internal/config"
)

// Policy allows Points requests per Window for a single key.
type Policy struct {
	Name   string
	Points int
	Window time.Duration
}

// PolicyFromConfig converts an env policy into a named Policy.
func PolicyFromConfig(name string, cfg config.RateLimitPolicy) Policy {
	return Policy{Name: name, Points: cfg.Points, Window: cfg.Window()}
}

// Result is the outcome of consuming one point.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration
}

// Store counts consumed points per key. A rejected attempt must not consume
// a point or move the window.
type Store interface {
	Take(ctx context.Context, key string, policy Policy) (Result, error)
}

func remaining(limit, used int) int {
	if used >= limit {
		return 0
	}
	return limit - used
}

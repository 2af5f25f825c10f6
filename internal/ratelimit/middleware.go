package ratelimit

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/complaint-desk/pkg/util/errorutil"
)

// Middleware rejects callers that exhausted policy for their IP address.
// When the store is unreachable the request is let through and logged.
func Middleware(store Store, policy Policy, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	message := "Too many requests. Please try again later."
	if policy.Name == "login" {
		message = "Too many login attempts. Please try again after 1 minute."
	}

	return func(c *fiber.Ctx) error {
		key := policy.Name + ":" + c.IP()
		result, err := store.Take(c.UserContext(), key, policy)
		if err != nil {
			logger.Warn("rate limit store unavailable", zap.String("policy", policy.Name), zap.Error(err))
			return c.Next()
		}

		reset := ceilSeconds(result.ResetAfter)
		c.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Set("X-RateLimit-Reset", strconv.Itoa(reset))

		if !result.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(reset))
			return apperrors.NewRateLimited(message)
		}
		return c.Next()
	}
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

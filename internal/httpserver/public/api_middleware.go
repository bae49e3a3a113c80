package public

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/solutionai/ticket-triage/backend/internal/app"
	"github.com/solutionai/ticket-triage/backend/internal/auth"
	"github.com/solutionai/ticket-triage/backend/internal/httpserver/httputil"
	"github.com/solutionai/ticket-triage/backend/internal/limits"
	"github.com/solutionai/ticket-triage/backend/internal/requestctx"
)

const apiKeyHeader = "X-Api-Key"

// apiKeyAuth validates the X-Api-Key header and injects request metadata.
func apiKeyAuth(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(c.Get(apiKeyHeader))
		if token == "" {
			return httputil.WriteError(c, fiber.StatusUnauthorized, "api key required")
		}

		record, err := container.Verifier.Verify(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidAPIKey) {
				return httputil.WriteError(c, fiber.StatusUnauthorized, "invalid api key")
			}
			return httputil.WriteError(c, fiber.StatusInternalServerError, "api key lookup failed")
		}

		rc := &requestctx.Context{
			APIKeyID:      record.ID,
			APIKeyPrefix:  record.KeyPrefix,
			CustomerID:    record.CustomerID,
			DailyLimit:    record.DailyLimit,
			RequestsToday: record.RequestsToday,
			LastReset:     record.LastReset,
		}
		c.Locals(requestctx.FiberLocalsKey(), rc)
		c.SetUserContext(requestctx.WithContext(c.UserContext(), rc))
		return c.Next()
	}
}

// ipThrottle applies the fixed-window per-address limit in front of the
// public API. The limiter fails open when Redis is not configured.
func ipThrottle(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := container.Throttle.Allow(c.UserContext(), c.IP())
		if err == nil {
			return c.Next()
		}
		if errors.Is(err, limits.ErrLimitExceeded) {
			return httputil.WriteError(c, fiber.StatusTooManyRequests, "too many requests")
		}
		// Redis trouble must not take the API down with it.
		container.Logger.Warn("request throttle unavailable", "error", err.Error())
		return c.Next()
	}
}

func requestContext(c *fiber.Ctx) (*requestctx.Context, bool) {
	rc, ok := c.Locals(requestctx.FiberLocalsKey()).(*requestctx.Context)
	return rc, ok && rc != nil
}

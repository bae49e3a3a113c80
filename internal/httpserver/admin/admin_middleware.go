package admin

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/solutionai/ticket-triage/backend/internal/app"
	"github.com/solutionai/ticket-triage/backend/internal/httpserver/httputil"
)

const adminKeyHeader = "X-Admin-Key"

// adminAuthMiddleware compares the X-Admin-Key header against the configured
// operator key in constant time.
func adminAuthMiddleware(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		expected := container.Config.Admin.APIKey
		if expected == "" {
			return httputil.WriteError(c, fiber.StatusServiceUnavailable, "admin api disabled")
		}

		presented := strings.TrimSpace(c.Get(adminKeyHeader))
		if presented == "" {
			return httputil.WriteError(c, fiber.StatusUnauthorized, "admin authorization required")
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) != 1 {
			return httputil.WriteError(c, fiber.StatusUnauthorized, "invalid admin key")
		}
		return c.Next()
	}
}

// Package public exposes the customer-facing triage API.
package public

import (
	"github.com/gofiber/fiber/v2"

	"github.com/solutionai/ticket-triage/backend/internal/app"
)

// Register wires up the public triage routes. The triage submission
// authenticates inside the processing pipeline so quota denials and bad
// keys share one code path; the read endpoints authenticate up front.
func Register(router *fiber.App, container *app.Container) {
	group := router.Group("/api/v1", ipThrottle(container))
	handler := &triageHandler{container: container}

	group.Post("/triage", handler.triage)

	authed := group.Group("", apiKeyAuth(container))
	authed.Get("/recent", handler.recent)
	authed.Get("/stats", handler.stats)
}

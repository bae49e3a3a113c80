// Package webhooks handles inbound webhook deliveries: Stripe billing
// events that provision API keys, and generic integrations that submit
// tickets on behalf of a customer system.
package webhooks

import (
	"github.com/gofiber/fiber/v2"

	"github.com/solutionai/ticket-triage/backend/internal/app"
)

// Register wires up the webhook routes.
func Register(router *fiber.App, container *app.Container) {
	handler := &webhookHandler{container: container}
	group := router.Group("/webhooks")
	group.Post("/stripe", handler.stripe)
	group.Post("/:provider", handler.integration)
}

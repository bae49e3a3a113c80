// Package admin exposes operator endpoints for inspecting tickets, API
// keys, and webhook deliveries, and for retention cleanup.
package admin

import (
	"github.com/gofiber/fiber/v2"

	"github.com/solutionai/ticket-triage/backend/internal/app"
)

// Register wires up all /admin routes behind the operator key check.
func Register(router *fiber.App, container *app.Container) {
	protected := router.Group("/admin", adminAuthMiddleware(container))
	handler := &adminHandler{container: container}

	protected.Get("/tickets", handler.listTickets)
	protected.Get("/api-keys", handler.listAPIKeys)
	protected.Get("/webhook-logs", handler.listWebhookLogs)
	protected.Get("/stats", handler.stats)
	protected.Delete("/old-tickets", handler.deleteOldTickets)
	protected.Delete("/api-keys/:id", handler.revokeAPIKey)
}

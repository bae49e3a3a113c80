package webhooks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/solutionai/ticket-triage/backend/internal/httpserver/httputil"
	"github.com/solutionai/ticket-triage/backend/internal/tickets"
)

type integrationPayload struct {
	TicketText string `json:"ticket_text"`
}

// integration accepts a ticket submission from an external system such as a
// helpdesk connector. The caller authenticates with the same API key scheme
// as the public API; the delivery is recorded whether or not triage
// succeeds.
func (h *webhookHandler) integration(c *fiber.Ctx) error {
	provider := strings.ToLower(c.Params("provider"))
	if provider == "stripe" {
		return httputil.WriteError(c, fiber.StatusNotFound, "unknown webhook provider")
	}

	var payload integrationPayload
	if err := c.BodyParser(&payload); err != nil {
		h.logDelivery(c.UserContext(), provider, "ticket", "rejected", "malformed payload")
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid request body")
	}

	ticket, err := h.container.Tickets.Process(c.UserContext(), tickets.ProcessRequest{
		Text:   payload.TicketText,
		Token:  strings.TrimSpace(c.Get("X-Api-Key")),
		Source: tickets.SourceWebhook,
	})
	if err != nil {
		h.logDelivery(c.UserContext(), provider, "ticket", "failed", err.Error())
		return writeIntegrationError(c, err)
	}

	h.logDelivery(c.UserContext(), provider, "ticket", "processed",
		fmt.Sprintf("ticket=%s label=%s", ticket.ID, ticket.Label))
	return c.JSON(fiber.Map{
		"received":  true,
		"ticket_id": ticket.ID,
		"label":     ticket.Label,
	})
}

func writeIntegrationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, tickets.ErrTextTooShort), errors.Is(err, tickets.ErrTextTooLong):
		return httputil.WriteError(c, fiber.StatusBadRequest, "ticket_text out of bounds")
	case errors.Is(err, tickets.ErrInvalidKey):
		return httputil.WriteError(c, fiber.StatusUnauthorized, "invalid api key")
	case errors.Is(err, tickets.ErrRateLimitExceeded):
		return httputil.WriteError(c, fiber.StatusTooManyRequests, "daily request limit exceeded")
	default:
		return httputil.WriteError(c, fiber.StatusInternalServerError, "webhook processing failed")
	}
}

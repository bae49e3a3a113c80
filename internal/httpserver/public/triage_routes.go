package public

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/solutionai/ticket-triage/backend/internal/app"
	"github.com/solutionai/ticket-triage/backend/internal/httpserver/httputil"
	"github.com/solutionai/ticket-triage/backend/internal/store"
	"github.com/solutionai/ticket-triage/backend/internal/tickets"
)

const maxRecentLimit = 100

type triageHandler struct {
	container *app.Container
}

type triageRequest struct {
	Text string `json:"text"`
}

type ticketResponse struct {
	ID           uuid.UUID `json:"id"`
	Label        string    `json:"label"`
	Confidence   float64   `json:"confidence"`
	Summary      string    `json:"summary"`
	Provider     string    `json:"provider"`
	Source       string    `json:"source"`
	ProcessingMS int64     `json:"processing_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

func toTicketResponse(t store.Ticket) ticketResponse {
	return ticketResponse{
		ID:           t.ID,
		Label:        t.Label,
		Confidence:   t.Confidence,
		Summary:      t.Summary,
		Provider:     t.Provider,
		Source:       t.Source,
		ProcessingMS: t.ProcessingMS,
		CreatedAt:    t.CreatedAt,
	}
}

func (h *triageHandler) triage(c *fiber.Ctx) error {
	var req triageRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid request body")
	}

	ticket, err := h.container.Tickets.Process(c.UserContext(), tickets.ProcessRequest{
		Text:   req.Text,
		Token:  strings.TrimSpace(c.Get(apiKeyHeader)),
		Source: tickets.SourceAPI,
	})
	if err != nil {
		return writeProcessError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(toTicketResponse(ticket))
}

func (h *triageHandler) recent(c *fiber.Ctx) error {
	rc, ok := requestContext(c)
	if !ok {
		return httputil.WriteError(c, fiber.StatusUnauthorized, "invalid api key")
	}

	limit := c.QueryInt("limit", h.container.Config.Tickets.RecentLimit)
	if limit <= 0 {
		return httputil.WriteError(c, fiber.StatusBadRequest, "limit must be positive")
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	rows, err := h.container.Tickets.Recent(c.UserContext(), rc.APIKeyID, int32(limit))
	if err != nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to load tickets")
	}

	out := make([]ticketResponse, 0, len(rows))
	for _, t := range rows {
		out = append(out, toTicketResponse(t))
	}
	return c.JSON(fiber.Map{"tickets": out})
}

func (h *triageHandler) stats(c *fiber.Ctx) error {
	rc, ok := requestContext(c)
	if !ok {
		return httputil.WriteError(c, fiber.StatusUnauthorized, "invalid api key")
	}

	stats, err := h.container.Tickets.StatsFor(c.UserContext(), rc.APIKeyID)
	if err != nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to compute stats")
	}
	return c.JSON(statsResponse(stats, rc.DailyLimit, rc.RequestsToday))
}

func statsResponse(stats store.TicketStats, dailyLimit, requestsToday int32) fiber.Map {
	return fiber.Map{
		"total_tickets":          stats.Total,
		"average_confidence":     stats.AvgConfidence,
		"average_processing_sec": stats.AvgProcessingMS / 1000.0,
		"label_distribution":     stats.LabelDistribution,
		"daily_limit":            dailyLimit,
		"requests_today":         requestsToday,
	}
}

func writeProcessError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, tickets.ErrTextTooShort):
		return httputil.WriteError(c, fiber.StatusBadRequest, "ticket text too short")
	case errors.Is(err, tickets.ErrTextTooLong):
		return httputil.WriteError(c, fiber.StatusBadRequest, "ticket text too long")
	case errors.Is(err, tickets.ErrInvalidKey):
		return httputil.WriteError(c, fiber.StatusUnauthorized, "invalid api key")
	case errors.Is(err, tickets.ErrRateLimitExceeded):
		return httputil.WriteError(c, fiber.StatusTooManyRequests, "daily request limit exceeded")
	case errors.Is(err, tickets.ErrPersist):
		return httputil.WriteError(c, fiber.StatusInternalServerError, "ticket could not be stored")
	default:
		return httputil.WriteError(c, fiber.StatusInternalServerError, "triage failed")
	}
}

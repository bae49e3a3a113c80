package admin

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/solutionai/ticket-triage/backend/internal/app"
	"github.com/solutionai/ticket-triage/backend/internal/httpserver/httputil"
	"github.com/solutionai/ticket-triage/backend/internal/store"
	"github.com/solutionai/ticket-triage/backend/internal/timeutil"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 500

	// Ticket text is truncated in listings; the full text stays in the row.
	ticketPreviewChars = 100
)

type adminHandler struct {
	container *app.Container
}

func pageParams(c *fiber.Ctx) (int32, int32) {
	limit := c.QueryInt("limit", defaultPageLimit)
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return int32(limit), int32(offset)
}

func (h *adminHandler) listTickets(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	rows, err := h.container.Tickets.ListAll(c.UserContext(), limit, offset)
	if err != nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to load tickets")
	}

	out := make([]fiber.Map, 0, len(rows))
	for _, t := range rows {
		out = append(out, fiber.Map{
			"id":            t.ID,
			"api_key_id":    t.APIKeyID,
			"text_preview":  truncateText(t.TicketText, ticketPreviewChars),
			"label":         t.Label,
			"confidence":    t.Confidence,
			"summary":       t.Summary,
			"provider":      t.Provider,
			"source":        t.Source,
			"processing_ms": t.ProcessingMS,
			"created_at":    t.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"tickets": out})
}

func (h *adminHandler) listAPIKeys(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	keys, err := h.container.Store.ListAPIKeys(c.UserContext(), limit, offset)
	if err != nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to load api keys")
	}

	out := make([]fiber.Map, 0, len(keys))
	for _, k := range keys {
		out = append(out, apiKeySummary(k))
	}
	return c.JSON(fiber.Map{"api_keys": out})
}

// apiKeySummary omits the secret hash; only the public prefix leaves the
// service.
func apiKeySummary(k store.APIKey) fiber.Map {
	return fiber.Map{
		"id":             k.ID,
		"key_prefix":     k.KeyPrefix,
		"customer_id":    k.CustomerID,
		"name":           k.Name,
		"daily_limit":    k.DailyLimit,
		"requests_today": k.RequestsToday,
		"last_reset":     k.LastReset.Format("2006-01-02"),
		"active":         k.Active,
		"created_at":     k.CreatedAt,
		"revoked_at":     k.RevokedAt,
	}
}

func (h *adminHandler) listWebhookLogs(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	logs, err := h.container.Store.ListWebhookLogs(c.UserContext(), limit, offset)
	if err != nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to load webhook logs")
	}

	out := make([]fiber.Map, 0, len(logs))
	for _, l := range logs {
		out = append(out, fiber.Map{
			"id":         l.ID,
			"provider":   l.Provider,
			"event_type": l.EventType,
			"status":     l.Status,
			"detail":     l.Detail,
			"created_at": l.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"webhook_logs": out})
}

func (h *adminHandler) stats(c *fiber.Ctx) error {
	stats, err := h.container.Tickets.GlobalStats(c.UserContext())
	if err != nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to compute stats")
	}
	return c.JSON(fiber.Map{
		"total_tickets":          stats.Total,
		"average_confidence":     stats.AvgConfidence,
		"average_processing_sec": stats.AvgProcessingMS / 1000.0,
		"label_distribution":     stats.LabelDistribution,
	})
}

func (h *adminHandler) deleteOldTickets(c *fiber.Ctx) error {
	days := c.QueryInt("days", h.container.Config.Retention.TicketDays)
	if days <= 0 {
		return httputil.WriteError(c, fiber.StatusBadRequest, "days must be positive")
	}

	cutoff := timeutil.RetentionCutoff(time.Now(), days, h.container.ReportingLoc())
	deleted, err := h.container.Tickets.DeleteOlderThan(c.UserContext(), cutoff)
	if err != nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to delete tickets")
	}
	prunedLogs, err := h.container.Tickets.PruneWebhookLogs(c.UserContext(), cutoff)
	if err != nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to delete webhook logs")
	}
	return c.JSON(fiber.Map{
		"deleted":              deleted,
		"deleted_webhook_logs": prunedLogs,
		"cutoff":               cutoff,
	})
}

func (h *adminHandler) revokeAPIKey(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid api key id")
	}
	if err := h.container.Store.RevokeAPIKey(c.UserContext(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return httputil.WriteError(c, fiber.StatusNotFound, "api key not found")
		}
		return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to revoke api key")
	}
	return c.JSON(fiber.Map{"revoked": id})
}

func truncateText(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

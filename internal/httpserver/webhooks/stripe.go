package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/solutionai/ticket-triage/backend/internal/app"
	"github.com/solutionai/ticket-triage/backend/internal/auth"
	"github.com/solutionai/ticket-triage/backend/internal/httpserver/httputil"
	"github.com/solutionai/ticket-triage/backend/internal/store"
)

const stripeSignatureHeader = "Stripe-Signature"

type webhookHandler struct {
	container *app.Container
}

// stripe verifies the event signature and provisions an API key when a
// checkout completes. Stripe retries deliveries, so provisioning is
// idempotent per customer.
func (h *webhookHandler) stripe(c *fiber.Ctx) error {
	secret := h.container.Config.Stripe.WebhookSecret
	if secret == "" {
		return httputil.WriteError(c, fiber.StatusNotImplemented, "stripe webhook not configured")
	}

	event, err := webhook.ConstructEvent(c.Body(), c.Get(stripeSignatureHeader), secret)
	if err != nil {
		h.logDelivery(c.UserContext(), "stripe", "", "rejected", "signature verification failed")
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid signature")
	}

	if !h.container.EventDedupe.MarkOnce(c.UserContext(), event.ID) {
		h.logDelivery(c.UserContext(), "stripe", string(event.Type), "duplicate", "event already handled")
		return c.JSON(fiber.Map{"received": true})
	}

	if event.Type != "checkout.session.completed" {
		// Acknowledge unhandled event types so Stripe stops retrying them.
		h.logDelivery(c.UserContext(), "stripe", string(event.Type), "ignored", "")
		return c.JSON(fiber.Map{"received": true})
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		h.logDelivery(c.UserContext(), "stripe", string(event.Type), "error", "malformed checkout session payload")
		return httputil.WriteError(c, fiber.StatusBadRequest, "malformed event payload")
	}

	customerID := customerFromSession(&session)
	if customerID == "" {
		h.logDelivery(c.UserContext(), "stripe", string(event.Type), "error", "checkout session has no customer")
		return httputil.WriteError(c, fiber.StatusBadRequest, "missing customer")
	}

	key, created, err := h.provisionKey(c.UserContext(), customerID, customerName(&session))
	if err != nil {
		h.logDelivery(c.UserContext(), "stripe", string(event.Type), "error", err.Error())
		return httputil.WriteError(c, fiber.StatusInternalServerError, "key provisioning failed")
	}

	status := "duplicate"
	if created {
		status = "processed"
	}
	h.logDelivery(c.UserContext(), "stripe", string(event.Type), status,
		fmt.Sprintf("customer=%s key_prefix=%s", customerID, key.KeyPrefix))

	h.container.Logger.Info("stripe checkout handled",
		slog.String("customer_id", customerID),
		slog.String("key_prefix", key.KeyPrefix),
		slog.Bool("created", created))

	return c.JSON(fiber.Map{"received": true})
}

// provisionKey returns the customer's existing active key, or mints a new
// one. The raw token is never stored; delivery to the customer happens out
// of band through the billing flow.
func (h *webhookHandler) provisionKey(ctx context.Context, customerID, name string) (store.APIKey, bool, error) {
	existing, err := h.container.Store.GetAPIKeyByCustomer(ctx, customerID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.APIKey{}, false, fmt.Errorf("customer key lookup: %w", err)
	}

	prefix, secretPart, _, err := auth.GenerateAPIKey()
	if err != nil {
		return store.APIKey{}, false, fmt.Errorf("generate api key: %w", err)
	}
	hash, err := auth.HashSecret(secretPart)
	if err != nil {
		return store.APIKey{}, false, fmt.Errorf("hash api key secret: %w", err)
	}

	key, err := h.container.Store.CreateAPIKey(ctx, store.CreateAPIKeyParams{
		KeyPrefix:  prefix,
		SecretHash: hash,
		CustomerID: customerID,
		Name:       name,
		DailyLimit: int32(h.container.Config.Quota.DefaultDailyLimit),
	})
	if err != nil {
		return store.APIKey{}, false, fmt.Errorf("create api key: %w", err)
	}
	return key, true, nil
}

func (h *webhookHandler) logDelivery(ctx context.Context, provider, eventType, status, detail string) {
	if err := h.container.Store.InsertWebhookLog(ctx, provider, eventType, status, detail); err != nil {
		h.container.Logger.Error("webhook log insert failed",
			slog.String("provider", provider),
			slog.String("error", err.Error()))
	}
}

func customerFromSession(session *stripe.CheckoutSession) string {
	if session.Customer != nil && session.Customer.ID != "" {
		return session.Customer.ID
	}
	return strings.TrimSpace(session.CustomerEmail)
}

func customerName(session *stripe.CheckoutSession) string {
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		return session.CustomerDetails.Email
	}
	if session.CustomerEmail != "" {
		return session.CustomerEmail
	}
	return "stripe customer"
}

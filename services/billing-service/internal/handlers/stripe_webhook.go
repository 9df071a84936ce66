package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ojalink/ojalink/services/billing-service/internal/storage"
	"github.com/ojalink/ojalink/services/billing-service/internal/subscriptions"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Stripe retries webhooks aggressively; payloads stay small.
const webhookBodyLimit = 1 << 20

// StripeWebhook handles Stripe events. There is no JWT on this path; the
// signature check is the authentication, so the gateway exposes it publicly.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.stripeWebhookSecret == "" {
		http.Error(w, "stripe webhook not configured", http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		http.Error(w, "missing Stripe-Signature header", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	evt, err := webhook.ConstructEventWithTolerance(body, sigHeader, h.stripeWebhookSecret, h.stripeWebhookTolerance)
	if err != nil {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	occurredAt := time.Unix(evt.Created, 0).UTC()
	evtType := string(evt.Type)
	h.logger.Info("billing provider event received",
		"provider", "stripe",
		"provider_event_id", evt.ID,
		"event_type", evtType,
		"occurred_at", occurredAt.Format(time.RFC3339),
	)

	tx, err := h.repo.Begin(r.Context())
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(r.Context()) }()

	// Replayed events are recorded once and then ignored.
	if err := h.repo.InsertProviderEvent(r.Context(), tx, storage.ProviderEvent{
		Provider:        "stripe",
		ProviderEventID: evt.ID,
		EventType:       evtType,
		Payload:         body,
	}); err != nil {
		if errors.Is(err, storage.ErrDuplicateProviderEvent) {
			h.logger.Info("billing provider event duplicate ignored", "provider", "stripe", "provider_event_id", evt.ID, "event_type", evtType)
			writeJSON(w, http.StatusOK, map[string]any{"status": "duplicate"})
			_ = tx.Commit(r.Context())
			return
		}
		http.Error(w, "failed to record provider event", http.StatusInternalServerError)
		return
	}

	if err := h.applyStripeEvent(r.Context(), tx, evtType, evt.Data.Raw, occurredAt); err != nil {
		http.Error(w, "failed to apply event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// applyStripeEvent mutates subscription state for the events we care about.
// Malformed or incomplete payloads are logged and skipped rather than
// failed, so Stripe does not retry events we can never process.
func (h *Handler) applyStripeEvent(ctx context.Context, tx pgx.Tx, evtType string, raw []byte, occurredAt time.Time) error {
	switch evtType {
	case "checkout.session.completed":
		return h.onCheckoutCompleted(ctx, tx, raw, occurredAt)
	case "customer.subscription.created", "customer.subscription.updated":
		return h.onSubscriptionChanged(ctx, tx, raw, occurredAt)
	case "customer.subscription.deleted":
		return h.onSubscriptionDeleted(ctx, tx, raw, occurredAt)
	default:
		return nil
	}
}

func (h *Handler) onCheckoutCompleted(ctx context.Context, tx pgx.Tx, raw []byte, occurredAt time.Time) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		h.logger.Error("stripe: invalid checkout session payload", "err", err)
		return nil
	}
	accountID, tier, err := metadataIdentity(session.Metadata)
	if err != nil {
		h.logger.Warn("stripe: checkout session metadata incomplete", "err", err)
		return nil
	}

	customerID := ""
	if session.Customer != nil {
		customerID = session.Customer.ID
	}
	subscriptionID := ""
	if session.Subscription != nil {
		subscriptionID = session.Subscription.ID
	}
	_ = h.repo.MarkCheckoutSessionCompleted(ctx, tx, session.ID, occurredAt, customerID, subscriptionID)

	return h.subSvc.ApplyActivated(ctx, tx, subscriptions.Activation{
		AccountID:            accountID,
		Tier:                 tier,
		ActivatedAt:          occurredAt,
		Provider:             "stripe",
		StripeCustomerID:     customerID,
		StripeSubscriptionID: subscriptionID,
	})
}

func (h *Handler) onSubscriptionChanged(ctx context.Context, tx pgx.Tx, raw []byte, occurredAt time.Time) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		h.logger.Error("stripe: invalid subscription payload", "err", err)
		return nil
	}
	// Only active and trialing subscriptions grant entitlements.
	if sub.Status != stripe.SubscriptionStatusActive && sub.Status != stripe.SubscriptionStatusTrialing {
		return nil
	}
	accountID, tier, err := metadataIdentity(sub.Metadata)
	if err != nil {
		h.logger.Warn("stripe: subscription metadata incomplete", "err", err)
		return nil
	}

	start, end := periodBounds(sub)
	return h.subSvc.ApplyActivated(ctx, tx, subscriptions.Activation{
		AccountID:            accountID,
		Tier:                 tier,
		ActivatedAt:          occurredAt,
		Provider:             "stripe",
		StripeCustomerID:     stripeCustomerID(sub.Customer),
		StripeSubscriptionID: sub.ID,
		PeriodStart:          start,
		PeriodEnd:            end,
	})
}

func (h *Handler) onSubscriptionDeleted(ctx context.Context, tx pgx.Tx, raw []byte, occurredAt time.Time) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		h.logger.Error("stripe: invalid subscription payload", "err", err)
		return nil
	}
	accountID := strings.TrimSpace(sub.Metadata["account_id"])
	if accountID == "" {
		h.logger.Warn("stripe: subscription metadata missing account_id")
		return nil
	}

	start, end := periodBounds(sub)
	return h.subSvc.ApplyCanceled(ctx, tx, subscriptions.Cancellation{
		AccountID:            accountID,
		CanceledAt:           occurredAt,
		Provider:             "stripe",
		StripeCustomerID:     stripeCustomerID(sub.Customer),
		StripeSubscriptionID: sub.ID,
		PeriodStart:          start,
		PeriodEnd:            end,
	})
}

func metadataIdentity(md map[string]string) (accountID, tier string, err error) {
	accountID = strings.TrimSpace(md["account_id"])
	tier = strings.TrimSpace(strings.ToLower(md["tier"]))
	if accountID == "" || tier == "" {
		return "", "", fmt.Errorf("missing account_id or tier metadata")
	}
	return accountID, tier, nil
}

func stripeCustomerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func periodBounds(sub stripe.Subscription) (*time.Time, *time.Time) {
	var start, end *time.Time
	if sub.CurrentPeriodStart > 0 {
		t := time.Unix(sub.CurrentPeriodStart, 0).UTC()
		start = &t
	}
	if sub.CurrentPeriodEnd > 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		end = &t
	}
	return start, end
}

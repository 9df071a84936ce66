package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ojalink/ojalink/libs/outbox"
	"github.com/ojalink/ojalink/services/billing-service/internal/entitlements"
	"github.com/ojalink/ojalink/services/billing-service/internal/storage"
	"github.com/ojalink/ojalink/services/billing-service/internal/subscriptions"
	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
)

type Handler struct {
	repo                   *storage.Repository
	outboxRepo             *outbox.Repository
	subSvc                 *subscriptions.Service
	logger                 *slog.Logger
	stripeWebhookSecret    string
	stripeWebhookTolerance time.Duration
	stripeSecretKey        string
	stripePriceStarter     string
	stripePricePro         string
	checkoutSuccessURL     string
	checkoutCancelURL      string
}

type Config struct {
	StripeWebhookSecret           string
	StripeWebhookToleranceSeconds int
	StripeSecretKey               string
	StripePriceStarter            string
	StripePricePro                string
	CheckoutSuccessURL            string
	CheckoutCancelURL             string
}

func New(repo *storage.Repository, outboxRepo *outbox.Repository, logger *slog.Logger, cfg Config) *Handler {
	tolSeconds := cfg.StripeWebhookToleranceSeconds
	if tolSeconds <= 0 {
		tolSeconds = 300
	}
	return &Handler{
		repo:                   repo,
		outboxRepo:             outboxRepo,
		subSvc:                 subscriptions.New(repo, outboxRepo),
		logger:                 logger,
		stripeWebhookSecret:    strings.TrimSpace(cfg.StripeWebhookSecret),
		stripeWebhookTolerance: time.Duration(tolSeconds) * time.Second,
		stripeSecretKey:        strings.TrimSpace(cfg.StripeSecretKey),
		stripePriceStarter:     strings.TrimSpace(cfg.StripePriceStarter),
		stripePricePro:         strings.TrimSpace(cfg.StripePricePro),
		checkoutSuccessURL:     strings.TrimSpace(cfg.CheckoutSuccessURL),
		checkoutCancelURL:      strings.TrimSpace(cfg.CheckoutCancelURL),
	}
}

func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	accountID := requestAccountID(r)
	if accountID == "" {
		http.Error(w, "account_id required", http.StatusBadRequest)
		return
	}

	sub, err := h.repo.GetSubscription(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Not found -> return free defaults (better DX).
			writeJSON(w, http.StatusOK, map[string]any{
				"account_id":   accountID,
				"tier":         "free",
				"status":       "none",
				"entitlements": entitlements.LimitsForTier("free"),
			})
			return
		}
		http.Error(w, "failed to load subscription", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"account_id":   accountID,
		"tier":         sub.Tier,
		"status":       sub.Status,
		"updated_at":   sub.UpdatedAt.UTC().Format(time.RFC3339),
		"entitlements": entitlements.LimitsForTier(sub.Tier),
	})
}

type checkoutRequest struct {
	Tier       string `json:"tier"`
	SuccessURL string `json:"success_url,omitempty"`
	CancelURL  string `json:"cancel_url,omitempty"`
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.stripeSecretKey == "" {
		http.Error(w, "stripe checkout not configured (STRIPE_SECRET_KEY missing)", http.StatusNotImplemented)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	tier := strings.TrimSpace(strings.ToLower(req.Tier))
	if tier == "" {
		http.Error(w, "tier is required", http.StatusBadRequest)
		return
	}

	accountID := strings.TrimSpace(r.Header.Get("X-Account-Id"))
	if accountID == "" {
		http.Error(w, "missing account context", http.StatusBadRequest)
		return
	}

	priceID, ok := h.priceForTier(tier)
	if !ok {
		http.Error(w, "unsupported tier", http.StatusBadRequest)
		return
	}
	if priceID == "" {
		http.Error(w, "stripe price id not configured for tier", http.StatusNotImplemented)
		return
	}

	successURL, cancelURL := h.returnURLs(req)
	if successURL == "" || cancelURL == "" {
		http.Error(w, "success_url and cancel_url are required (or configure default URLs)", http.StatusBadRequest)
		return
	}

	// Stripe uses a global API key. Keep usage limited to this handler call.
	stripe.Key = h.stripeSecretKey

	params := checkoutParams(accountID, tier, priceID, successURL, cancelURL)
	// Stripe-level idempotency allows safe retries.
	if idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key")); idemKey != "" {
		params.IdempotencyKey = stripe.String(idemKey)
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		h.logger.Error("stripe checkout session create failed", "err", err)
		http.Error(w, "failed to create checkout session", http.StatusBadGateway)
		return
	}

	tx, err := h.repo.Begin(r.Context())
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(r.Context()) }()
	if err := h.repo.UpsertCheckoutSession(r.Context(), tx, storage.CheckoutSession{
		StripeSessionID: sess.ID,
		AccountID:       accountID,
		Tier:            tier,
		Status:          "created",
		URL:             sess.URL,
	}); err != nil {
		http.Error(w, "failed to persist checkout session", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(r.Context()); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"url":        sess.URL,
	})
}

func (h *Handler) priceForTier(tier string) (string, bool) {
	switch tier {
	case "starter":
		return h.stripePriceStarter, true
	case "pro":
		return h.stripePricePro, true
	default:
		return "", false
	}
}

// returnURLs resolves per-request override URLs, falling back to the
// configured defaults.
func (h *Handler) returnURLs(req checkoutRequest) (successURL, cancelURL string) {
	successURL = strings.TrimSpace(req.SuccessURL)
	if successURL == "" {
		successURL = h.checkoutSuccessURL
	}
	cancelURL = strings.TrimSpace(req.CancelURL)
	if cancelURL == "" {
		cancelURL = h.checkoutCancelURL
	}
	return successURL, cancelURL
}

func checkoutParams(accountID, tier, priceID, successURL, cancelURL string) *stripe.CheckoutSessionParams {
	// Metadata rides on both the session and the subscription so every
	// later webhook can be tied back to the account.
	md := map[string]string{
		"account_id": accountID,
		"tier":       tier,
	}
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		ClientReferenceID: stripe.String(accountID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: md,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: md,
		},
	}
	params.AddExpand("url")
	return params
}

// CheckoutSessionStatus is intentionally public: Stripe redirects the customer
// without a JWT. It returns non-sensitive state only.
func (h *Handler) CheckoutSessionStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	sess, err := h.repo.GetCheckoutSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"session_id": sess.StripeSessionID,
		"tier":       sess.Tier,
		"status":     sess.Status,
		"updated_at": sess.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if sess.CompletedAt != nil {
		resp["completed_at"] = sess.CompletedAt.UTC().Format(time.RFC3339)
	}
	if sess.CanceledAt != nil {
		resp["canceled_at"] = sess.CanceledAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

type checkoutAckRequest struct {
	SessionID string `json:"session_id"`
	Result    string `json:"result"` // success | cancel
}

// AckCheckoutReturn records the customer landing back from Stripe. A cancel
// return closes a still-open session; the webhook remains authoritative for
// completion.
func (h *Handler) AckCheckoutReturn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req checkoutAckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Result = strings.TrimSpace(strings.ToLower(req.Result))
	if req.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	if req.Result != "success" && req.Result != "cancel" {
		http.Error(w, "invalid result", http.StatusBadRequest)
		return
	}

	if req.Result == "cancel" {
		tx, err := h.repo.Begin(r.Context())
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		defer func() { _ = tx.Rollback(r.Context()) }()

		if err := h.repo.MarkCheckoutSessionCanceled(r.Context(), tx, req.SessionID, time.Now().UTC()); err != nil {
			http.Error(w, "failed to record return", http.StatusInternalServerError)
			return
		}
		if err := tx.Commit(r.Context()); err != nil {
			http.Error(w, "failed to commit", http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

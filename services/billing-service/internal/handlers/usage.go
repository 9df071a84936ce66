package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ojalink/ojalink/libs/outbox"
	"github.com/ojalink/ojalink/services/billing-service/internal/gate"
)

// UsageHandler exposes the freemium gate over HTTP: reading the current
// period, deriving the access state, and the consume-or-refuse decision for
// metered actions.
type UsageHandler struct {
	gate   *gate.Gate
	logger *slog.Logger
}

func NewUsageHandler(g *gate.Gate, logger *slog.Logger) *UsageHandler {
	return &UsageHandler{gate: g, logger: logger}
}

type usageResponse struct {
	Count      int    `json:"count"`
	ResetMonth string `json:"reset_month"`
	Limit      int    `json:"limit"`
	Remaining  int    `json:"remaining"`
}

// Usage returns the current usage period after the lazy monthly reset. The
// read never writes; a stale record simply reads as a fresh period.
func (h *UsageHandler) Usage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	accountID := requestAccountID(r)
	if accountID == "" {
		http.Error(w, "account_id required", http.StatusBadRequest)
		return
	}

	usage, err := h.gate.CurrentUsage(r.Context(), accountID)
	if err != nil {
		http.Error(w, "failed to load usage", http.StatusInternalServerError)
		return
	}
	remaining, err := h.gate.Remaining(r.Context(), accountID)
	if err != nil {
		http.Error(w, "failed to derive remaining quota", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, usageResponse{
		Count:      usage.Count,
		ResetMonth: usage.ResetMonth,
		Limit:      gate.FreeLimit,
		Remaining:  remaining,
	})
}

type accessResponse struct {
	State      string     `json:"state"`
	FullAccess bool       `json:"full_access"`
	Trial      gate.Trial `json:"trial"`
}

// Access reports the derived access mode and trial window.
func (h *UsageHandler) Access(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	accountID := requestAccountID(r)
	if accountID == "" {
		http.Error(w, "account_id required", http.StatusBadRequest)
		return
	}

	state, err := h.gate.State(r.Context(), accountID)
	if err != nil {
		http.Error(w, "failed to derive access state", http.StatusInternalServerError)
		return
	}
	full, err := h.gate.HasFullAccess(r.Context(), accountID)
	if err != nil {
		http.Error(w, "failed to derive access state", http.StatusInternalServerError)
		return
	}
	trial, err := h.gate.TrialStatus(r.Context(), accountID)
	if err != nil {
		http.Error(w, "failed to derive trial state", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, accessResponse{
		State:      state,
		FullAccess: full,
		Trial:      trial,
	})
}

type consumeRequest struct {
	Feature string `json:"feature"`
}

type consumeResponse struct {
	Allowed         bool `json:"allowed"`
	Metered         bool `json:"metered"`
	Remaining       int  `json:"remaining"`
	UpgradeRequired bool `json:"upgrade_required,omitempty"`
}

// Consume authorizes one action against the gate. Free-listed features pass
// through without metering; otherwise the gate performs its atomic
// check-and-increment. A refusal is a 200 with allowed=false and the upgrade
// flag set, not an error status.
func (h *UsageHandler) Consume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	accountID := requestAccountID(r)
	if accountID == "" {
		http.Error(w, "account_id required", http.StatusBadRequest)
		return
	}

	var req consumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	feature := strings.TrimSpace(req.Feature)
	if feature == "" {
		http.Error(w, "feature required", http.StatusBadRequest)
		return
	}

	if gate.IsFreeFeature(feature) {
		remaining, err := h.gate.Remaining(r.Context(), accountID)
		if err != nil {
			http.Error(w, "failed to derive remaining quota", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, consumeResponse{Allowed: true, Metered: false, Remaining: remaining})
		return
	}

	allowed, err := h.gate.TryConsume(r.Context(), accountID)
	if err != nil {
		http.Error(w, "failed to consume quota", http.StatusInternalServerError)
		return
	}
	remaining, err := h.gate.Remaining(r.Context(), accountID)
	if err != nil {
		http.Error(w, "failed to derive remaining quota", http.StatusInternalServerError)
		return
	}

	resp := consumeResponse{Allowed: allowed, Metered: true, Remaining: remaining}
	if !allowed {
		resp.UpgradeRequired = true
	}
	writeJSON(w, http.StatusOK, resp)
}

// LimitNotifier is wired as the gate's limit signal: it records an
// upgrade-prompt event for downstream consumers. Best effort; a failure here
// never blocks the refusal response.
type LimitNotifier struct {
	outboxRepo *outbox.Repository
	beginner   txBeginner
	logger     *slog.Logger
}

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

func NewLimitNotifier(outboxRepo *outbox.Repository, beginner txBeginner, logger *slog.Logger) *LimitNotifier {
	return &LimitNotifier{outboxRepo: outboxRepo, beginner: beginner, logger: logger}
}

func (n *LimitNotifier) PublishLimitReached(ctx context.Context, accountID string) {
	payload, err := json.Marshal(map[string]any{
		"account_id":  accountID,
		"occurred_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}

	tx, err := n.beginner.Begin(ctx)
	if err != nil {
		n.logger.Error("limit signal tx begin failed", "err", err)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := n.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "usage_period",
		AggregateID:   accountID,
		EventType:     "billing.usage.limit_reached.v1",
		Payload:       payload,
	}); err != nil {
		n.logger.Error("limit signal outbox insert failed", "err", err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		n.logger.Error("limit signal commit failed", "err", err)
	}
}

func requestAccountID(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get("X-Account-Id"))
	if id == "" {
		id = strings.TrimSpace(r.URL.Query().Get("account_id"))
	}
	return id
}

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ojalink/ojalink/services/billing-service/internal/gate"
)

type staticProfiles struct {
	registeredAt time.Time
	known        bool
}

func (s staticProfiles) RegisteredAt(ctx context.Context, accountID string) (time.Time, bool, error) {
	return s.registeredAt, s.known, nil
}

func (s staticProfiles) HasActiveSubscription(ctx context.Context, accountID string) (bool, error) {
	return false, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// newMeteredHandler builds a handler whose account is past its trial, so
// every metered consume draws down the free quota.
func newMeteredHandler(now time.Time) *UsageHandler {
	g := gate.New(
		gate.NewMemStore(),
		staticProfiles{registeredAt: now.AddDate(0, 0, -30), known: true},
		gate.WithClock(func() time.Time { return now }),
	)
	return NewUsageHandler(g, discardLogger())
}

func TestConsume_LimitRoundTripOverHTTP(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	h := newMeteredHandler(now)

	doConsume := func() consumeResponse {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/consume", strings.NewReader(`{"feature":"marketing-copy"}`))
		req.Header.Set("X-Account-Id", "acc-1")
		rec := httptest.NewRecorder()
		h.Consume(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp consumeResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response: %v", err)
		}
		return resp
	}

	for i := 1; i <= 5; i++ {
		resp := doConsume()
		if !resp.Allowed || !resp.Metered {
			t.Fatalf("consume %d: expected allowed metered, got %+v", i, resp)
		}
		if resp.Remaining != 5-i {
			t.Fatalf("consume %d: expected remaining %d, got %d", i, 5-i, resp.Remaining)
		}
	}

	resp := doConsume()
	if resp.Allowed {
		t.Fatalf("expected refusal past the limit")
	}
	if !resp.UpgradeRequired {
		t.Fatalf("expected upgrade_required on refusal")
	}
	if resp.Remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", resp.Remaining)
	}
}

func TestConsume_FreeFeatureBypassesMetering(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	h := newMeteredHandler(now)

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/consume", strings.NewReader(`{"feature":"notes"}`))
		req.Header.Set("X-Account-Id", "acc-1")
		rec := httptest.NewRecorder()
		h.Consume(rec, req)

		var resp consumeResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response: %v", err)
		}
		if !resp.Allowed || resp.Metered {
			t.Fatalf("expected unmetered allow, got %+v", resp)
		}
		if resp.Remaining != 5 {
			t.Fatalf("free feature must not draw down quota, remaining %d", resp.Remaining)
		}
	}
}

func TestUsage_ReportsCurrentPeriod(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	h := newMeteredHandler(now)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/consume", strings.NewReader(`{"feature":"marketing-copy"}`))
	req.Header.Set("X-Account-Id", "acc-1")
	h.Consume(httptest.NewRecorder(), req)

	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/billing/usage", nil)
	getReq.Header.Set("X-Account-Id", "acc-1")
	rec := httptest.NewRecorder()
	h.Usage(rec, getReq)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp usageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Count != 1 || resp.ResetMonth != "2026-08" || resp.Remaining != 4 || resp.Limit != 5 {
		t.Fatalf("unexpected usage: %+v", resp)
	}
}

func TestConsume_RequiresFeatureAndAccount(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	h := newMeteredHandler(now)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/consume", strings.NewReader(`{}`))
	req.Header.Set("X-Account-Id", "acc-1")
	rec := httptest.NewRecorder()
	h.Consume(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing feature, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/billing/consume", strings.NewReader(`{"feature":"marketing-copy"}`))
	rec = httptest.NewRecorder()
	h.Consume(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing account, got %d", rec.Code)
	}
}

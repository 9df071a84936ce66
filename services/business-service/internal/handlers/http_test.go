package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlers_RequireAccountHeader(t *testing.T) {
	h := New(nil)

	calls := []struct {
		name string
		fn   http.HandlerFunc
		req  *http.Request
	}{
		{"create note", h.CreateNote, httptest.NewRequest(http.MethodPost, "/api/v1/business/notes", strings.NewReader(`{"title":"t"}`))},
		{"list notes", h.ListNotes, httptest.NewRequest(http.MethodGet, "/api/v1/business/notes", nil)},
		{"list inventory", h.ListInventoryItems, httptest.NewRequest(http.MethodGet, "/api/v1/business/inventory", nil)},
		{"budget summary", h.BudgetSummary, httptest.NewRequest(http.MethodGet, "/api/v1/business/budget/summary?month=2026-08", nil)},
	}
	for _, c := range calls {
		rec := httptest.NewRecorder()
		c.fn(rec, c.req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 without X-Account-Id, got %d", c.name, rec.Code)
		}
	}
}

func TestCreateSaleEntry_Validation(t *testing.T) {
	h := New(nil)

	cases := []struct {
		name string
		body string
	}{
		{"bad kind", `{"kind":"transfer","amount_kobo":100,"category":"sales","entry_date":"2026-08-28"}`},
		{"zero amount", `{"kind":"income","amount_kobo":0,"category":"sales","entry_date":"2026-08-28"}`},
		{"negative amount", `{"kind":"expense","amount_kobo":-50,"category":"stock","entry_date":"2026-08-28"}`},
		{"missing category", `{"kind":"income","amount_kobo":100,"entry_date":"2026-08-28"}`},
		{"bad date", `{"kind":"income","amount_kobo":100,"category":"sales","entry_date":"28/08/2026"}`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/business/sales", strings.NewReader(tc.body))
		req.Header.Set("X-Account-Id", "acc-1")
		rec := httptest.NewRecorder()
		h.CreateSaleEntry(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

func TestBudgetSummary_RejectsBadMonth(t *testing.T) {
	h := New(nil)

	for _, month := range []string{"", "2026", "2026-13", "08-2026", "2026-8"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/business/budget/summary?month="+month, nil)
		req.Header.Set("X-Account-Id", "acc-1")
		rec := httptest.NewRecorder()
		h.BudgetSummary(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("month %q: expected 400, got %d", month, rec.Code)
		}
	}
}

func TestAdjustInventory_RejectsZeroDelta(t *testing.T) {
	h := New(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/business/inventory/adjust", strings.NewReader(`{"id":"item-1","delta":0}`))
	req.Header.Set("X-Account-Id", "acc-1")
	rec := httptest.NewRecorder()
	h.AdjustInventory(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero delta, got %d", rec.Code)
	}
}

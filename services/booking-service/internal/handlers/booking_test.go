package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestHandler() *BookingHandler {
	logger := slog.New(slog.NewTextHandler(testWriter{}, nil))
	return NewBookingHandler(nil, nil, logger)
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestCreate_RejectsInvalidFields(t *testing.T) {
	h := newTestHandler()

	body := `{"account_id":"acc-1","name":"A","email":"bad","phone":"12345","service":"laundry","date":"nope","time":""}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/book", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	for _, field := range []string{"name", "email", "phone", "service", "time", "date"} {
		if resp.Errors[field] == "" {
			t.Fatalf("expected error for field %q, got %v", field, resp.Errors)
		}
	}
}

func TestCreate_RequiresAccountID(t *testing.T) {
	h := newTestHandler()

	body := `{"name":"Adaeze Obi","email":"adaeze@example.com","service":"consultation","date":"2026-08-28","time":"9:00 AM"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/book", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreate_MethodNotAllowed(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/book", nil)
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestServices_ReturnsCatalog(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/services", nil)
	rec := httptest.NewRecorder()
	h.Services(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var items []struct {
		Code     string `json:"code"`
		Label    string `json:"label"`
		Duration string `json:"duration"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(items) == 0 {
		t.Fatalf("expected non-empty catalog")
	}
	if items[0].Code != "consultation" {
		t.Fatalf("expected insertion order preserved, got first code %q", items[0].Code)
	}
}

func TestCancel_RequiresIDs(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/cancel", strings.NewReader(`{"account_id":"acc-1"}`))
	rec := httptest.NewRecorder()
	h.Cancel(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

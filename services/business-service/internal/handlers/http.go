package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ojalink/ojalink/services/business-service/internal/storage"
)

type Handler struct {
	repo *storage.Repository
}

func New(repo *storage.Repository) *Handler {
	return &Handler{repo: repo}
}

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func accountIDFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Account-Id"))
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromHeader(r)
	if accountID == "" {
		http.Error(w, "missing X-Account-Id", http.StatusBadRequest)
		return
	}

	p, err := h.repo.GetOrCreateProfile(r.Context(), accountID)
	if err != nil {
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromHeader(r)
	if accountID == "" {
		http.Error(w, "missing X-Account-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		BusinessName string `json:"business_name"`
		Currency     string `json:"currency"`
		Timezone     string `json:"timezone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.BusinessName = strings.TrimSpace(req.BusinessName)
	req.Currency = strings.TrimSpace(strings.ToUpper(req.Currency))
	req.Timezone = strings.TrimSpace(req.Timezone)
	if req.Currency == "" {
		req.Currency = "NGN"
	}
	if req.Timezone == "" {
		req.Timezone = "Africa/Lagos"
	}

	if err := h.repo.UpdateProfile(r.Context(), accountID, req.BusinessName, req.Currency, req.Timezone); err != nil {
		http.Error(w, "failed to update profile", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromHeader(r)
	if accountID == "" {
		http.Error(w, "missing X-Account-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	id, err := h.repo.CreateNote(r.Context(), accountID, req.Title, req.Body)
	if err != nil {
		http.Error(w, "failed to create note", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromHeader(r)
	if accountID == "" {
		http.Error(w, "missing X-Account-Id", http.StatusBadRequest)
		return
	}

	notes, err := h.repo.ListNotes(r.Context(), accountID, 100)
	if err != nil {
		http.Error(w, "failed to list notes", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromHeader(r)
	if accountID == "" {
		http.Error(w, "missing X-Account-Id", http.StatusBadRequest)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	if err := h.repo.UpdateNote(r.Context(), accountID, id, req.Title, req.Body); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "note not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update note", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromHeader(r)
	if accountID == "" {
		http.Error(w, "missing X-Account-Id", http.StatusBadRequest)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	if err := h.repo.DeleteNote(r.Context(), accountID, id); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "note not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete note", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateInventoryItem(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromHeader(r)
	if accountID == "" {
		http.Error(w, "missing X-Account-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		Name              string `json:"name"`
		Quantity          int    `json:"quantity"`
		UnitCostKobo      int64  `json:"unit_cost_kobo"`
		LowStockThreshold int    `json:"low_stock_threshold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if req.Quantity < 0 || req.UnitCostKobo < 0 || req.LowStockThreshold < 0 {
		http.Error(w, "quantity, unit_cost_kobo and low_stock_threshold must be non-negative", http.StatusBadRequest)
		return
	}

	id, err := h.repo.CreateInventoryItem(r.Context(), accountID, req.Name, req.Quantity, req.UnitCostKobo, req.LowStockThreshold)
	if err != nil {
		http.Error(w, "failed to create inventory item", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *Handler) ListInventoryItems(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromHeader(r)
	if accountID == "" {
		http.Error(w, "missing X-Account-Id", http.StatusBadRequest)
		return
	}

	items, err := h.repo.ListInventoryItems(r.Context(), accountID, 100)
	if err != nil {
		http.Error(w, "failed to list inventory", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) AdjustInventory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	accountID := accountIDFromHeader(r)
	if accountID == "" {
		http.Error(w, "missing X-Account-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		ID    string `json:"id"`
		Delta int    `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" || req.Delta == 0 {
		http.Error(w, "id and a non-zero delta required", http.StatusBadRequest)
		return
	}

	quantity, err := h.repo.AdjustInventoryQuantity(r.Context(), accountID, req.ID, req.Delta)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "inventory item not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to adjust inventory", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": req.ID, "quantity": quantity})
}

func (h *Handler) DeleteInventoryItem(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromHeader(r)
	if accountID == "" {
		http.Error(w, "missing X-Account-Id", http.StatusBadRequest)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	if err := h.repo.DeleteInventoryItem(r.Context(), accountID, id); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "inventory item not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete inventory item", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateSaleEntry(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromHeader(r)
	if accountID == "" {
		http.Error(w, "missing X-Account-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		Kind       string `json:"kind"`
		AmountKobo int64  `json:"amount_kobo"`
		Category   string `json:"category"`
		EntryDate  string `json:"entry_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Kind = strings.TrimSpace(strings.ToLower(req.Kind))
	req.Category = strings.TrimSpace(req.Category)
	if req.Kind != "income" && req.Kind != "expense" {
		http.Error(w, "kind must be income or expense", http.StatusBadRequest)
		return
	}
	if req.AmountKobo <= 0 {
		http.Error(w, "amount_kobo must be positive", http.StatusBadRequest)
		return
	}
	if req.Category == "" {
		http.Error(w, "category is required", http.StatusBadRequest)
		return
	}
	entryDate, err := time.Parse("2006-01-02", strings.TrimSpace(req.EntryDate))
	if err != nil {
		http.Error(w, "entry_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	id, err := h.repo.CreateSaleEntry(r.Context(), accountID, req.Kind, req.AmountKobo, req.Category, entryDate)
	if err != nil {
		http.Error(w, "failed to create sale entry", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *Handler) ListSaleEntries(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromHeader(r)
	if accountID == "" {
		http.Error(w, "missing X-Account-Id", http.StatusBadRequest)
		return
	}

	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month != "" && !monthPattern.MatchString(month) {
		http.Error(w, "month must be YYYY-MM", http.StatusBadRequest)
		return
	}

	entries, err := h.repo.ListSaleEntries(r.Context(), accountID, month, 200)
	if err != nil {
		http.Error(w, "failed to list sale entries", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// BudgetSummary totals income and expense entries for one calendar month.
func (h *Handler) BudgetSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	accountID := accountIDFromHeader(r)
	if accountID == "" {
		http.Error(w, "missing X-Account-Id", http.StatusBadRequest)
		return
	}

	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if !monthPattern.MatchString(month) {
		http.Error(w, "month must be YYYY-MM", http.StatusBadRequest)
		return
	}

	summary, err := h.repo.BudgetSummaryForMonth(r.Context(), accountID, month)
	if err != nil {
		http.Error(w, "failed to build budget summary", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

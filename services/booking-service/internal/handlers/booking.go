package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ojalink/ojalink/libs/outbox"
	"github.com/ojalink/ojalink/services/booking-service/internal/model"
	"github.com/ojalink/ojalink/services/booking-service/internal/queue"
	"github.com/ojalink/ojalink/services/booking-service/internal/storage"
)

type BookingHandler struct {
	repo       *storage.AppointmentRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
	now        func() time.Time
}

func NewBookingHandler(repo *storage.AppointmentRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type createBookingRequest struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Service   string `json:"service"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

type createBookingResponse struct {
	AppointmentID        string `json:"appointment_id"`
	QueuePosition        int    `json:"queue_position"`
	EstimatedWaitMinutes int    `json:"estimated_wait_minutes"`
	Status               string `json:"status"`
}

type cancelBookingRequest struct {
	AccountID     string `json:"account_id"`
	AppointmentID string `json:"appointment_id"`
}

type appointmentItem struct {
	AppointmentID        string `json:"appointment_id"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Phone                string `json:"phone,omitempty"`
	Service              string `json:"service"`
	Date                 string `json:"date"`
	Time                 string `json:"time"`
	Status               string `json:"status"`
	QueuePosition        int    `json:"queue_position"`
	EstimatedWaitMinutes int    `json:"estimated_wait_minutes"`
	CancelledAt          string `json:"cancelled_at,omitempty"`
	CreatedAt            string `json:"created_at"`
}

type rescheduleDraft struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Service string `json:"service"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

type rescheduleResponse struct {
	AppointmentID string          `json:"appointment_id"`
	Status        string          `json:"status"`
	Draft         rescheduleDraft `json:"draft"`
}

// Services lists the fixed bookable-service catalog in display order.
func (h *BookingHandler) Services(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, queue.Catalog)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.AccountID = strings.TrimSpace(req.AccountID)
	if req.AccountID == "" {
		http.Error(w, "account_id required", http.StatusBadRequest)
		return
	}

	in, fieldErrs := queue.Validate(queue.BookingInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Service: req.Service,
		Time:    req.Time,
	})
	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.Date), time.UTC)
	if err != nil {
		fieldErrs["date"] = "a valid date (YYYY-MM-DD) is required"
	}
	if len(fieldErrs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": fieldErrs})
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Creation is not naturally idempotent: each success appends a record and
	// advances the queue snapshot, so retries over an unreliable transport
	// must be deduplicated by key.
	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey != "" {
		rec, exists, err := h.repo.LockIdempotencyKey(ctx, tx, req.AccountID, idempotencyKey)
		if err != nil {
			http.Error(w, "failed to lock idempotency key", http.StatusInternalServerError)
			return
		}
		if exists && rec.StatusCode > 0 && len(rec.ResponsePayload) > 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(rec.StatusCode)
			_, _ = w.Write(rec.ResponsePayload)
			return
		}
	}

	appt := &model.Appointment{
		AccountID: req.AccountID,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Service:   in.Service,
		Date:      date,
		TimeSlot:  in.Time,
	}

	id, err := h.repo.Create(ctx, tx, appt)
	if err != nil {
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(map[string]any{
		"appointment_id":         id,
		"account_id":             appt.AccountID,
		"service":                appt.Service,
		"date":                   appt.Date.Format("2006-01-02"),
		"time_slot":              appt.TimeSlot,
		"queue_position":         appt.QueuePosition,
		"estimated_wait_minutes": appt.EstimatedWait,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   id,
		EventType:     "booking.appointment.booked.v1",
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	respBody, err := json.Marshal(createBookingResponse{
		AppointmentID:        id,
		QueuePosition:        appt.QueuePosition,
		EstimatedWaitMinutes: appt.EstimatedWait,
		Status:               appt.Status,
	})
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	if idempotencyKey != "" {
		if err := h.repo.FinalizeIdempotency(ctx, tx, req.AccountID, idempotencyKey, id, http.StatusCreated, respBody); err != nil {
			http.Error(w, "failed to finalize idempotency key", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(respBody)
}

// Cancel marks an appointment cancelled. Unknown or already-cancelled ids
// return the same success response, so the operation is idempotent.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AccountID = strings.TrimSpace(req.AccountID)
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AccountID == "" || req.AppointmentID == "" {
		http.Error(w, "account_id and appointment_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	transitioned, err := h.repo.Cancel(ctx, tx, req.AccountID, req.AppointmentID)
	if err != nil {
		http.Error(w, "failed to cancel appointment", http.StatusInternalServerError)
		return
	}
	if transitioned {
		if err := h.insertCancelledEvent(r, tx, req.AccountID, req.AppointmentID); err != nil {
			http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"appointment_id": req.AppointmentID,
		"status":         queue.StatusCancelled,
	})
}

// Reschedule cancels the original appointment and returns a prefilled draft
// for resubmission through Create. The cancelled original stays in history;
// a replacement record only appears when the caller submits the draft.
func (h *BookingHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AccountID = strings.TrimSpace(req.AccountID)
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AccountID == "" || req.AppointmentID == "" {
		http.Error(w, "account_id and appointment_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.Get(ctx, tx, req.AccountID, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	transitioned, err := h.repo.Cancel(ctx, tx, req.AccountID, req.AppointmentID)
	if err != nil {
		http.Error(w, "failed to cancel appointment", http.StatusInternalServerError)
		return
	}
	if transitioned {
		if err := h.insertCancelledEvent(r, tx, req.AccountID, req.AppointmentID); err != nil {
			http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	today := h.now()
	writeJSON(w, http.StatusOK, rescheduleResponse{
		AppointmentID: appt.ID,
		Status:        queue.StatusCancelled,
		Draft: rescheduleDraft{
			Name:    appt.Name,
			Email:   appt.Email,
			Phone:   appt.Phone,
			Service: appt.Service,
			Date:    today.Format("2006-01-02"),
			Time:    "",
		},
	})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	accountID := requestAccountID(r)
	if accountID == "" {
		http.Error(w, "account_id required", http.StatusBadRequest)
		return
	}

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	appts, err := h.repo.ListByAccount(r.Context(), accountID, limit)
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, appt := range appts {
		item := appointmentItem{
			AppointmentID:        appt.ID,
			Name:                 appt.Name,
			Email:                appt.Email,
			Phone:                appt.Phone,
			Service:              appt.Service,
			Date:                 appt.Date.Format("2006-01-02"),
			Time:                 appt.TimeSlot,
			Status:               appt.Status,
			QueuePosition:        appt.QueuePosition,
			EstimatedWaitMinutes: appt.EstimatedWait,
			CreatedAt:            appt.CreatedAt.UTC().Format(time.RFC3339),
		}
		if appt.CancelledAt != nil {
			item.CancelledAt = appt.CancelledAt.UTC().Format(time.RFC3339)
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, items)
}

// TodayStats aggregates the current day's queue for the dashboard.
func (h *BookingHandler) TodayStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	accountID := requestAccountID(r)
	if accountID == "" {
		http.Error(w, "account_id required", http.StatusBadRequest)
		return
	}

	today := h.now()
	date := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	appts, err := h.repo.ListByAccountOnDate(r.Context(), accountID, date)
	if err != nil {
		http.Error(w, "failed to load appointments", http.StatusInternalServerError)
		return
	}

	kernel := make([]queue.Appointment, 0, len(appts))
	for _, a := range appts {
		kernel = append(kernel, queue.Appointment{
			Date:          a.Date,
			Status:        a.Status,
			EstimatedWait: a.EstimatedWait,
		})
	}
	writeJSON(w, http.StatusOK, queue.ComputeTodayStats(kernel, date))
}

func (h *BookingHandler) insertCancelledEvent(r *http.Request, tx pgx.Tx, accountID, appointmentID string) error {
	payload, err := json.Marshal(map[string]any{
		"appointment_id": appointmentID,
		"account_id":     accountID,
		"cancelled_at":   h.now().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return h.outboxRepo.Insert(r.Context(), tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appointmentID,
		EventType:     "booking.appointment.cancelled.v1",
		Payload:       payload,
	})
}

func requestAccountID(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get("X-Account-Id"))
	if id == "" {
		id = strings.TrimSpace(r.URL.Query().Get("account_id"))
	}
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

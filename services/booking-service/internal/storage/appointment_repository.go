package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ojalink/ojalink/libs/db"
	"github.com/ojalink/ojalink/services/booking-service/internal/model"
	"github.com/ojalink/ojalink/services/booking-service/internal/queue"
)

type AppointmentRepository struct {
	pool *db.Pool
}

type IdempotencyRecord struct {
	AccountID       string
	IdempotencyKey  string
	AppointmentID   string
	StatusCode      int
	ResponsePayload []byte
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// Create inserts a new pending appointment with queue metadata computed from
// the active count observed inside the same transaction. An advisory lock on
// the account serializes concurrent creates so no two bookings share one
// active-count snapshot.
func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (string, error) {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('booking:' || $1))`, appt.AccountID); err != nil {
		return "", err
	}

	var activeCount int
	err := tx.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE account_id = $1 AND status IN ('pending', 'confirmed')
	`, appt.AccountID).Scan(&activeCount)
	if err != nil {
		return "", err
	}

	appt.Status = queue.StatusPending
	appt.QueuePosition, appt.EstimatedWait = queue.PositionAndWait(activeCount)

	var id string
	err = tx.QueryRow(ctx, `
		INSERT INTO appointments
			(account_id, customer_name, customer_email, customer_phone, service_code, appointment_date, time_slot, status, queue_position, estimated_wait_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, appt.AccountID, appt.Name, appt.Email, appt.Phone, appt.Service,
		appt.Date, appt.TimeSlot, appt.Status, appt.QueuePosition, appt.EstimatedWait).Scan(&id)
	if err != nil {
		return "", err
	}
	appt.ID = id
	return id, nil
}

func (r *AppointmentRepository) Get(ctx context.Context, tx pgx.Tx, accountID, appointmentID string) (model.Appointment, error) {
	return scanOne(tx.QueryRow(ctx, selectAppointment+`
		WHERE id = $1 AND account_id = $2
		FOR UPDATE
	`, appointmentID, accountID))
}

// Cancel sets status to cancelled. Appointments already cancelled or with
// unknown ids are left untouched, so retries are safe. Returns whether a row
// transitioned.
func (r *AppointmentRepository) Cancel(ctx context.Context, tx pgx.Tx, accountID, appointmentID string) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
			cancelled_at = now()
		WHERE id = $1 AND account_id = $2 AND status IN ('pending', 'confirmed')
	`, appointmentID, accountID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *AppointmentRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, selectAppointment+`
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAll(rows)
}

// ListByAccountOnDate returns the account's appointments for one calendar
// date, for the today-stats aggregation.
func (r *AppointmentRepository) ListByAccountOnDate(ctx context.Context, accountID string, date time.Time) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, selectAppointment+`
		WHERE account_id = $1 AND appointment_date = $2
		ORDER BY created_at ASC
	`, accountID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAll(rows)
}

func (r *AppointmentRepository) LockIdempotencyKey(ctx context.Context, tx pgx.Tx, accountID, key string) (IdempotencyRecord, bool, error) {
	rec, err := r.selectIdempotencyForUpdate(ctx, tx, accountID, key)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return IdempotencyRecord{}, false, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (account_id, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (account_id, idempotency_key) DO NOTHING
	`, accountID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}

	rec, err = r.selectIdempotencyForUpdate(ctx, tx, accountID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}
	return rec, false, nil
}

func (r *AppointmentRepository) FinalizeIdempotency(ctx context.Context, tx pgx.Tx, accountID, key, appointmentID string, statusCode int, response []byte) error {
	_, err := tx.Exec(ctx, `
		UPDATE booking_idempotency_keys
		SET appointment_id = $3,
			status_code = $4,
			response_payload = $5,
			updated_at = now()
		WHERE account_id = $1 AND idempotency_key = $2
	`, accountID, key, appointmentID, statusCode, response)
	return err
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

const selectAppointment = `
	SELECT id, account_id, customer_name, customer_email, customer_phone, service_code,
		appointment_date, time_slot, status, queue_position, estimated_wait_minutes,
		cancelled_at, created_at
	FROM appointments
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOne(row rowScanner) (model.Appointment, error) {
	var appt model.Appointment
	var cancelledAt *time.Time
	err := row.Scan(
		&appt.ID,
		&appt.AccountID,
		&appt.Name,
		&appt.Email,
		&appt.Phone,
		&appt.Service,
		&appt.Date,
		&appt.TimeSlot,
		&appt.Status,
		&appt.QueuePosition,
		&appt.EstimatedWait,
		&cancelledAt,
		&appt.CreatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.CancelledAt = cancelledAt
	return appt, nil
}

func scanAll(rows pgx.Rows) ([]model.Appointment, error) {
	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanOne(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (r *AppointmentRepository) selectIdempotencyForUpdate(ctx context.Context, tx pgx.Tx, accountID, key string) (IdempotencyRecord, error) {
	var rec IdempotencyRecord
	var responseText string
	err := tx.QueryRow(ctx, `
		SELECT account_id::text,
			idempotency_key,
			COALESCE(appointment_id::text, ''),
			COALESCE(status_code, 0),
			COALESCE(response_payload::text, '')
		FROM booking_idempotency_keys
		WHERE account_id = $1 AND idempotency_key = $2
		FOR UPDATE
	`, accountID, key).Scan(
		&rec.AccountID,
		&rec.IdempotencyKey,
		&rec.AppointmentID,
		&rec.StatusCode,
		&responseText,
	)
	if err != nil {
		return IdempotencyRecord{}, err
	}
	if responseText != "" {
		rec.ResponsePayload = []byte(responseText)
	}
	return rec, nil
}

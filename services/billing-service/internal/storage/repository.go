package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ojalink/ojalink/libs/db"
	"github.com/ojalink/ojalink/services/billing-service/internal/gate"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// Load implements gate.Store. A missing row reads as "no record"; the gate
// fails open to a fresh period.
func (r *Repository) Load(ctx context.Context, accountID string) (gate.UsagePeriod, bool, error) {
	var p gate.UsagePeriod
	err := r.pool.QueryRow(ctx, `
		SELECT count, reset_month
		FROM usage_periods
		WHERE account_id = $1
	`, accountID).Scan(&p.Count, &p.ResetMonth)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return gate.UsagePeriod{}, false, nil
		}
		return gate.UsagePeriod{}, false, err
	}
	return p, true, nil
}

// TryIncrement implements gate.Store with a single conditional upsert, so the
// check-and-increment is atomic at the database: a row already at the limit
// for the current month matches no rows and nothing is written. A stale month
// restarts the count at 1 for the new month.
func (r *Repository) TryIncrement(ctx context.Context, accountID string, month string, limit int) (gate.UsagePeriod, bool, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		INSERT INTO usage_periods (account_id, count, reset_month)
		VALUES ($1, 1, $2)
		ON CONFLICT (account_id) DO UPDATE
		SET count = CASE WHEN usage_periods.reset_month = $2 THEN usage_periods.count + 1 ELSE 1 END,
		    reset_month = $2,
		    updated_at = now()
		WHERE usage_periods.reset_month <> $2 OR usage_periods.count < $3
		RETURNING count
	`, accountID, month, limit).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return gate.UsagePeriod{Count: limit, ResetMonth: month}, false, nil
		}
		return gate.UsagePeriod{}, false, err
	}
	return gate.UsagePeriod{Count: count, ResetMonth: month}, true, nil
}

// RegisteredAt implements gate.ProfileSource from the local account_profiles
// cache fed by the account.registered event stream. A missing row means the
// profile has not propagated yet and the trial is presumed active.
func (r *Repository) RegisteredAt(ctx context.Context, accountID string) (time.Time, bool, error) {
	var registeredAt time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT registered_at
		FROM account_profiles
		WHERE account_id = $1
	`, accountID).Scan(&registeredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return registeredAt, true, nil
}

func (r *Repository) HasActiveSubscription(ctx context.Context, accountID string) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE account_id = $1 AND status = 'active'
		)
	`, accountID).Scan(&active)
	return active, err
}

func (r *Repository) UpsertAccountProfile(ctx context.Context, tx pgx.Tx, accountID string, registeredAt time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO account_profiles (account_id, registered_at)
		VALUES ($1, $2)
		ON CONFLICT (account_id) DO NOTHING
	`, accountID, registeredAt)
	return err
}

type Subscription struct {
	AccountID            string
	Tier                 string
	Status               string
	Provider             string
	StripeCustomerID     string
	StripeSubscriptionID string
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
	UpdatedAt            time.Time
}

func (r *Repository) UpsertSubscription(ctx context.Context, tx pgx.Tx, s Subscription) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO subscriptions (account_id, tier, status, provider, stripe_customer_id, stripe_subscription_id, current_period_start, current_period_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (account_id)
		DO UPDATE SET tier = EXCLUDED.tier,
		              status = EXCLUDED.status,
		              provider = EXCLUDED.provider,
		              stripe_customer_id = EXCLUDED.stripe_customer_id,
		              stripe_subscription_id = EXCLUDED.stripe_subscription_id,
		              current_period_start = EXCLUDED.current_period_start,
		              current_period_end = EXCLUDED.current_period_end,
		              updated_at = now()
	`, s.AccountID, s.Tier, s.Status, defaultIfEmpty(s.Provider, "local"), nullIfEmpty(s.StripeCustomerID), nullIfEmpty(s.StripeSubscriptionID), s.CurrentPeriodStart, s.CurrentPeriodEnd)
	return err
}

func (r *Repository) GetSubscription(ctx context.Context, accountID string) (Subscription, error) {
	var s Subscription
	var cps *time.Time
	var cpe *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT account_id::text, tier, status, provider,
		       COALESCE(stripe_customer_id, ''), COALESCE(stripe_subscription_id, ''),
		       current_period_start, current_period_end, updated_at
		FROM subscriptions
		WHERE account_id = $1
	`, accountID).Scan(&s.AccountID, &s.Tier, &s.Status, &s.Provider, &s.StripeCustomerID, &s.StripeSubscriptionID, &cps, &cpe, &s.UpdatedAt)
	if err != nil {
		return Subscription{}, err
	}
	s.CurrentPeriodStart = cps
	s.CurrentPeriodEnd = cpe
	return s, nil
}

func (r *Repository) GetSubscriptionForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (Subscription, bool, error) {
	var s Subscription
	var cps *time.Time
	var cpe *time.Time
	err := tx.QueryRow(ctx, `
		SELECT account_id::text, tier, status, provider,
		       COALESCE(stripe_customer_id, ''), COALESCE(stripe_subscription_id, ''),
		       current_period_start, current_period_end, updated_at
		FROM subscriptions
		WHERE account_id = $1
		FOR UPDATE
	`, accountID).Scan(&s.AccountID, &s.Tier, &s.Status, &s.Provider, &s.StripeCustomerID, &s.StripeSubscriptionID, &cps, &cpe, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subscription{}, false, nil
		}
		return Subscription{}, false, err
	}
	s.CurrentPeriodStart = cps
	s.CurrentPeriodEnd = cpe
	return s, true, nil
}

type CheckoutSession struct {
	StripeSessionID      string
	AccountID            string
	Tier                 string
	Status               string
	StripeCustomerID     string
	StripeSubscriptionID string
	URL                  string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	CompletedAt          *time.Time
	CanceledAt           *time.Time
}

func (r *Repository) GetCheckoutSession(ctx context.Context, stripeSessionID string) (CheckoutSession, error) {
	var s CheckoutSession
	err := r.pool.QueryRow(ctx, `
		SELECT stripe_session_id, account_id::text, tier, status,
		       COALESCE(stripe_customer_id, ''), COALESCE(stripe_subscription_id, ''),
		       COALESCE(url, ''), created_at, updated_at, completed_at, canceled_at
		FROM checkout_sessions
		WHERE stripe_session_id = $1
	`, stripeSessionID).Scan(&s.StripeSessionID, &s.AccountID, &s.Tier, &s.Status,
		&s.StripeCustomerID, &s.StripeSubscriptionID, &s.URL, &s.CreatedAt, &s.UpdatedAt,
		&s.CompletedAt, &s.CanceledAt)
	if err != nil {
		return CheckoutSession{}, err
	}
	return s, nil
}

// MarkCheckoutSessionCanceled records a customer-side cancel return. A session
// the webhook already completed stays completed.
func (r *Repository) MarkCheckoutSessionCanceled(ctx context.Context, tx pgx.Tx, stripeSessionID string, canceledAt time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE checkout_sessions
		SET status = 'canceled',
		    canceled_at = $2,
		    updated_at = now()
		WHERE stripe_session_id = $1 AND status = 'created'
	`, stripeSessionID, canceledAt)
	return err
}

func (r *Repository) UpsertCheckoutSession(ctx context.Context, tx pgx.Tx, s CheckoutSession) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO checkout_sessions (stripe_session_id, account_id, tier, status, url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (stripe_session_id)
		DO UPDATE SET account_id = EXCLUDED.account_id,
		              tier = EXCLUDED.tier,
		              status = EXCLUDED.status,
		              url = EXCLUDED.url,
		              updated_at = now()
	`, s.StripeSessionID, s.AccountID, s.Tier, s.Status, nullIfEmpty(s.URL))
	return err
}

func (r *Repository) MarkCheckoutSessionCompleted(ctx context.Context, tx pgx.Tx, stripeSessionID string, completedAt time.Time, stripeCustomerID, stripeSubscriptionID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE checkout_sessions
		SET status = 'completed',
		    stripe_customer_id = $3,
		    stripe_subscription_id = $4,
		    completed_at = $2,
		    updated_at = now()
		WHERE stripe_session_id = $1
	`, stripeSessionID, completedAt, nullIfEmpty(stripeCustomerID), nullIfEmpty(stripeSubscriptionID))
	return err
}

type ProviderEvent struct {
	Provider        string
	ProviderEventID string
	EventType       string
	Payload         []byte
}

var ErrDuplicateProviderEvent = errors.New("duplicate provider event")

func (r *Repository) InsertProviderEvent(ctx context.Context, tx pgx.Tx, evt ProviderEvent) error {
	var payload any
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO provider_events (provider, provider_event_id, event_type, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider, provider_event_id) DO NOTHING
	`, evt.Provider, evt.ProviderEventID, evt.EventType, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateProviderEvent
	}
	return nil
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func defaultIfEmpty(s string, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

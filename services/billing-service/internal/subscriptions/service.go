package subscriptions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ojalink/ojalink/libs/outbox"
	"github.com/ojalink/ojalink/services/billing-service/internal/entitlements"
	"github.com/ojalink/ojalink/services/billing-service/internal/storage"
)

// Service owns subscription state transitions and their side effects
// (outbox events). Webhook and HTTP flows share it.
type Service struct {
	repo       *storage.Repository
	outboxRepo *outbox.Repository
}

func New(repo *storage.Repository, outboxRepo *outbox.Repository) *Service {
	return &Service{repo: repo, outboxRepo: outboxRepo}
}

// Activation describes a subscription becoming (or staying) paid.
type Activation struct {
	AccountID            string
	Tier                 string
	ActivatedAt          time.Time
	Provider             string
	StripeCustomerID     string
	StripeSubscriptionID string
	PeriodStart          *time.Time
	PeriodEnd            *time.Time
}

// Cancellation describes a subscription dropping back to free.
type Cancellation struct {
	AccountID            string
	CanceledAt           time.Time
	Provider             string
	StripeCustomerID     string
	StripeSubscriptionID string
	PeriodStart          *time.Time
	PeriodEnd            *time.Time
}

func (s *Service) ApplyActivated(ctx context.Context, tx pgx.Tx, a Activation) error {
	existing, ok, err := s.repo.GetSubscriptionForUpdate(ctx, tx, a.AccountID)
	if err != nil {
		return err
	}

	if err := s.repo.UpsertSubscription(ctx, tx, storage.Subscription{
		AccountID:            a.AccountID,
		Tier:                 a.Tier,
		Status:               "active",
		Provider:             a.Provider,
		StripeCustomerID:     a.StripeCustomerID,
		StripeSubscriptionID: a.StripeSubscriptionID,
		CurrentPeriodStart:   a.PeriodStart,
		CurrentPeriodEnd:     a.PeriodEnd,
	}); err != nil {
		return err
	}

	// Period rollovers and provider-id updates do not change the
	// entitlement, so they do not fan out.
	if ok && existing.Status == "active" && existing.Tier == a.Tier {
		return nil
	}

	limits := entitlements.LimitsForTier(a.Tier)
	payload, err := json.Marshal(map[string]any{
		"account_id":         a.AccountID,
		"tier":               limits.Tier,
		"monthly_ai_actions": limits.MonthlyAIActions,
		"unlimited":          limits.Unlimited,
		"activated_at":       a.ActivatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	return s.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "subscription",
		AggregateID:   a.AccountID,
		EventType:     "billing.subscription.activated.v1",
		Payload:       payload,
	})
}

func (s *Service) ApplyCanceled(ctx context.Context, tx pgx.Tx, c Cancellation) error {
	existing, ok, err := s.repo.GetSubscriptionForUpdate(ctx, tx, c.AccountID)
	if err != nil {
		return err
	}

	if err := s.repo.UpsertSubscription(ctx, tx, storage.Subscription{
		AccountID:            c.AccountID,
		Tier:                 "free",
		Status:               "canceled",
		Provider:             c.Provider,
		StripeCustomerID:     c.StripeCustomerID,
		StripeSubscriptionID: c.StripeSubscriptionID,
		CurrentPeriodStart:   c.PeriodStart,
		CurrentPeriodEnd:     c.PeriodEnd,
	}); err != nil {
		return err
	}

	if ok && existing.Status == "canceled" && existing.Tier == "free" {
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"account_id":  c.AccountID,
		"tier":        "free",
		"canceled_at": c.CanceledAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	return s.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "subscription",
		AggregateID:   c.AccountID,
		EventType:     "billing.subscription.canceled.v1",
		Payload:       payload,
	})
}

package gate

import (
	"context"
	"time"
)

// Store persists usage periods. TryIncrement must behave as a single
// check-and-increment against the stored record: when the stored month
// matches and the count is already at limit it refuses without mutating, and
// two racing callers must never both succeed past the limit.
type Store interface {
	Load(ctx context.Context, accountID string) (UsagePeriod, bool, error)
	TryIncrement(ctx context.Context, accountID string, month string, limit int) (UsagePeriod, bool, error)
}

// ProfileSource supplies the account facts the gate reads but does not own:
// the registration timestamp (for the trial window) and whether a paid
// subscription is active.
type ProfileSource interface {
	RegisteredAt(ctx context.Context, accountID string) (time.Time, bool, error)
	HasActiveSubscription(ctx context.Context, accountID string) (bool, error)
}

// LimitSignal is the side channel fired when a consume attempt is refused
// because the quota is exhausted, so the caller can surface an upgrade
// prompt. It is advisory; the refusal itself is the returned false.
type LimitSignal func(ctx context.Context, accountID string)

type Gate struct {
	store    Store
	profiles ProfileSource
	override bool
	onLimit  LimitSignal
	now      func() time.Time
}

type Option func(*Gate)

// WithOverride enables the operator full-access override, which supersedes
// quota and trial logic entirely.
func WithOverride(enabled bool) Option {
	return func(g *Gate) { g.override = enabled }
}

func WithLimitSignal(fn LimitSignal) Option {
	return func(g *Gate) { g.onLimit = fn }
}

func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

func New(store Store, profiles ProfileSource, opts ...Option) *Gate {
	g := &Gate{
		store:    store,
		profiles: profiles,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CurrentUsage reads the persisted period and applies the lazy monthly
// reset. It never writes: a stale or missing record yields a fresh zeroed
// period for the current month, persisted only by the next consume.
func (g *Gate) CurrentUsage(ctx context.Context, accountID string) (UsagePeriod, error) {
	now := g.now()
	p, ok, err := g.store.Load(ctx, accountID)
	if err != nil {
		return UsagePeriod{}, err
	}
	if !ok {
		return UsagePeriod{Count: 0, ResetMonth: MonthKey(now)}, nil
	}
	return Normalize(p, now), nil
}

// HasFullAccess reports whether metering is bypassed entirely: the operator
// override, an active trial, or an active paid subscription.
func (g *Gate) HasFullAccess(ctx context.Context, accountID string) (bool, error) {
	if g.override {
		return true, nil
	}
	registeredAt, known, err := g.profiles.RegisteredAt(ctx, accountID)
	if err != nil {
		return false, err
	}
	if IsTrialActive(registeredAt, known, g.now()) {
		return true, nil
	}
	return g.profiles.HasActiveSubscription(ctx, accountID)
}

func (g *Gate) Remaining(ctx context.Context, accountID string) (int, error) {
	full, err := g.HasFullAccess(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if full {
		return FreeLimit, nil
	}
	usage, err := g.CurrentUsage(ctx, accountID)
	if err != nil {
		return 0, err
	}
	remaining := FreeLimit - usage.Count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (g *Gate) IsLimitReached(ctx context.Context, accountID string) (bool, error) {
	full, err := g.HasFullAccess(ctx, accountID)
	if err != nil {
		return false, err
	}
	if full {
		return false, nil
	}
	usage, err := g.CurrentUsage(ctx, accountID)
	if err != nil {
		return false, err
	}
	return usage.Count >= FreeLimit, nil
}

// TryConsume authorizes one metered action. Full access passes through
// without touching the counter; otherwise the store performs an atomic
// check-and-increment against the current month. A refusal fires the limit
// signal and returns false; limit reached is a first-class result, not an
// error.
func (g *Gate) TryConsume(ctx context.Context, accountID string) (bool, error) {
	full, err := g.HasFullAccess(ctx, accountID)
	if err != nil {
		return false, err
	}
	if full {
		return true, nil
	}

	_, consumed, err := g.store.TryIncrement(ctx, accountID, MonthKey(g.now()), FreeLimit)
	if err != nil {
		return false, err
	}
	if !consumed {
		if g.onLimit != nil {
			g.onLimit(ctx, accountID)
		}
		return false, nil
	}
	return true, nil
}

// Trial exposes the derived trial window for display.
type Trial struct {
	Active   bool       `json:"active"`
	DaysLeft int        `json:"days_left"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}

func (g *Gate) TrialStatus(ctx context.Context, accountID string) (Trial, error) {
	registeredAt, known, err := g.profiles.RegisteredAt(ctx, accountID)
	if err != nil {
		return Trial{}, err
	}
	now := g.now()
	t := Trial{
		Active:   IsTrialActive(registeredAt, known, now),
		DaysLeft: TrialDaysLeft(registeredAt, known, now),
	}
	if known {
		endsAt := TrialEndsAt(registeredAt)
		t.EndsAt = &endsAt
	}
	return t, nil
}

// State derives the current access mode for the account.
func (g *Gate) State(ctx context.Context, accountID string) (string, error) {
	if g.override {
		return AccessFullOverride, nil
	}
	registeredAt, known, err := g.profiles.RegisteredAt(ctx, accountID)
	if err != nil {
		return "", err
	}
	trialActive := IsTrialActive(registeredAt, known, g.now())
	if !trialActive {
		sub, err := g.profiles.HasActiveSubscription(ctx, accountID)
		if err != nil {
			return "", err
		}
		if sub {
			return AccessFullOverride, nil
		}
	}
	usage, err := g.CurrentUsage(ctx, accountID)
	if err != nil {
		return "", err
	}
	return AccessState(false, trialActive, usage), nil
}

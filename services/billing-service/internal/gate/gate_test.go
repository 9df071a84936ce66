package gate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeProfiles struct {
	registeredAt time.Time
	known        bool
	subscribed   bool
	subErr       error
}

func (f *fakeProfiles) RegisteredAt(ctx context.Context, accountID string) (time.Time, bool, error) {
	return f.registeredAt, f.known, nil
}

func (f *fakeProfiles) HasActiveSubscription(ctx context.Context, accountID string) (bool, error) {
	return f.subscribed, f.subErr
}

func expiredTrial(now time.Time) *fakeProfiles {
	return &fakeProfiles{registeredAt: now.AddDate(0, 0, -30), known: true}
}

func TestTryConsume_LimitRoundTrip(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	store := NewMemStore()
	limitFired := 0
	g := New(store, expiredTrial(now),
		WithClock(func() time.Time { return now }),
		WithLimitSignal(func(ctx context.Context, accountID string) { limitFired++ }),
	)

	ctx := context.Background()
	for i := 1; i <= FreeLimit; i++ {
		ok, err := g.TryConsume(ctx, "acc-1")
		if err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("consume %d: expected success", i)
		}
	}

	usage, err := g.CurrentUsage(ctx, "acc-1")
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if usage.Count != FreeLimit {
		t.Fatalf("expected count %d, got %d", FreeLimit, usage.Count)
	}

	ok, err := g.TryConsume(ctx, "acc-1")
	if err != nil {
		t.Fatalf("consume past limit: %v", err)
	}
	if ok {
		t.Fatalf("expected refusal past the limit")
	}
	if limitFired != 1 {
		t.Fatalf("expected limit signal once, fired %d times", limitFired)
	}

	usage, _ = g.CurrentUsage(ctx, "acc-1")
	if usage.Count != FreeLimit {
		t.Fatalf("refusal must not change count, got %d", usage.Count)
	}

	reached, err := g.IsLimitReached(ctx, "acc-1")
	if err != nil || !reached {
		t.Fatalf("expected limit reached, got %v err=%v", reached, err)
	}
}

func TestCurrentUsage_LazyMonthlyReset(t *testing.T) {
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	store := NewMemStore()
	store.Seed("acc-1", UsagePeriod{Count: 5, ResetMonth: "2026-01"})
	g := New(store, expiredTrial(now), WithClock(func() time.Time { return now }))

	ctx := context.Background()
	usage, err := g.CurrentUsage(ctx, "acc-1")
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if usage.Count != 0 || usage.ResetMonth != "2026-02" {
		t.Fatalf("expected fresh period for 2026-02, got %+v", usage)
	}

	// Reads have no write side effect: the stored record is untouched and a
	// second read yields the same result.
	stored, ok, _ := store.Load(ctx, "acc-1")
	if !ok || stored.ResetMonth != "2026-01" || stored.Count != 5 {
		t.Fatalf("read must not persist the reset, stored %+v", stored)
	}
	again, _ := g.CurrentUsage(ctx, "acc-1")
	if again != usage {
		t.Fatalf("expected stable read, got %+v then %+v", usage, again)
	}
}

func TestTryConsume_ResetsAcrossMonths(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 30, 0, 0, time.UTC)
	store := NewMemStore()
	store.Seed("acc-1", UsagePeriod{Count: 5, ResetMonth: "2026-01"})
	g := New(store, expiredTrial(now), WithClock(func() time.Time { return now }))

	ok, err := g.TryConsume(context.Background(), "acc-1")
	if err != nil || !ok {
		t.Fatalf("expected consume to succeed in the new month, got %v err=%v", ok, err)
	}
	usage, _ := g.CurrentUsage(context.Background(), "acc-1")
	if usage.Count != 1 || usage.ResetMonth != "2026-02" {
		t.Fatalf("expected count 1 for 2026-02, got %+v", usage)
	}
}

func TestTrialOverridesMetering(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	store := NewMemStore()
	profiles := &fakeProfiles{registeredAt: now, known: true}
	g := New(store, profiles, WithClock(func() time.Time { return now }))

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		ok, err := g.TryConsume(ctx, "acc-1")
		if err != nil || !ok {
			t.Fatalf("consume %d during trial: %v err=%v", i, ok, err)
		}
	}

	remaining, err := g.Remaining(ctx, "acc-1")
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if remaining != FreeLimit {
		t.Fatalf("trial consumes must not draw down quota, remaining %d", remaining)
	}
}

func TestUnknownRegistrationPresumesTrial(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	g := New(NewMemStore(), &fakeProfiles{known: false}, WithClock(func() time.Time { return now }))

	full, err := g.HasFullAccess(context.Background(), "acc-1")
	if err != nil || !full {
		t.Fatalf("expected presumed trial for unknown registration, got %v err=%v", full, err)
	}
}

func TestOverrideSupersedesEverything(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	store := NewMemStore()
	store.Seed("acc-1", UsagePeriod{Count: 99, ResetMonth: MonthKey(now)})
	g := New(store, expiredTrial(now), WithClock(func() time.Time { return now }), WithOverride(true))

	ctx := context.Background()
	ok, err := g.TryConsume(ctx, "acc-1")
	if err != nil || !ok {
		t.Fatalf("expected override to authorize, got %v err=%v", ok, err)
	}
	state, err := g.State(ctx, "acc-1")
	if err != nil || state != AccessFullOverride {
		t.Fatalf("expected override state, got %q err=%v", state, err)
	}
}

func TestState_SubscriptionLookupErrorPropagates(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	profiles := expiredTrial(now)
	profiles.subErr = errors.New("profiles unavailable")
	g := New(NewMemStore(), profiles, WithClock(func() time.Time { return now }))

	state, err := g.State(context.Background(), "acc-1")
	if err == nil {
		t.Fatalf("expected subscription lookup error, got state %q", state)
	}
}

func TestAccessStateTransitions(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	month := MonthKey(now)

	cases := []struct {
		name        string
		override    bool
		trialActive bool
		usage       UsagePeriod
		want        string
	}{
		{"override wins", true, true, UsagePeriod{Count: 99, ResetMonth: month}, AccessFullOverride},
		{"trial active", false, true, UsagePeriod{Count: 99, ResetMonth: month}, AccessTrialActive},
		{"metered under limit", false, false, UsagePeriod{Count: 4, ResetMonth: month}, AccessMetered},
		{"limit reached", false, false, UsagePeriod{Count: 5, ResetMonth: month}, AccessMeteredLimitHit},
	}
	for _, tc := range cases {
		if got := AccessState(tc.override, tc.trialActive, tc.usage); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestTrialDaysLeft(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	if got := TrialDaysLeft(now.AddDate(0, 0, -2), true, now); got != 5 {
		t.Fatalf("expected 5 days left, got %d", got)
	}
	if got := TrialDaysLeft(now.AddDate(0, 0, -30), true, now); got != 0 {
		t.Fatalf("expected 0 days left after expiry, got %d", got)
	}
	if got := TrialDaysLeft(time.Time{}, false, now); got != TrialDays {
		t.Fatalf("expected full trial for unknown registration, got %d", got)
	}
	// Partial days round up.
	if got := TrialDaysLeft(now.Add(-6*24*time.Hour-time.Hour), true, now); got != 1 {
		t.Fatalf("expected 1 day left, got %d", got)
	}
}

func TestIsTrialExpired(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	if !IsTrialExpired(now.AddDate(0, 0, -30), true, now) {
		t.Fatalf("expected 30-day-old registration to be expired")
	}
	if IsTrialExpired(now.AddDate(0, 0, -2), true, now) {
		t.Fatalf("expected 2-day-old registration to be active")
	}
	if IsTrialExpired(time.Time{}, false, now) {
		t.Fatalf("unknown registration must not read as expired")
	}
}

func TestTryConsume_ConcurrentNeverOverruns(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	store := NewMemStore()
	g := New(store, expiredTrial(now), WithClock(func() time.Time { return now }))

	const callers = 40
	var wg sync.WaitGroup
	results := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := g.TryConsume(context.Background(), "acc-1")
			if err != nil {
				t.Errorf("consume: %v", err)
				return
			}
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	granted := 0
	for ok := range results {
		if ok {
			granted++
		}
	}
	if granted != FreeLimit {
		t.Fatalf("expected exactly %d grants under race, got %d", FreeLimit, granted)
	}
}

func TestIsFreeFeature(t *testing.T) {
	for _, key := range []string{"bookings", "notes", "inventory", "budget"} {
		if !IsFreeFeature(key) {
			t.Fatalf("expected %s to be exempt", key)
		}
	}
	if IsFreeFeature("marketing-copy") {
		t.Fatalf("expected marketing-copy to be metered")
	}
	// Clients send the list's exact keys; near-misses are metered.
	if IsFreeFeature("booking") || IsFreeFeature("budget-tracker") {
		t.Fatalf("expected non-listed variants to be metered")
	}
}

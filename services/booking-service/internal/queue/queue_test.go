package queue

import (
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func validInput() BookingInput {
	return BookingInput{
		Name:    "Adaeze Obi",
		Email:   "adaeze@example.com",
		Phone:   "08012345678",
		Service: "consultation",
		Time:    "9:00 AM",
	}
}

func TestAdd_PositionMonotonic(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	q := NewQueueAt(fixedClock(now))
	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	for k := 1; k <= 5; k++ {
		appt := q.Add(validInput(), date)
		if appt.QueuePosition != k {
			t.Fatalf("booking %d: expected position %d, got %d", k, k, appt.QueuePosition)
		}
		if appt.EstimatedWait != (k-1)*15 {
			t.Fatalf("booking %d: expected wait %d, got %d", k, (k-1)*15, appt.EstimatedWait)
		}
		if appt.Status != StatusPending {
			t.Fatalf("expected status pending, got %s", appt.Status)
		}
	}
}

func TestCancel_ExcludesFromFutureCountsOnly(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	q := NewQueueAt(fixedClock(now))
	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	a := q.Add(validInput(), date)
	b := q.Add(validInput(), date)
	q.Cancel(a.ID)

	c := q.Add(validInput(), date)
	// Only b is active, so c is second in line.
	if c.QueuePosition != 2 {
		t.Fatalf("expected position 2 after cancellation, got %d", c.QueuePosition)
	}
	if c.EstimatedWait != 15 {
		t.Fatalf("expected wait 15, got %d", c.EstimatedWait)
	}

	// The cancelled record keeps its original snapshot values.
	got, ok := q.Get(a.ID)
	if !ok {
		t.Fatalf("cancelled appointment missing from history")
	}
	if got.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
	if got.QueuePosition != 1 || got.EstimatedWait != 0 {
		t.Fatalf("snapshot mutated: position=%d wait=%d", got.QueuePosition, got.EstimatedWait)
	}
	_ = b
}

func TestCancel_UnknownIDIsNoop(t *testing.T) {
	q := NewQueue()
	q.Cancel("no-such-id")
	if n := len(q.Appointments()); n != 0 {
		t.Fatalf("expected empty queue, got %d", n)
	}
}

func TestReschedule_CancelsAndPrefills(t *testing.T) {
	now := time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)
	q := NewQueueAt(fixedClock(now))
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	in := validInput()
	in.Service = "makeup"
	in.Time = "2:00 PM"
	appt := q.Add(in, date)

	draft, ok := q.Reschedule(appt.ID)
	if !ok {
		t.Fatalf("expected draft for known appointment")
	}

	got, _ := q.Get(appt.ID)
	if got.Status != StatusCancelled {
		t.Fatalf("expected original cancelled, got %s", got.Status)
	}
	if draft.Service != "makeup" {
		t.Fatalf("expected service carried over, got %q", draft.Service)
	}
	if draft.Time != "" {
		t.Fatalf("expected time cleared, got %q", draft.Time)
	}
	wantDate := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	if !draft.Date.Equal(wantDate) {
		t.Fatalf("expected date defaulted to today, got %s", draft.Date)
	}
	if draft.Name != in.Name || draft.Email != in.Email || draft.Phone != in.Phone {
		t.Fatalf("contact fields not carried over: %+v", draft)
	}

	// Abandoning the draft leaves only the cancelled original.
	appts := q.Appointments()
	if len(appts) != 1 {
		t.Fatalf("expected 1 record, got %d", len(appts))
	}
}

func TestReschedule_UnknownID(t *testing.T) {
	q := NewQueue()
	if _, ok := q.Reschedule("missing"); ok {
		t.Fatalf("expected no draft for unknown id")
	}
}

func TestAdd_ConcurrentPositionsUnique(t *testing.T) {
	q := NewQueue()
	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	const n = 50
	done := make(chan Appointment, n)
	for i := 0; i < n; i++ {
		go func() {
			done <- q.Add(validInput(), date)
		}()
	}

	seen := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		appt := <-done
		if seen[appt.QueuePosition] {
			t.Fatalf("duplicate queue position %d", appt.QueuePosition)
		}
		seen[appt.QueuePosition] = true
	}
	for k := 1; k <= n; k++ {
		if !seen[k] {
			t.Fatalf("missing queue position %d", k)
		}
	}
}

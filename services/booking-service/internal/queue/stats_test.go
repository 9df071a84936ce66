package queue

import (
	"testing"
	"time"
)

func TestComputeTodayStats_Empty(t *testing.T) {
	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	stats := ComputeTodayStats(nil, today)
	if stats.QueueSize != 0 || stats.AverageWaitMinutes != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}

func TestComputeTodayStats_PendingOnlyAverage(t *testing.T) {
	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	appts := []Appointment{
		{Date: today, Status: StatusPending, EstimatedWait: 0},
		{Date: today, Status: StatusPending, EstimatedWait: 15},
		{Date: today, Status: StatusConfirmed, EstimatedWait: 30},
		{Date: today, Status: StatusCancelled, EstimatedWait: 45},
		{Date: yesterday, Status: StatusPending, EstimatedWait: 60},
	}

	stats := ComputeTodayStats(appts, today)
	// Active today: two pending plus one confirmed.
	if stats.QueueSize != 3 {
		t.Fatalf("expected queue size 3, got %d", stats.QueueSize)
	}
	// Average over pending today only: (0+15)/2 = 8 after rounding.
	if stats.AverageWaitMinutes != 8 {
		t.Fatalf("expected average 8, got %d", stats.AverageWaitMinutes)
	}
}

func TestComputeTodayStats_RoundsToNearest(t *testing.T) {
	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	appts := []Appointment{
		{Date: today, Status: StatusPending, EstimatedWait: 15},
		{Date: today, Status: StatusPending, EstimatedWait: 30},
		{Date: today, Status: StatusPending, EstimatedWait: 40},
	}
	stats := ComputeTodayStats(appts, today)
	// (15+30+40)/3 = 28.33 rounds to 28.
	if stats.AverageWaitMinutes != 28 {
		t.Fatalf("expected average 28, got %d", stats.AverageWaitMinutes)
	}
}

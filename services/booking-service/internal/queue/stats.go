package queue

import (
	"math"
	"time"
)

type TodayStats struct {
	QueueSize          int `json:"queue_size"`
	AverageWaitMinutes int `json:"average_wait_minutes"`
}

// ComputeTodayStats aggregates the day's queue for display. QueueSize counts
// active appointments dated today (calendar-day equality); the average wait
// is taken over today's pending appointments only, rounded to the nearest
// minute, and zero when that subset is empty.
func ComputeTodayStats(appts []Appointment, today time.Time) TodayStats {
	var stats TodayStats
	sum := 0
	pending := 0
	for _, a := range appts {
		if !sameDay(a.Date, today) {
			continue
		}
		if IsActive(a.Status) {
			stats.QueueSize++
		}
		if a.Status == StatusPending {
			sum += a.EstimatedWait
			pending++
		}
	}
	if pending > 0 {
		stats.AverageWaitMinutes = int(math.Round(float64(sum) / float64(pending)))
	}
	return stats
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

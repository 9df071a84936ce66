package gate

import (
	"math"
	"time"
)

// TrialDays is the length of the full-access trial that starts at account
// registration.
const TrialDays = 7

// TrialEndsAt returns the end of the trial window. A zero registeredAt means
// the registration time is unknown (profile not yet loaded); callers treat
// that as trial presumed active.
func TrialEndsAt(registeredAt time.Time) time.Time {
	return registeredAt.Add(TrialDays * 24 * time.Hour)
}

// IsTrialActive reports whether the account is still inside its trial
// window. Unknown registration time defaults to active, never locking a new
// account out before its profile has propagated.
func IsTrialActive(registeredAt time.Time, known bool, now time.Time) bool {
	if !known {
		return true
	}
	return now.Before(TrialEndsAt(registeredAt))
}

// IsTrialExpired is the complement of IsTrialActive: an unknown
// registration time is never expired.
func IsTrialExpired(registeredAt time.Time, known bool, now time.Time) bool {
	return !IsTrialActive(registeredAt, known, now)
}

// TrialDaysLeft returns the number of whole or partial days remaining in the
// trial, never negative.
func TrialDaysLeft(registeredAt time.Time, known bool, now time.Time) int {
	if !known {
		return TrialDays
	}
	remaining := TrialEndsAt(registeredAt).Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}

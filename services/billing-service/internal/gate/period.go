// Package gate implements the freemium usage gate: a lazily-reset monthly
// usage counter, a trial window derived from account registration, and the
// atomic consume-or-refuse decision that keeps metered actions within the
// free quota.
package gate

import "time"

// FreeLimit is the number of metered actions included per calendar month
// without a trial, subscription, or override.
const FreeLimit = 5

// UsagePeriod is the persisted usage counter for one account. ResetMonth
// identifies the calendar month the count applies to (YYYY-MM).
type UsagePeriod struct {
	Count      int    `json:"count"`
	ResetMonth string `json:"reset_month"`
}

// MonthKey formats a timestamp as the YYYY-MM period label.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Normalize applies the lazy monthly reset: a period whose ResetMonth does
// not match the current month is stale and replaced with a zeroed period for
// the current month. Malformed stored state (negative count, empty month) is
// treated the same way, failing open to a fresh quota rather than locking
// the account out. Normalize never writes; persistence happens on the next
// consume.
func Normalize(p UsagePeriod, now time.Time) UsagePeriod {
	month := MonthKey(now)
	if p.ResetMonth != month || p.Count < 0 {
		return UsagePeriod{Count: 0, ResetMonth: month}
	}
	return p
}

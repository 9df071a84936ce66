package gate

// Access mode, derived on each read rather than stored.
const (
	AccessFullOverride    = "full_access_override"
	AccessTrialActive     = "trial_active"
	AccessMetered         = "trial_expired_metered"
	AccessMeteredLimitHit = "trial_expired_limit_reached"
)

// AccessState derives the current access mode. The override short-circuits
// everything else; the limit-reached state reverts to metered automatically
// at the next calendar month via the lazy reset in Normalize.
func AccessState(override bool, trialActive bool, usage UsagePeriod) string {
	if override {
		return AccessFullOverride
	}
	if trialActive {
		return AccessTrialActive
	}
	if usage.Count >= FreeLimit {
		return AccessMeteredLimitHit
	}
	return AccessMetered
}

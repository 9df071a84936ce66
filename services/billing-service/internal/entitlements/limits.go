package entitlements

import "github.com/ojalink/ojalink/services/billing-service/internal/gate"

// Limits represents the entitlements derived from a subscription tier.
// Keep this small and stable: other services may rely on these limits to enforce behavior.
type Limits struct {
	Tier             string `json:"tier"`
	MonthlyAIActions int32  `json:"monthly_ai_actions"`
	Unlimited        bool   `json:"unlimited"`
}

func LimitsForTier(tier string) Limits {
	switch tier {
	case "starter":
		return Limits{
			Tier:             "starter",
			MonthlyAIActions: 100,
		}
	case "pro":
		return Limits{
			Tier:      "pro",
			Unlimited: true,
		}
	default:
		return Limits{
			Tier:             "free",
			MonthlyAIActions: gate.FreeLimit,
		}
	}
}

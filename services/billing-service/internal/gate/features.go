package gate

// freeFeatures are exempt from metering entirely and never consume quota.
var freeFeatures = map[string]struct{}{
	"bookings":  {},
	"notes":     {},
	"inventory": {},
	"budget":    {},
}

// IsFreeFeature reports whether the feature key is on the metering
// exemption allow-list.
func IsFreeFeature(featureKey string) bool {
	_, ok := freeFeatures[featureKey]
	return ok
}

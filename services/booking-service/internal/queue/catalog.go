// Package queue implements the booking queue engine: the fixed service
// catalog, booking validation, queue position / wait estimation, and the
// cancel/reschedule transitions. It is pure in-memory logic; persistence
// is layered on top by the storage package with the same semantics.
package queue

import "fmt"

// Service is one entry of the fixed bookable-service catalog.
// Slice order is display order.
type Service struct {
	Code     string `json:"code"`
	Label    string `json:"label"`
	Duration string `json:"duration"`
}

var Catalog = []Service{
	{Code: "consultation", Label: "Consultation", Duration: "30 min"},
	{Code: "hair-styling", Label: "Hair Styling", Duration: "45 min"},
	{Code: "makeup", Label: "Makeup Session", Duration: "1 hr"},
	{Code: "tailoring", Label: "Tailoring Fitting", Duration: "30 min"},
	{Code: "phone-repair", Label: "Phone Repair", Duration: "1 hr 30 min"},
	{Code: "training", Label: "Business Training", Duration: "2 hr"},
}

// TimeSlots is the fixed set of bookable time-of-day labels.
var TimeSlots = []string{
	"9:00 AM",
	"10:00 AM",
	"11:00 AM",
	"12:00 PM",
	"1:00 PM",
	"2:00 PM",
	"3:00 PM",
	"4:00 PM",
}

func ServiceByCode(code string) (Service, bool) {
	for _, s := range Catalog {
		if s.Code == code {
			return s, true
		}
	}
	return Service{}, false
}

// ServiceByLabel maps a display label back to its catalog entry. A label with
// no matching code is a catalog misconfiguration and panics.
func ServiceByLabel(label string) Service {
	for _, s := range Catalog {
		if s.Label == label {
			return s
		}
	}
	panic(fmt.Sprintf("queue: no catalog entry for label %q", label))
}

func IsTimeSlot(slot string) bool {
	for _, t := range TimeSlots {
		if t == slot {
			return true
		}
	}
	return false
}

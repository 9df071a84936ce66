package queue

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

type BookingInput struct {
	Name    string
	Email   string
	Phone   string
	Service string
	Time    string
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Nigerian phone numbers: +234 followed by 10 digits, or a leading 0
// followed by 10 digits, after stripping internal whitespace.
var phonePattern = regexp.MustCompile(`^(\+234\d{10}|0\d{10})$`)

// Validate checks a booking submission field by field and returns the
// normalized input plus a map of field name to the first error found for
// that field. An empty map means the input is valid.
func Validate(in BookingInput) (BookingInput, map[string]string) {
	errs := make(map[string]string)

	in.Name = strings.TrimSpace(in.Name)
	if n := utf8.RuneCountInString(in.Name); n < 2 || n > 100 {
		errs["name"] = "name must be between 2 and 100 characters"
	}

	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || len(in.Email) > 255 || !emailPattern.MatchString(in.Email) {
		errs["email"] = "a valid email address is required"
	}

	in.Phone = stripSpaces(in.Phone)
	if in.Phone != "" && !phonePattern.MatchString(in.Phone) {
		errs["phone"] = "phone must be +234 followed by 10 digits or 0 followed by 10 digits"
	}

	in.Service = strings.TrimSpace(in.Service)
	if in.Service == "" {
		errs["service"] = "service is required"
	} else if _, ok := ServiceByCode(in.Service); !ok {
		errs["service"] = "unknown service"
	}

	in.Time = strings.TrimSpace(in.Time)
	if in.Time == "" {
		errs["time"] = "time slot is required"
	} else if !IsTimeSlot(in.Time) {
		errs["time"] = "unknown time slot"
	}

	return in, errs
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

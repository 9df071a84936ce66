package queue

import (
	"strings"
	"testing"
)

func TestValidate_NameBoundaries(t *testing.T) {
	in := validInput()
	in.Name = "A"
	if _, errs := Validate(in); errs["name"] == "" {
		t.Fatalf("expected name error for 1-char name")
	}

	in.Name = "AB"
	if _, errs := Validate(in); errs["name"] != "" {
		t.Fatalf("unexpected name error for 2-char name: %s", errs["name"])
	}

	// Length limits count characters, not bytes.
	in.Name = "é"
	if _, errs := Validate(in); errs["name"] == "" {
		t.Fatalf("expected name error for 1-char multibyte name")
	}

	in.Name = strings.Repeat("Ọ", 100)
	if _, errs := Validate(in); errs["name"] != "" {
		t.Fatalf("unexpected name error for 100-char multibyte name: %s", errs["name"])
	}

	in.Name = strings.Repeat("Ọ", 101)
	if _, errs := Validate(in); errs["name"] == "" {
		t.Fatalf("expected name error for 101-char name")
	}
}

func TestValidate_Phone(t *testing.T) {
	cases := []struct {
		phone string
		ok    bool
	}{
		{"+2348012345678", true},
		{"08012345678", true},
		{"0801 234 5678", true}, // internal whitespace stripped
		{"", true},              // optional
		{"12345", false},
		{"+23480123", false},
		{"8012345678", false},
	}
	for _, tc := range cases {
		in := validInput()
		in.Phone = tc.phone
		_, errs := Validate(in)
		if tc.ok && errs["phone"] != "" {
			t.Fatalf("phone %q: unexpected error %s", tc.phone, errs["phone"])
		}
		if !tc.ok && errs["phone"] == "" {
			t.Fatalf("phone %q: expected error", tc.phone)
		}
	}
}

func TestValidate_EmailAndService(t *testing.T) {
	in := validInput()
	in.Email = "not-an-email"
	if _, errs := Validate(in); errs["email"] == "" {
		t.Fatalf("expected email error")
	}

	in = validInput()
	in.Service = "laundry"
	if _, errs := Validate(in); errs["service"] == "" {
		t.Fatalf("expected service error for unknown code")
	}

	in = validInput()
	in.Service = ""
	if _, errs := Validate(in); errs["service"] == "" {
		t.Fatalf("expected service error for empty code")
	}

	in = validInput()
	in.Time = ""
	if _, errs := Validate(in); errs["time"] == "" {
		t.Fatalf("expected time error for empty slot")
	}
}

func TestValidate_NormalizesFields(t *testing.T) {
	in := validInput()
	in.Name = "  Adaeze Obi  "
	in.Phone = "+234 801 234 5678"
	out, errs := Validate(in)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if out.Name != "Adaeze Obi" {
		t.Fatalf("expected trimmed name, got %q", out.Name)
	}
	if out.Phone != "+2348012345678" {
		t.Fatalf("expected stripped phone, got %q", out.Phone)
	}
}

func TestServiceByLabel_PanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unknown label")
		}
	}()
	ServiceByLabel("No Such Service")
}

package phi

import (
	"strings"
	"testing"
)

func TestRedact_OrderSensitivity(t *testing.T) {
	// Email and phone must be substituted before the name rule runs, so
	// the structured fields are never swallowed by the name heuristic.
	in := "Contact John Smith at john@x.com or 555-123-4567"
	want := "Contact [REDACTED_NAME] at [REDACTED_EMAIL] or [REDACTED_PHONE]"
	if got := Redact(in); got != want {
		t.Errorf("Redact(%q) = %q, want %q", in, got, want)
	}
}

func TestRedact_PatternKinds(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"email", "reach me at jane.doe+labs@example.org today", "reach me at [REDACTED_EMAIL] today"},
		{"phone dashes", "call 555-123-4567", "call [REDACTED_PHONE]"},
		{"phone dots", "call 555.123.4567", "call [REDACTED_PHONE]"},
		{"phone spaces", "call 555 123 4567", "call [REDACTED_PHONE]"},
		{"phone bare", "call 5551234567", "call [REDACTED_PHONE]"},
		{"date slashes", "seen on 3/14/2024", "seen on [REDACTED_DATE]"},
		{"date dashes", "seen on 12-1-99", "seen on [REDACTED_DATE]"},
		{"address", "lives at 1234 Elm Street", "lives at [REDACTED_ADDRESS]"},
		{"address blvd", "sent to 9 Sunset Blvd", "sent to [REDACTED_ADDRESS]"},
		{"mrn", "MRN: 12345", "[REDACTED_MRN]"},
		{"mrn no separator", "chart MRN98765 reviewed", "chart [REDACTED_MRN] reviewed"},
		{"generic id", "ID 99", "[REDACTED_ID]"},
		{"generic id colon", "patient ID: 4471 admitted", "patient [REDACTED_ID] admitted"},
		{"name", "seen by Mary Jane Watson", "seen by [REDACTED_NAME]"},
		{"no phi", "temperature 98.6 and stable", "temperature 98.6 and stable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Redact(tc.in); got != tc.want {
				t.Errorf("Redact(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRedact_Idempotent(t *testing.T) {
	inputs := []string{
		"Contact John Smith at john@x.com or 555-123-4567",
		"MRN: 12345 seen 3/14/2024 at 1234 Elm Street",
		"Jane Doe, jane@example.com, ID 7",
		"no identifiers here",
	}
	for _, in := range inputs {
		once := Redact(in)
		twice := Redact(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestRedact_PlaceholdersNeverRematched(t *testing.T) {
	// Placeholders are all-uppercase; the capitalized-word name heuristic
	// must not consume them.
	in := "[REDACTED_EMAIL] then [REDACTED_PHONE]"
	if got := Redact(in); got != in {
		t.Errorf("placeholders re-matched: %q -> %q", in, got)
	}
}

func TestRedact_NameHeuristicFalsePositive(t *testing.T) {
	// "Blood Pressure" matching the name heuristic is an accepted
	// trade-off, not a bug.
	got := Redact("check Blood Pressure daily")
	if !strings.Contains(got, PlaceholderName) {
		t.Errorf("expected name placeholder for capitalized clinical term, got %q", got)
	}
}

func TestRedact_FailOpen(t *testing.T) {
	r := &Redactor{rules: []rule{
		{kind: "email", apply: replaceAll(emailPattern, PlaceholderEmail)},
		{kind: "boom", apply: func(string) string { panic("internal fault") }},
	}}

	in := "Jane Doe at jane@example.com"
	got := r.Redact(in)
	if got != in {
		t.Errorf("fail-open violated: got %q, want original %q", got, in)
	}
}

func TestRedact_EmptyInput(t *testing.T) {
	if got := Redact(""); got != "" {
		t.Errorf("Redact(\"\") = %q, want empty", got)
	}
}

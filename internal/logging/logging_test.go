package logging

import (
	"context"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"Warn", WARN, false},
		{"error", ERROR, false},
		{"fatal", FATAL, false},
		{"verbose", -1, true},
		{"", -1, true},
	}

	for _, tc := range cases {
		got, err := parseLevel(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseLevel(%q): expected error, got none", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseLevel(%q): unexpected error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestPackageLogLevels(t *testing.T) {
	err := SetPackageLogLevels(map[string]string{
		"encounter.router": "debug",
		"encounter.*":      "warn",
		"api":              "error",
	})
	if err != nil {
		t.Fatalf("SetPackageLogLevels failed: %v", err)
	}
	defer func() { _ = SetPackageLogLevels(map[string]string{}) }()

	// Exact match wins over wildcard.
	if got := GetPackageLogLevel("encounter.router"); got != DEBUG {
		t.Errorf("encounter.router: got %v, want DEBUG", got)
	}
	// Wildcard match.
	if got := GetPackageLogLevel("encounter.dispatcher"); got != WARN {
		t.Errorf("encounter.dispatcher: got %v, want WARN", got)
	}
	// No override.
	if got := GetPackageLogLevel("store"); got != LogLevel(-1) {
		t.Errorf("store: got %v, want -1", got)
	}
}

func TestSetPackageLogLevels_InvalidLevel(t *testing.T) {
	err := SetPackageLogLevels(map[string]string{"api": "loud"})
	if err == nil {
		t.Error("expected error for invalid level, got none")
	}
}

func TestWithFieldImmutability(t *testing.T) {
	base := GetLogger("test")
	child := base.WithField("session_id", "session_abc")

	if len(base.fields) != 0 {
		t.Errorf("base logger fields mutated: %v", base.fields)
	}
	if child.fields["session_id"] != "session_abc" {
		t.Errorf("child logger missing field: %v", child.fields)
	}

	grandchild := child.WithFields(Field("user_id", "user_123"), Field("session_id", "session_def"))
	if grandchild.fields["session_id"] != "session_def" {
		t.Errorf("later field should win: %v", grandchild.fields)
	}
	if child.fields["session_id"] != "session_abc" {
		t.Errorf("child logger mutated by grandchild: %v", child.fields)
	}
}

func TestCloneFields(t *testing.T) {
	if got := cloneFields(nil); got == nil || len(got) != 0 {
		t.Errorf("cloneFields(nil) = %v, want empty map", got)
	}

	src := map[string]interface{}{"a": 1, "b": "two"}
	dst := cloneFields(src)
	dst["a"] = 99
	if src["a"] != 1 {
		t.Errorf("cloneFields did not copy: src mutated to %v", src)
	}
}

func TestExtractContextFields(t *testing.T) {
	if got := extractContextFields(nil); got != nil {
		t.Errorf("nil context: got %v, want nil", got)
	}
	if got := extractContextFields(context.Background()); got != nil {
		t.Errorf("empty context: got %v, want nil", got)
	}

	ctx := context.WithValue(context.Background(), RequestIDKey(), "req-42")
	got := extractContextFields(ctx)
	if got["request_id"] != "req-42" {
		t.Errorf("request_id: got %v", got)
	}
}

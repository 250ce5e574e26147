package logging

import (
	"log/slog"
	"testing"
)

func TestRedactor_RedactString(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bearer header", "Authorization: Bearer abc123.xyz", "Authorization: Bearer ***"},
		{"bare jwt", "token eyJhbGciOi.eyJzdWIiOi.c2lnbmF0dXJl", "token jwt-***"},
		{"live key", "key=pp_live_AbC123", "key=pp_live_***"},
		{"test key", "sk_test_999", "sk_test_***"},
		{"email", "contact jane.doe@example.org now", "contact ***@example.org now"},
		{"nothing sensitive", "generate", "generate"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.RedactString(tt.in); got != tt.want {
				t.Errorf("RedactString(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRedactor_RedactAttr(t *testing.T) {
	r := NewRedactor()

	if got := r.RedactAttr(slog.String("jwt_secret", "0123456789")); got.Value.String() != "0123***" {
		t.Errorf("Expected sensitive key masked, got %q", got.Value.String())
	}
	if got := r.RedactAttr(slog.Int("token_count", 3)); got.Value.String() != "***" {
		t.Errorf("Expected non-string sensitive value masked, got %q", got.Value.String())
	}
	if got := r.RedactAttr(slog.Int("remaining", 3)); got.Value.Int64() != 3 {
		t.Errorf("Expected plain value kept, got %v", got.Value)
	}

	group := r.RedactAttr(slog.Group("auth", slog.String("api_key", "pp_live_abcdef")))
	inner := group.Value.Group()
	if len(inner) != 1 || inner[0].Value.String() != "pp_l***" {
		t.Errorf("Expected group members redacted, got %v", inner)
	}
}

func TestRedactEmail(t *testing.T) {
	tests := map[string]string{
		"jane@example.com": "j***@example.com",
		"@example.com":     "***@example.com",
		"not-an-email":     "not-an-email",
	}
	for in, want := range tests {
		if got := RedactEmail(in); got != want {
			t.Errorf("RedactEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRedactAPIKey(t *testing.T) {
	tests := map[string]string{
		"":               "",
		"abc":            "***",
		"pp_live_abcdef": "pp_l***",
	}
	for in, want := range tests {
		if got := RedactAPIKey(in); got != want {
			t.Errorf("RedactAPIKey(%q) = %q, want %q", in, got, want)
		}
	}
}

package cli

import (
	"errors"
	"fmt"
	"testing"

	"postplanner-hq/quota/pkg/config"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("server.listen_address", "listen address is required")

	expected := "config error in server.listen_address: listen address is required"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestCommandError(t *testing.T) {
	inner := errors.New("port in use")
	err := NewCommandError("run", inner)

	if err.Error() != "command run failed: port in use" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("Expected CommandError to unwrap to the inner error")
	}
}

func TestConfigErrors(t *testing.T) {
	ve := config.ValidationError{Errors: []config.FieldError{
		{Field: "usage.backend", Message: "unknown backend"},
		{Field: "auth.keys[0].tier", Message: "unknown tier"},
	}}

	got := ConfigErrors(fmt.Errorf("load: %w", ve))
	if len(got) != 2 {
		t.Fatalf("Expected 2 config errors, got %d", len(got))
	}
	if got[1].Field != "auth.keys[0].tier" {
		t.Errorf("Unexpected field %q", got[1].Field)
	}

	if ConfigErrors(errors.New("other")) != nil {
		t.Error("Expected nil for non-validation errors")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"config error", NewConfigError("f", "m"), ExitConfig},
		{"wrapped validation", fmt.Errorf("x: %w", config.ValidationError{}), ExitConfig},
		{"command error", NewCommandError("run", errors.New("boom")), ExitFailure},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}

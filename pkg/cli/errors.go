package cli

import (
	"errors"
	"fmt"

	"postplanner-hq/quota/pkg/config"
)

// Exit codes returned by the quota command.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ConfigErrors flattens a config.ValidationError into one ConfigError per
// field. Other errors yield nil.
func ConfigErrors(err error) []*ConfigError {
	var ve config.ValidationError
	if !errors.As(err, &ve) {
		return nil
	}

	out := make([]*ConfigError, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		out = append(out, NewConfigError(fe.Field, fe.Message))
	}
	return out
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var ce *ConfigError
	var ve config.ValidationError
	if errors.As(err, &ce) || errors.As(err, &ve) {
		return ExitConfig
	}
	return ExitFailure
}

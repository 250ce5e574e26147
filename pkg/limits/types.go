package limits

import (
	"errors"
	"fmt"

	"postplanner-hq/quota/pkg/limits/tier"
)

// Error types for limit violations and system errors.
var (
	// ErrRateLimitExceeded is wrapped by LimitError for a rejected rate check.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrUsageLimitExceeded is wrapped by LimitError for a used-up metric.
	ErrUsageLimitExceeded = errors.New("usage limit exceeded")

	// ErrFeatureUnavailable is wrapped by LimitError for a disabled capability.
	ErrFeatureUnavailable = errors.New("feature unavailable")

	// ErrConfigInvalid is returned when the gate is built without its parts.
	ErrConfigInvalid = errors.New("invalid limits configuration")
)

// LimitError provides detailed context about a limit violation.
type LimitError struct {
	// Type is the decline kind (rate_exceeded, limit_exceeded, ...).
	Type string

	// Identifier is the user or token the limit applies to.
	Identifier string

	// Limit is the configured limit value.
	Limit interface{}

	// Current is the current value that reached the limit.
	Current interface{}

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *LimitError) Error() string {
	return fmt.Sprintf("%s limit exceeded for %s: current=%v, limit=%v",
		e.Type, e.Identifier, e.Current, e.Limit)
}

// Unwrap returns the underlying error for error wrapping.
func (e *LimitError) Unwrap() error {
	return e.Err
}

// MetricUsage is the usage of one metric against the user's tier.
type MetricUsage struct {
	Metric     tier.Metric `json:"metric"`
	Usage      int64       `json:"usage"`
	Limit      tier.Limit  `json:"limit"`
	Percentage float64     `json:"percentage"`
	AtRisk     bool        `json:"atRisk"`
	Exceeded   bool        `json:"exceeded"`
}

// UsageReport is a user's usage of every metric in the current period.
type UsageReport struct {
	UserID  string        `json:"userId"`
	Tier    tier.Tier     `json:"tier"`
	Period  string        `json:"period"`
	Metrics []MetricUsage `json:"metrics"`
}

package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultInterval is the window length used when a policy leaves it unset.
	DefaultInterval = 60 * time.Second

	// DefaultLimit is the per-window request limit used when a policy leaves it unset.
	DefaultLimit = 10

	// AnonymousToken is the bucket key used for an empty token.
	AnonymousToken = "anonymous"
)

var (
	// ErrInvalidPolicy is returned for a policy with a non-positive interval or limit.
	ErrInvalidPolicy = errors.New("invalid rate limit policy")

	// ErrUnknownCategory is returned by Registry for a category without a policy.
	ErrUnknownCategory = errors.New("unknown rate limit category")
)

// Policy is the number of requests allowed per interval.
type Policy struct {
	// Interval is the window length.
	Interval time.Duration `yaml:"interval" json:"interval"`

	// Limit is the number of requests admitted per window.
	Limit int `yaml:"limit" json:"limit"`
}

// WithDefaults fills zero fields with DefaultInterval and DefaultLimit.
func (p Policy) WithDefaults() Policy {
	if p.Interval == 0 {
		p.Interval = DefaultInterval
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	return p
}

// Validate reports whether the policy can be enforced.
func (p Policy) Validate() error {
	if p.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidPolicy, p.Interval)
	}
	if p.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidPolicy, p.Limit)
	}
	return nil
}

func (p Policy) String() string {
	return fmt.Sprintf("%d per %s", p.Limit, p.Interval)
}

// Result is the outcome of a rate limit check.
type Result struct {
	// Success reports whether the request was admitted.
	Success bool `json:"success"`

	// Limit is the policy's per-window limit.
	Limit int `json:"limit"`

	// Remaining is how many more requests the current window admits.
	Remaining int `json:"remaining"`

	// Reset is when the current window ends.
	Reset time.Time `json:"reset"`
}

// RetryAfter returns how long a rejected caller should wait, rounded up to
// whole seconds. It is zero for admitted requests.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Success || !r.Reset.After(now) {
		return 0
	}
	d := r.Reset.Sub(now)
	if rem := d % time.Second; rem != 0 {
		d += time.Second - rem
	}
	return d
}

package enforcement

import (
	"net/http"
	"strconv"
	"time"

	"postplanner-hq/quota/pkg/limits/tier"
)

// Kind classifies a decline.
type Kind string

const (
	// KindRateExceeded means the request window for a category is full.
	KindRateExceeded Kind = "rate_exceeded"

	// KindLimitExceeded means a bounded tier metric is used up.
	KindLimitExceeded Kind = "limit_exceeded"

	// KindFeatureUnavailable means the tier does not include a capability.
	KindFeatureUnavailable Kind = "feature_unavailable"
)

// Error codes carried in decline bodies.
const (
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeLimitExceeded      = "LIMIT_EXCEEDED"
	CodeFeatureUnavailable = "FEATURE_UNAVAILABLE"
)

// Response headers describing the rate limit window.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// MessageRateExceeded is the error text of a rate decline.
const MessageRateExceeded = "Rate limit exceeded"

// Config contains configuration for the enforcer.
type Config struct {
	// DisableUpgradeHints omits the upgrade tier and message from
	// limit_exceeded and feature_unavailable declines.
	DisableUpgradeHints bool

	// DisableRetryAfter omits the Retry-After header from rate declines.
	DisableRetryAfter bool
}

// Decline describes why a request was refused.
type Decline struct {
	// Kind is the decline class.
	Kind Kind

	// Status is the HTTP status code for the decline.
	Status int

	// Code is the machine-readable error code.
	Code string

	// Message is the human-readable reason.
	Message string

	// Category is the rate limit category (rate_exceeded only).
	Category string

	// Limit is the window limit (rate_exceeded) or the metric ceiling
	// (limit_exceeded).
	Limit int64

	// Remaining is what is left in the window or the period.
	Remaining int64

	// Reset is when the rate window ends (rate_exceeded only).
	Reset time.Time

	// RetryAfter is how long to wait before retrying (rate_exceeded only).
	RetryAfter time.Duration

	// Tier and Metric identify the tier decision (tier declines only).
	Tier   tier.Tier
	Metric tier.Metric

	// Usage is the usage consulted by a limit_exceeded decline.
	Usage int64

	// UpgradeTo and UpgradeMessage suggest the next tier, when one exists.
	UpgradeTo      tier.Tier
	UpgradeMessage string

	disableRetryAfter bool
}

// Error implements the error interface so declines can travel as errors.
func (d *Decline) Error() string {
	return string(d.Kind) + ": " + d.Message
}

// Body is the JSON body of a decline response.
type Body struct {
	Success        bool   `json:"success"`
	Error          string `json:"error"`
	Code           string `json:"code"`
	Limit          *int64 `json:"limit,omitempty"`
	Remaining      *int64 `json:"remaining,omitempty"`
	Reset          *int64 `json:"reset,omitempty"`
	Tier           string `json:"tier,omitempty"`
	Metric         string `json:"metric,omitempty"`
	Usage          *int64 `json:"usage,omitempty"`
	UpgradeTo      string `json:"upgradeTo,omitempty"`
	UpgradeMessage string `json:"upgradeMessage,omitempty"`
}

// Body returns the response body for the decline. Rate declines carry the
// window's limit, remaining and reset (unix milliseconds).
func (d *Decline) Body() Body {
	b := Body{
		Success: false,
		Error:   d.Message,
		Code:    d.Code,
	}

	switch d.Kind {
	case KindRateExceeded:
		reset := d.Reset.UnixMilli()
		b.Limit = &d.Limit
		b.Remaining = &d.Remaining
		b.Reset = &reset
	case KindLimitExceeded:
		b.Limit = &d.Limit
		b.Remaining = &d.Remaining
		b.Usage = &d.Usage
		fallthrough
	case KindFeatureUnavailable:
		b.Tier = string(d.Tier)
		b.Metric = string(d.Metric)
		b.UpgradeTo = string(d.UpgradeTo)
		b.UpgradeMessage = d.UpgradeMessage
	}
	return b
}

// WriteHeaders sets the rate limit headers of a rate decline on h. Other
// kinds leave h untouched.
func (d *Decline) WriteHeaders(h http.Header) {
	if d.Kind != KindRateExceeded {
		return
	}
	SetRateHeaders(h, d.Limit, d.Remaining, d.Reset)
	if !d.disableRetryAfter && d.RetryAfter > 0 {
		h.Set(HeaderRetryAfter, strconv.FormatInt(int64(d.RetryAfter/time.Second), 10))
	}
}

// SetRateHeaders sets X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset (unix milliseconds).
func SetRateHeaders(h http.Header, limit, remaining int64, reset time.Time) {
	h.Set(HeaderLimit, strconv.FormatInt(limit, 10))
	h.Set(HeaderRemaining, strconv.FormatInt(remaining, 10))
	h.Set(HeaderReset, strconv.FormatInt(reset.UnixMilli(), 10))
}

package tier

import (
	"context"
	"fmt"
)

// MessageFeatureUnavailable is returned for a disabled capability.
const MessageFeatureUnavailable = "This feature is not available in your plan"

// UsageReader reads the current usage of a metric for a user.
type UsageReader interface {
	GetUsage(ctx context.Context, userID string, metric string) (int64, error)
}

// Decision is the outcome of a feature check.
type Decision struct {
	// Allowed reports whether the user may use the feature now.
	Allowed bool `json:"allowed"`

	// Usage is the usage consulted for a bounded limit; 0 otherwise.
	Usage int64 `json:"usage"`

	// Limit is the tier's limit for the metric.
	Limit Limit `json:"limit"`

	// Message explains a denial. Empty when allowed.
	Message string `json:"message,omitempty"`
}

// Policy answers feature checks by combining usage with the tier table.
type Policy struct {
	usage UsageReader
}

// NewPolicy creates a Policy reading usage from r.
func NewPolicy(r UsageReader) *Policy {
	return &Policy{usage: r}
}

// CanUseFeature decides whether userID on tier t may use metric m.
//
// Capability limits answer with their flag. Unbounded limits always allow.
// Bounded limits allow while the user's usage is below the ceiling, so a
// user at exactly the ceiling is denied.
//
// Returns ErrUnknownTier or ErrUnknownMetric for inputs outside the table,
// and any error from the usage reader.
func (p *Policy) CanUseFeature(ctx context.Context, userID string, t Tier, m Metric) (*Decision, error) {
	limit, err := LimitFor(t, m)
	if err != nil {
		return nil, err
	}

	switch limit.Kind() {
	case KindCapability:
		d := &Decision{Allowed: limit.Enabled(), Limit: limit}
		if !d.Allowed {
			d.Message = MessageFeatureUnavailable
		}
		return d, nil

	case KindUnbounded:
		return &Decision{Allowed: true, Limit: limit}, nil

	case KindBounded:
		usage, err := p.usage.GetUsage(ctx, userID, string(m))
		if err != nil {
			return nil, fmt.Errorf("failed to read usage for %s: %w", m, err)
		}
		d := &Decision{Allowed: limit.Admits(usage), Usage: usage, Limit: limit}
		if !d.Allowed {
			d.Message = LimitReachedMessage(limit, m)
		}
		return d, nil
	}

	return nil, fmt.Errorf("%w: %q has no valid limit on tier %q", ErrUnknownMetric, m, t)
}

// LimitReachedMessage returns the user-facing message for a reached ceiling.
func LimitReachedMessage(limit Limit, m Metric) string {
	return fmt.Sprintf("You've reached your monthly limit of %s %s. Upgrade to continue.", limit, m)
}

// InsufficientAllowanceMessage returns the user-facing message for a charge
// larger than what is left under a ceiling.
func InsufficientAllowanceMessage(limit Limit, m Metric, remaining, amount int64) string {
	return fmt.Sprintf("This request needs %d %s but only %d of your monthly limit of %s remain. Upgrade to continue.",
		amount, m, remaining, limit)
}

// UsagePercentage returns usage as a percentage of a bounded limit, capped
// at 100. Unbounded limits, capabilities and non-positive ceilings return 0.
func UsagePercentage(usage int64, limit Limit) float64 {
	n, ok := limit.Value()
	if !ok || n <= 0 {
		return 0
	}
	pct := float64(usage) / float64(n) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// AtRiskThreshold is the usage percentage from which a user is warned.
const AtRiskThreshold = 80.0

// IsUsageAtRisk reports whether usage reached AtRiskThreshold of a bounded limit.
func IsUsageAtRisk(usage int64, limit Limit) bool {
	return UsagePercentage(usage, limit) >= AtRiskThreshold
}

// IsUsageExceeded reports whether usage reached a bounded limit.
func IsUsageExceeded(usage int64, limit Limit) bool {
	n, ok := limit.Value()
	return ok && usage >= n
}

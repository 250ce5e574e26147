package enforcement

import (
	"net/http"
	"time"

	"postplanner-hq/quota/pkg/limits/ratelimit"
	"postplanner-hq/quota/pkg/limits/tier"
)

// Enforcer builds declines from limiter results and tier decisions.
type Enforcer struct {
	config Config
}

// NewEnforcer creates a new enforcer.
func NewEnforcer(config Config) *Enforcer {
	return &Enforcer{config: config}
}

// GetConfig returns the enforcer configuration.
func (e *Enforcer) GetConfig() Config {
	return e.config
}

// ForRate returns a rate_exceeded decline for a rejected check, or nil when
// the check succeeded.
func (e *Enforcer) ForRate(category string, res ratelimit.Result, now time.Time) *Decline {
	if res.Success {
		return nil
	}
	return &Decline{
		Kind:              KindRateExceeded,
		Status:            http.StatusTooManyRequests,
		Code:              CodeRateLimitExceeded,
		Message:           MessageRateExceeded,
		Category:          category,
		Limit:             int64(res.Limit),
		Remaining:         int64(res.Remaining),
		Reset:             res.Reset,
		RetryAfter:        res.RetryAfter(now),
		disableRetryAfter: e.config.DisableRetryAfter,
	}
}

// ForTier returns a decline for a denied tier decision, or nil when the
// decision allows the request. A denied capability yields
// feature_unavailable; a used-up bounded metric yields limit_exceeded.
func (e *Enforcer) ForTier(t tier.Tier, m tier.Metric, d *tier.Decision) *Decline {
	if d == nil || d.Allowed {
		return nil
	}

	decline := &Decline{
		Tier:    t,
		Metric:  m,
		Message: d.Message,
	}

	if d.Limit.Kind() == tier.KindCapability {
		decline.Kind = KindFeatureUnavailable
		decline.Status = http.StatusForbidden
		decline.Code = CodeFeatureUnavailable
		if decline.Message == "" {
			decline.Message = tier.MessageFeatureUnavailable
		}
	} else {
		n, _ := d.Limit.Value()
		decline.Kind = KindLimitExceeded
		decline.Status = http.StatusPaymentRequired
		decline.Code = CodeLimitExceeded
		decline.Limit = n
		decline.Usage = d.Usage
		decline.Remaining = max(0, n-d.Usage)
		if decline.Message == "" {
			decline.Message = tier.LimitReachedMessage(d.Limit, m)
		}
	}

	if !e.config.DisableUpgradeHints {
		if next, ok := tier.NextTier(t); ok {
			decline.UpgradeTo = next
			decline.UpgradeMessage, _ = tier.UpgradeMessage(t)
		}
	}

	return decline
}

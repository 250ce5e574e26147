package limits

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"postplanner-hq/quota/pkg/limits/enforcement"
	"postplanner-hq/quota/pkg/limits/ratelimit"
	"postplanner-hq/quota/pkg/limits/tier"
	"postplanner-hq/quota/pkg/limits/usage"
)

// Gate coordinates rate limiting, usage tracking and tier policy.
//
// It is the primary interface for request admission: handlers ask it
// whether a request may proceed, and it answers with a decline describing
// the refusal or nil.
//
// # Example
//
//	gate, _ := limits.NewGate(limits.GateConfig{Registry: reg, Tracker: tracker})
//
//	decision, decline, err := gate.Admit(ctx, "user-1", tier.Free, tier.AIGenerations)
//	if err != nil {
//	    return err
//	}
//	if decline != nil {
//	    // respond with decline.Status
//	}
type Gate struct {
	registry *ratelimit.Registry
	tracker  *usage.Tracker
	policy   *tier.Policy
	enforcer *enforcement.Enforcer
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// GateConfig contains the parts a Gate is built from.
type GateConfig struct {
	// Registry holds the per-category rate limiters. Required.
	Registry *ratelimit.Registry

	// Tracker holds usage counters. Required.
	Tracker *usage.Tracker

	// Enforcement configures how declines are built.
	Enforcement enforcement.Config

	// Metrics receives check and decision counts. Optional.
	Metrics *Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// NewGate creates a gate from config.
func NewGate(config GateConfig) (*Gate, error) {
	if config.Registry == nil {
		return nil, fmt.Errorf("%w: rate limit registry is required", ErrConfigInvalid)
	}
	if config.Tracker == nil {
		return nil, fmt.Errorf("%w: usage tracker is required", ErrConfigInvalid)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	return &Gate{
		registry: config.Registry,
		tracker:  config.Tracker,
		policy:   tier.NewPolicy(config.Tracker),
		enforcer: enforcement.NewEnforcer(config.Enforcement),
		metrics:  config.Metrics,
		logger:   config.Logger.With("component", "limits.gate"),
		now:      config.Clock,
	}, nil
}

// Registry returns the gate's rate limit registry.
func (g *Gate) Registry() *ratelimit.Registry {
	return g.registry
}

// Tracker returns the gate's usage tracker.
func (g *Gate) Tracker() *usage.Tracker {
	return g.tracker
}

// CheckRate registers a request by userID in category. A full window
// returns a rate_exceeded decline alongside the result; an unknown category
// returns ratelimit.ErrUnknownCategory.
func (g *Gate) CheckRate(ctx context.Context, category, userID string) (*ratelimit.Result, *enforcement.Decline, error) {
	start := time.Now()
	defer func() {
		g.metrics.RecordCheckDuration("rate", time.Since(start).Seconds())
	}()

	res, err := g.registry.Check(category, userID)
	if err != nil {
		return nil, nil, err
	}
	g.metrics.RecordRateCheck(category, res.Success)

	decline := g.enforcer.ForRate(category, res, g.now())
	if decline != nil {
		g.logger.DebugContext(ctx, "rate limit exceeded",
			"category", category,
			"user_id", userID,
			"limit", res.Limit,
			"reset", res.Reset,
		)
	}
	return &res, decline, nil
}

// Admit decides whether userID on tier t may use metric m now. It does not
// consume usage; call Consume once the work is done.
func (g *Gate) Admit(ctx context.Context, userID string, t tier.Tier, m tier.Metric) (*tier.Decision, *enforcement.Decline, error) {
	start := time.Now()
	defer func() {
		g.metrics.RecordCheckDuration("tier", time.Since(start).Seconds())
	}()

	decision, err := g.policy.CanUseFeature(ctx, userID, t, m)
	if err != nil {
		return nil, nil, err
	}
	g.metrics.RecordTierDecision(string(t), string(m), decision.Allowed)

	decline := g.enforcer.ForTier(t, m, decision)
	if decline != nil {
		g.logger.DebugContext(ctx, "tier limit reached",
			"user_id", userID,
			"tier", t,
			"metric", m,
			"kind", decline.Kind,
		)
	}
	return decision, decline, nil
}

// Consume adds amount to userID's usage of metric m.
func (g *Gate) Consume(ctx context.Context, userID string, m tier.Metric, amount int64) error {
	if err := g.tracker.TrackUsage(ctx, userID, string(m), amount); err != nil {
		return err
	}
	g.metrics.RecordUsage(string(m), amount)
	return nil
}

// Charge admits userID for metric m and, when admitted, consumes amount.
// A bounded charge is accepted only when usage plus amount stays within the
// ceiling; otherwise nothing is counted and a limit_exceeded decline is
// returned. Capability metrics are admitted without being counted.
func (g *Gate) Charge(ctx context.Context, userID string, t tier.Tier, m tier.Metric, amount int64) (*tier.Decision, *enforcement.Decline, error) {
	if amount <= 0 {
		return nil, nil, fmt.Errorf("%w: got %d", usage.ErrInvalidAmount, amount)
	}

	decision, decline, err := g.Admit(ctx, userID, t, m)
	if err != nil || decline != nil {
		return decision, decline, err
	}

	switch decision.Limit.Kind() {
	case tier.KindCapability:
		return decision, nil, nil
	case tier.KindUnbounded:
		if err := g.Consume(ctx, userID, m, amount); err != nil {
			return nil, nil, err
		}
		return decision, nil, nil
	}

	ceiling, _ := decision.Limit.Value()
	total, ok, err := g.tracker.TrackUsageWithin(ctx, userID, string(m), amount, ceiling)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		denied := &tier.Decision{Allowed: false, Usage: total, Limit: decision.Limit}
		if total >= ceiling {
			denied.Message = tier.LimitReachedMessage(decision.Limit, m)
		} else {
			denied.Message = tier.InsufficientAllowanceMessage(decision.Limit, m, ceiling-total, amount)
		}
		g.logger.DebugContext(ctx, "charge exceeds tier limit",
			"user_id", userID,
			"tier", t,
			"metric", m,
			"amount", amount,
			"usage", total,
		)
		return denied, g.enforcer.ForTier(t, m, denied), nil
	}

	g.metrics.RecordUsage(string(m), amount)
	decision.Usage = total
	return decision, nil, nil
}

// Usage reports userID's usage of every metric against tier t.
// Capability metrics are listed with zero usage.
func (g *Gate) Usage(ctx context.Context, userID string, t tier.Tier) (*UsageReport, error) {
	limits, err := tier.GetTierLimits(t)
	if err != nil {
		return nil, err
	}

	report := &UsageReport{
		UserID:  userID,
		Tier:    t,
		Period:  string(g.tracker.Period()),
		Metrics: make([]MetricUsage, 0, len(limits)),
	}

	for _, m := range tier.Metrics() {
		limit := limits[m]
		mu := MetricUsage{Metric: m, Limit: limit}

		if limit.IsNumeric() {
			n, err := g.tracker.GetUsage(ctx, userID, string(m))
			if err != nil {
				return nil, err
			}
			mu.Usage = n
			mu.Percentage = tier.UsagePercentage(n, limit)
			mu.AtRisk = tier.IsUsageAtRisk(n, limit)
			mu.Exceeded = tier.IsUsageExceeded(n, limit)
		}
		report.Metrics = append(report.Metrics, mu)
	}

	return report, nil
}

// Sweep removes expired rate limit buckets and refreshes the bucket gauge.
func (g *Gate) Sweep(now time.Time) int {
	removed := g.registry.Sweep(now)
	g.metrics.SetBuckets(g.registry.Len())
	return removed
}

// AsError converts a decline into a *LimitError for callers that propagate
// refusals as errors.
func AsError(identifier string, d *enforcement.Decline) error {
	if d == nil {
		return nil
	}

	e := &LimitError{Type: string(d.Kind), Identifier: identifier, Err: d}
	switch d.Kind {
	case enforcement.KindRateExceeded:
		e.Limit, e.Current = d.Limit, d.Limit-d.Remaining
		e.Err = fmt.Errorf("%w: %w", ErrRateLimitExceeded, d)
	case enforcement.KindLimitExceeded:
		e.Limit, e.Current = d.Limit, d.Usage
		e.Err = fmt.Errorf("%w: %w", ErrUsageLimitExceeded, d)
	case enforcement.KindFeatureUnavailable:
		e.Limit, e.Current = false, true
		e.Err = fmt.Errorf("%w: %w", ErrFeatureUnavailable, d)
	}
	return e
}

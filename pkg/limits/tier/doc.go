// Package tier defines subscription tiers and the static limits table that
// decides whether a user may use a feature.
//
// # Overview
//
// Four tiers exist: free, starter, pro and agency. Each tier maps every
// Metric to a Limit, which is one of:
//
//   - Bounded(n): a numeric ceiling; usage below n is admitted
//   - Unbounded(): no ceiling; always admitted
//   - Capability(b): a boolean feature flag
//
// The table is closed. Every tier defines every metric explicitly and there
// is no inheritance between tiers. An unknown tier name is a configuration
// error and is reported as ErrUnknownTier; it is never coerced to free.
//
// # Usage
//
//	policy := tier.NewPolicy(tracker)
//	decision, err := policy.CanUseFeature(ctx, "user-1", tier.Free, tier.AIGenerations)
//	if err != nil {
//	    return err // unknown tier or metric
//	}
//	if !decision.Allowed {
//	    fmt.Println(decision.Message)
//	}
//
// # Thread Safety
//
// The table never mutates at runtime. Policy is safe for concurrent use as
// long as its UsageReader is.
package tier

// Package limits decides whether a user may make a request or use a feature.
//
// # Overview
//
// Three independent mechanisms feed one Gate:
//
//   - ratelimit: fixed-window request limits per endpoint category and token
//   - usage: per-user, per-metric counters for the current period
//   - tier: the static plan table and the feature checks built on it
//
// The Gate combines them and reports refusals as enforcement.Decline values,
// keeping real failures (storage, unknown tier) as ordinary errors.
//
// # Architecture
//
// The package is organized into sub-packages:
//
//   - ratelimit: Fixed-window limiter and per-category registry
//   - usage: Usage tracker over a counter store
//   - tier: Tier table, feature policy, billing catalog
//   - storage: Counter backends (memory, SQLite, Redis)
//   - enforcement: Decline taxonomy and HTTP mapping
//   - janitor: Scheduled sweep and cleanup jobs
//
// # Usage
//
//	gate, err := limits.NewGate(limits.GateConfig{
//	    Registry: registry,
//	    Tracker:  tracker,
//	})
//
//	// Per-request rate check
//	res, decline, err := gate.CheckRate(ctx, "generate", userID)
//	if decline != nil {
//	    // 429
//	}
//
//	// Metered feature
//	_, decline, err = gate.Admit(ctx, userID, tier.Free, tier.AIGenerations)
//	if decline == nil {
//	    err = gate.Consume(ctx, userID, tier.AIGenerations, 1)
//	}
//
// # Thread Safety
//
// The Gate holds no mutable state of its own. It is as safe for concurrent
// use as its registry and tracker, both of which are.
package limits

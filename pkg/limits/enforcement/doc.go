// Package enforcement turns limit outcomes into declines.
//
// # Overview
//
// A request can be refused for one of three reasons, each with its own
// HTTP status and error code:
//
//   - rate_exceeded: the category's request window is full (429)
//   - limit_exceeded: a bounded tier metric is used up (402)
//   - feature_unavailable: the tier lacks a capability (403)
//
// Usage and configuration failures are never declines; they surface as
// ordinary errors so that callers can tell "no" apart from "broken".
//
// # Usage
//
//	enforcer := enforcement.NewEnforcer(enforcement.Config{})
//
//	res := registry.Check("generate", userID)
//	if d := enforcer.ForRate("generate", res, time.Now()); d != nil {
//	    d.WriteHeaders(w.Header())
//	    // respond with d.Status and d.Body()
//	}
//
// # Thread Safety
//
// The Enforcer is immutable after construction and can be shared.
package enforcement

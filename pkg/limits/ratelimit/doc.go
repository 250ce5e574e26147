// Package ratelimit provides a fixed-window request rate limiter keyed by
// caller token.
//
// # Overview
//
// A Limiter enforces one Policy ("at most Limit requests per Interval") for
// any number of tokens. Each token gets a bucket the first time it is seen.
// The bucket's window starts at that first request and ends Interval later;
// the first request after the window ends opens a new one.
//
//	limiter, err := ratelimit.NewLimiter(ratelimit.Policy{
//	    Interval: time.Minute,
//	    Limit:    10,
//	})
//	res := limiter.Check("user-1")
//	if !res.Success {
//	    // reject until res.Reset
//	}
//
// Rejected attempts are not counted. A check at count == Limit is rejected;
// the first check of a new window always succeeds with Remaining = Limit-1.
// An empty token is treated as the token "anonymous".
//
// A Registry holds one Limiter per endpoint category.
//
// # Bucket Lifetime
//
// Buckets are created lazily and kept until Sweep removes the ones whose
// window has ended. Without sweeping, memory grows with the number of
// distinct tokens seen. WithMaxBuckets bounds memory at the cost of
// occasionally forgetting a live bucket.
//
// # Thread Safety
//
// Buckets are spread over independently locked shards and every bucket has
// its own mutex. Checks for unrelated tokens never wait on each other beyond
// a brief shard lookup, and concurrent checks for one token admit exactly
// Limit requests per window.
package ratelimit

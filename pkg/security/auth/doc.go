// Package auth resolves the caller identity for the HTTP surface.
//
// An Identity carries the user ID that keys rate limit buckets and usage
// counters, and the tier used for feature decisions. It comes from one of:
//
//   - A configured API key, looked up in an APIKeyValidator. Keys are read
//     from headers or query parameters, optionally behind a scheme prefix.
//   - An HS256 JWT in the Authorization header. The "sub" claim is the user
//     ID and the tier claim (default "tier") selects the tier.
//   - The shared anonymous identity on the free tier, when enabled.
//
// Failures answer 401 with {"success":false,"error":"Unauthorized","code":"UNAUTHORIZED"}.
package auth

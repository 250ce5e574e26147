// Package metrics owns the Prometheus registry served at the metrics
// endpoint and records HTTP request metrics.
//
// Metrics:
//   - quota_http_requests_total{route,method,status}
//   - quota_http_request_duration_seconds{route,method}
//   - quota_http_requests_in_flight
//
// Route labels are capped by a CardinalityLimiter; routes past the cap are
// recorded as "other". Admission metrics from package limits are registered
// on the same registry via Collector.Registry.
package metrics

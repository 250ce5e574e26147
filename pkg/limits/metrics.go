package limits

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the limits package.
type Metrics struct {
	// Rate limit checks
	rateChecks   *prometheus.CounterVec
	rateDeclines *prometheus.CounterVec

	// Tier decisions and usage
	tierDecisions   *prometheus.CounterVec
	usageIncrements *prometheus.CounterVec

	// Live limiter buckets
	buckets prometheus.Gauge

	// Check latency
	checkDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		rateChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quota_rate_limit_checks_total",
				Help: "Total number of rate limit checks performed",
			},
			[]string{"category", "result"},
		),

		rateDeclines: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quota_rate_limit_declines_total",
				Help: "Total number of requests declined by a rate limit",
			},
			[]string{"category"},
		),

		tierDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quota_tier_decisions_total",
				Help: "Total number of tier feature decisions",
			},
			[]string{"tier", "metric", "result"},
		),

		usageIncrements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quota_usage_increments_total",
				Help: "Total usage units tracked per metric",
			},
			[]string{"metric"},
		),

		buckets: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "quota_rate_limit_buckets",
				Help: "Number of rate limit buckets currently held",
			},
		),

		checkDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quota_check_duration_seconds",
				Help:    "Duration of limit checks in seconds",
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
			[]string{"operation"},
		),
	}
}

// The Record methods are no-ops on a nil *Metrics.

// RecordRateCheck records a rate limit check.
func (m *Metrics) RecordRateCheck(category string, allowed bool) {
	if m == nil {
		return
	}
	m.rateChecks.WithLabelValues(category, result(allowed)).Inc()
	if !allowed {
		m.rateDeclines.WithLabelValues(category).Inc()
	}
}

// RecordTierDecision records a tier feature decision.
func (m *Metrics) RecordTierDecision(tier, metric string, allowed bool) {
	if m == nil {
		return
	}
	m.tierDecisions.WithLabelValues(tier, metric, result(allowed)).Inc()
}

// RecordUsage records tracked usage units.
func (m *Metrics) RecordUsage(metric string, amount int64) {
	if m == nil {
		return
	}
	m.usageIncrements.WithLabelValues(metric).Add(float64(amount))
}

// SetBuckets updates the live bucket gauge.
func (m *Metrics) SetBuckets(n int) {
	if m == nil {
		return
	}
	m.buckets.Set(float64(n))
}

// RecordCheckDuration records the duration of a limit check operation.
func (m *Metrics) RecordCheckDuration(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.checkDuration.WithLabelValues(operation).Observe(seconds)
}

func result(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "declined"
}

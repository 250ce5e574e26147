package telemetry

import (
	"fmt"
	"io"
	"log/slog"

	"postplanner-hq/quota/pkg/config"
	"postplanner-hq/quota/pkg/telemetry/health"
	"postplanner-hq/quota/pkg/telemetry/logging"
	"postplanner-hq/quota/pkg/telemetry/metrics"
)

// Telemetry holds the logger, metrics collector and health checker built
// from one TelemetryConfig.
type Telemetry struct {
	logger  *slog.Logger
	metrics *metrics.Collector
	health  *health.Checker
	config  config.TelemetryConfig
}

// New builds the telemetry components. Logs are written to w.
func New(cfg config.TelemetryConfig, w io.Writer) (*Telemetry, error) {
	logger, err := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
		RedactPII: cfg.Logging.RedactEnabled(),
		Writer:    w,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &Telemetry{
		logger:  logger,
		metrics: metrics.NewCollector(metrics.Config{RuntimeMetrics: true}, nil),
		health:  health.New(cfg.Health.CheckTimeout),
		config:  cfg,
	}, nil
}

// Logger returns the structured logger.
func (t *Telemetry) Logger() *slog.Logger {
	return t.logger
}

// Metrics returns the metrics collector.
func (t *Telemetry) Metrics() *metrics.Collector {
	return t.metrics
}

// Health returns the health checker.
func (t *Telemetry) Health() *health.Checker {
	return t.health
}

// MetricsEnabled reports whether the metrics endpoint should be served.
func (t *Telemetry) MetricsEnabled() bool {
	return t.config.Metrics.IsEnabled()
}

// Config returns the configuration the components were built from.
func (t *Telemetry) Config() config.TelemetryConfig {
	return t.config
}

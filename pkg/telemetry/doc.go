// Package telemetry bundles the service's observability components.
//
// # Components
//
//   - logging: slog handler with context fields and redaction
//   - metrics: Prometheus registry and HTTP request metrics
//   - health: liveness and readiness checks
//
// # Usage
//
//	tel, err := telemetry.New(cfg.Telemetry, os.Stdout)
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(tel.Logger())
//	gateMetrics := limits.NewMetrics(tel.Metrics().Registry())
package telemetry

package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"postplanner-hq/quota/pkg/config"
	"postplanner-hq/quota/pkg/limits"
	"postplanner-hq/quota/pkg/security/auth"
	"postplanner-hq/quota/pkg/server/api"
	"postplanner-hq/quota/pkg/server/middleware"
	"postplanner-hq/quota/pkg/telemetry/health"
	"postplanner-hq/quota/pkg/telemetry/metrics"
)

// RouterConfig contains everything the router is built from.
type RouterConfig struct {
	// Gate answers the /v1 API. Required.
	Gate *limits.Gate

	// Authenticator resolves callers of the /v1 API. Required.
	Authenticator *auth.Authenticator

	// Health serves the liveness and readiness checks. Optional.
	Health *health.Checker

	// Metrics records HTTP metrics and serves MetricsPath. Optional.
	Metrics *metrics.Collector

	// Throttle caps the server-wide request rate of the /v1 API.
	Throttle config.ThrottleConfig

	// Health and metrics paths. Defaults: /health, /ready, /metrics.
	LivenessPath  string
	ReadinessPath string
	MetricsPath   string

	// Version is reported on /version.
	Version, Commit, BuildTime string

	Logger *slog.Logger
}

// NewRouter builds the HTTP handler of the quota server.
//
// Health checks, /metrics and /version are unauthenticated and never throttled.
// The /v1 API goes through the throttle and then authentication.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.LivenessPath == "" {
		cfg.LivenessPath = config.DefaultLivenessPath
	}
	if cfg.ReadinessPath == "" {
		cfg.ReadinessPath = config.DefaultReadinessPath
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = config.DefaultMetricsPath
	}

	h := NewHandlers(cfg.Gate, cfg.Logger)
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(cfg.Logger, cfg.Metrics))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = api.WriteError(w, "Not found", api.CodeNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = api.WriteError(w, "Method not allowed", api.CodeMethodNotAllowed)
	})

	if cfg.Health != nil {
		r.Get(cfg.LivenessPath, cfg.Health.LivenessHandler())
		r.Get(cfg.ReadinessPath, cfg.Health.ReadinessHandler())
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, cfg.MetricsPath, cfg.Metrics.Handler())
	}
	r.Get("/version", health.VersionHandler(cfg.Version, cfg.Commit, cfg.BuildTime))

	r.Route("/v1", func(r chi.Router) {
		if cfg.Throttle.Enabled {
			r.Use(middleware.Throttle(cfg.Throttle.RequestsPerSecond, cfg.Throttle.Burst))
		}
		r.Use(cfg.Authenticator.Handle)

		r.Post("/ratelimit/{category}", h.CheckRate)
		r.Post("/usage/{metric}", h.Charge)
		r.Get("/usage", h.Usage)
		r.Get("/features/{metric}", h.Feature)
		r.Get("/tiers", h.ListTiers)
		r.Get("/tiers/{tier}", h.GetTier)
	})

	return r
}

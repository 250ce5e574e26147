package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"postplanner-hq/quota/pkg/config"
	"postplanner-hq/quota/pkg/limits"
	"postplanner-hq/quota/pkg/limits/enforcement"
	"postplanner-hq/quota/pkg/limits/janitor"
	"postplanner-hq/quota/pkg/limits/ratelimit"
	"postplanner-hq/quota/pkg/limits/storage"
	"postplanner-hq/quota/pkg/limits/tier"
	"postplanner-hq/quota/pkg/limits/usage"
	"postplanner-hq/quota/pkg/security/auth"
	"postplanner-hq/quota/pkg/server"
	"postplanner-hq/quota/pkg/telemetry"
)

// healthCheckKey is read by the storage readiness check. It is never written.
const healthCheckKey = "health:check"

// app is the wired quota service: everything `quota run` starts, minus the
// listener and the config watcher.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	telemetry *telemetry.Telemetry

	store     storage.Store
	registry  *ratelimit.Registry
	tracker   *usage.Tracker
	gate      *limits.Gate
	validator *auth.APIKeyValidator
	janitor   *janitor.Scheduler

	handler http.Handler
}

// newApp builds the service from cfg. Logs go to logOut. The caller must
// Close the app to release the counter store.
func newApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*app, error) {
	tel, err := telemetry.New(cfg.Telemetry, logOut)
	if err != nil {
		return nil, err
	}
	logger := tel.Logger()

	store, err := openStore(ctx, cfg.Usage)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		telemetry: tel,
		store:     store,
	}
	if err := a.wire(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	cfg := a.cfg

	period, err := usage.ParsePeriod(cfg.Usage.Period)
	if err != nil {
		return err
	}
	a.tracker = usage.NewTracker(a.store,
		usage.WithPeriod(period),
		usage.WithLogger(a.logger),
	)

	opts := []ratelimit.Option{ratelimit.WithShards(cfg.Limiter.Shards)}
	if cfg.Limiter.MaxBuckets > 0 {
		opts = append(opts, ratelimit.WithMaxBuckets(cfg.Limiter.MaxBuckets))
	}
	a.registry, err = ratelimit.NewRegistry(ratePolicies(cfg.Limiter), opts...)
	if err != nil {
		return fmt.Errorf("failed to create rate limiters: %w", err)
	}

	var limitMetrics *limits.Metrics
	if a.telemetry.MetricsEnabled() {
		limitMetrics = limits.NewMetrics(a.telemetry.Metrics().Registry())
	}
	a.gate, err = limits.NewGate(limits.GateConfig{
		Registry:    a.registry,
		Tracker:     a.tracker,
		Enforcement: enforcement.Config{},
		Metrics:     limitMetrics,
		Logger:      a.logger,
	})
	if err != nil {
		return err
	}

	keys, err := apiKeys(cfg.Auth.Keys)
	if err != nil {
		return err
	}
	a.validator = auth.NewAPIKeyValidator(keys)

	var verifier *auth.JWTVerifier
	if cfg.Auth.JWT.Secret != "" {
		verifier, err = auth.NewJWTVerifier(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer, cfg.Auth.JWT.TierClaim)
		if err != nil {
			return fmt.Errorf("failed to create JWT verifier: %w", err)
		}
	}

	authenticator := auth.NewAuthenticator(auth.AuthenticatorConfig{
		Validator:      a.validator,
		Verifier:       verifier,
		Sources:        keySources(cfg.Auth.Sources),
		AllowAnonymous: cfg.Auth.AllowAnonymous,
		Logger:         a.logger,
	})

	health := a.telemetry.Health()
	health.RegisterCheck("usage_store", storeCheck(a.store))

	routerCfg := server.RouterConfig{
		Gate:          a.gate,
		Authenticator: authenticator,
		Health:        health,
		Throttle:      cfg.Server.Throttle,
		LivenessPath:  cfg.Telemetry.Health.LivenessPath,
		ReadinessPath: cfg.Telemetry.Health.ReadinessPath,
		MetricsPath:   cfg.Telemetry.Metrics.Path,
		Version:       Version,
		Commit:        GitCommit,
		BuildTime:     BuildDate,
		Logger:        a.logger,
	}
	if a.telemetry.MetricsEnabled() {
		routerCfg.Metrics = a.telemetry.Metrics()
	}
	a.handler = server.NewRouter(routerCfg)

	a.janitor = janitor.NewScheduler(janitor.Config{
		SweepSchedule:   cfg.Limiter.SweepSchedule,
		CleanupSchedule: cfg.Usage.CleanupSchedule,
		Logger:          a.logger,
	}, a.gate, a.tracker)

	return nil
}

// applyConfig swaps the parts of cfg that can change without a restart:
// rate policies and API keys. Everything else needs a restart.
func (a *app) applyConfig(cfg *config.Config) error {
	keys, err := apiKeys(cfg.Auth.Keys)
	if err != nil {
		return err
	}
	if err := a.registry.Apply(ratePolicies(cfg.Limiter)); err != nil {
		return fmt.Errorf("failed to apply rate policies: %w", err)
	}
	a.validator.Replace(keys)

	a.logger.Info("configuration applied",
		"categories", len(cfg.Limiter.Categories),
		"api_keys", len(keys),
	)
	return nil
}

// Close stops the janitor and closes the counter store.
func (a *app) Close() error {
	a.janitor.Stop()
	return a.store.Close()
}

// openStore opens the configured counter backend.
func openStore(ctx context.Context, cfg config.UsageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return storage.NewMemoryStoreWithConfig(storage.MemoryStoreConfig{
			MaxEntries:      cfg.Memory.MaxEntries,
			CleanupInterval: cfg.Memory.CleanupInterval,
		}), nil

	case "sqlite":
		store, err := storage.NewSQLiteStoreWithConfig(storage.SQLiteStoreConfig{
			Path:               cfg.SQLite.Path,
			Driver:             cfg.SQLite.Driver,
			BusyTimeout:        cfg.SQLite.BusyTimeout,
			CheckpointInterval: cfg.SQLite.CheckpointInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite usage store: %w", err)
		}
		return store, nil

	case "redis":
		store, err := storage.NewRedisStoreWithConfig(ctx, storage.RedisStoreConfig{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
			KeyPrefix:   cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open Redis usage store: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported usage backend: %s", cfg.Backend)
	}
}

// storeCheck reports the store as unready when it cannot answer a read.
func storeCheck(store storage.Store) func(ctx context.Context) error {
	type pinger interface {
		Ping(ctx context.Context) error
	}
	if p, ok := store.(pinger); ok {
		return p.Ping
	}
	return func(ctx context.Context) error {
		_, err := store.Get(ctx, healthCheckKey)
		return err
	}
}

// ratePolicies converts the limiter section into registry policies, with
// the default policy filling unset fields of each category.
func ratePolicies(cfg config.LimiterConfig) map[string]ratelimit.Policy {
	categories := cfg.Categories
	if len(categories) == 0 {
		categories = config.DefaultCategories()
	}

	policies := make(map[string]ratelimit.Policy, len(categories))
	for name, pc := range categories {
		p := ratelimit.Policy{Interval: pc.Interval, Limit: pc.Limit}
		if p.Interval == 0 {
			p.Interval = cfg.Default.Interval
		}
		if p.Limit == 0 {
			p.Limit = cfg.Default.Limit
		}
		policies[name] = p.WithDefaults()
	}
	return policies
}

func apiKeys(keys []config.APIKeyConfig) ([]*auth.APIKeyInfo, error) {
	out := make([]*auth.APIKeyInfo, 0, len(keys))
	var errs []error
	for i, k := range keys {
		t, err := tier.ParseTier(k.Tier)
		if err != nil {
			errs = append(errs, fmt.Errorf("auth.keys[%d]: %w", i, err))
			continue
		}
		out = append(out, &auth.APIKeyInfo{
			Key:     k.Key,
			UserID:  k.UserID,
			Tier:    t,
			Enabled: !k.Disabled,
		})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func keySources(sources []config.APIKeySource) []auth.APIKeySource {
	out := make([]auth.APIKeySource, len(sources))
	for i, s := range sources {
		out[i] = auth.APIKeySource{Type: s.Type, Name: s.Name, Scheme: s.Scheme}
	}
	return out
}

// Package config provides configuration management for the quota service.
//
// Configuration is read from a YAML file, filled with defaults, optionally
// overridden from the environment and validated before use.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("quota.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("quota.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention QUOTA_SECTION_FIELD:
//
//   - QUOTA_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - QUOTA_USAGE_BACKEND overrides usage.backend
//   - QUOTA_AUTH_JWT_SECRET overrides auth.jwt.secret
//
// Billing price identifiers are also read from STRIPE_STARTER_PRICE_ID,
// STRIPE_PRO_PRICE_ID and STRIPE_AGENCY_PRICE_ID. Before overrides are
// applied, .env.local and .env files next to the configuration file are
// loaded; variables already present in the environment win.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// Limiter categories that leave interval or limit unset inherit them from
// limiter.default. Omitting limiter.categories entirely yields the built-in
// endpoint categories.
//
// # Hot Reload
//
// FileWatcher watches the configuration file and calls back after each
// burst of writes. Only limiter policies are meant to change at runtime;
// the caller decides what to apply from the reloaded Config.
package config

/*
Package server exposes the quota gate over HTTP.

# Routes

	POST /v1/ratelimit/{category}  rate limit check for the caller
	POST /v1/usage/{metric}        admit, then consume {"amount":n}
	GET  /v1/usage                 usage report for the caller's tier
	GET  /v1/features/{metric}     feature check without consuming
	GET  /v1/tiers                 static tier table
	GET  /v1/tiers/{tier}          one tier (404 when unknown)
	GET  /health, /ready           liveness and readiness
	GET  /metrics                  Prometheus exposition
	GET  /version                  build information

Successful responses use {"success":true,"data":...}. A rate decline is a
429 with X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset (unix
milliseconds) and Retry-After headers. A used-up metric is a 402 and an
unavailable feature a 403, both with an upgrade hint when a higher tier
exists.

# Usage

	router := server.NewRouter(server.RouterConfig{
		Gate:          gate,
		Authenticator: authenticator,
		Health:        tel.Health(),
		Metrics:       tel.Metrics(),
		Logger:        logger,
	})

	srv := server.New(cfg.Server, router, server.WithLogger(logger))
	if err := srv.Start(ctx); err != nil {
		return err
	}
*/
package server

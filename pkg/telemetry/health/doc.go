// Package health provides liveness and readiness checks.
//
// Liveness always succeeds while the process can serve HTTP. Readiness runs
// every registered CheckFunc concurrently, each under its own timeout, and
// fails with 503 if any of them fails. The service registers a check for
// its usage store so that a lost Redis or SQLite connection takes the
// instance out of rotation.
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("usage_store", func(ctx context.Context) error {
//	    _, err := store.Get(ctx, "health:check")
//	    return err
//	})
//	r.Get("/ready", checker.ReadinessHandler())
package health

// Package logging builds the service's structured logger.
//
// New returns a plain *slog.Logger, so every package takes *slog.Logger and
// stays unaware of this one. The handler behind it does two things:
//
//   - Adds request_id, user_id, tier and category from the context to every
//     record logged with a *Context method.
//   - Redacts API keys, bearer tokens, JWTs and email addresses when
//     RedactPII is set. Values under keys such as "token" or "api_key" are
//     masked whole.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json", RedactPII: true})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "usage tracked", "metric", "aiGenerations")
package logging

package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// UserKey is the context key for user identifiers.
	UserKey contextKey = "user_id"

	// TierKey is the context key for the caller's subscription tier.
	TierKey contextKey = "tier"

	// CategoryKey is the context key for the rate limit category.
	CategoryKey contextKey = "category"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return getString(ctx, RequestIDKey)
}

// WithUser adds a user identifier to the context.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetUser retrieves the user identifier from the context.
func GetUser(ctx context.Context) string {
	return getString(ctx, UserKey)
}

// WithTier adds a tier name to the context.
func WithTier(ctx context.Context, tier string) context.Context {
	return context.WithValue(ctx, TierKey, tier)
}

// GetTier retrieves the tier name from the context.
func GetTier(ctx context.Context) string {
	return getString(ctx, TierKey)
}

// WithCategory adds a rate limit category to the context.
func WithCategory(ctx context.Context, category string) context.Context {
	return context.WithValue(ctx, CategoryKey, category)
}

// GetCategory retrieves the rate limit category from the context.
func GetCategory(ctx context.Context) string {
	return getString(ctx, CategoryKey)
}

func getString(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// extractContextFields extracts the fields set on ctx, in a fixed order.
func extractContextFields(ctx context.Context) []slog.Attr {
	var fields []slog.Attr

	for _, key := range []contextKey{RequestIDKey, UserKey, TierKey, CategoryKey} {
		if v := getString(ctx, key); v != "" {
			fields = append(fields, slog.String(string(key), v))
		}
	}

	return fields
}

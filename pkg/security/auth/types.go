package auth

import (
	"context"
	"errors"

	"postplanner-hq/quota/pkg/limits/tier"
)

// AnonymousUserID identifies unauthenticated callers when anonymous access
// is allowed. They share one rate limit bucket per category.
const AnonymousUserID = "anonymous"

// Authentication methods recorded on an Identity.
const (
	MethodAPIKey    = "api_key"
	MethodJWT       = "jwt"
	MethodAnonymous = "anonymous"
)

var (
	// ErrNoCredentials is returned when a request carries no credentials.
	ErrNoCredentials = errors.New("no credentials")

	// ErrInvalidAPIKey is returned for unknown API keys.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrAPIKeyDisabled is returned for keys that exist but are disabled.
	ErrAPIKeyDisabled = errors.New("API key disabled")

	// ErrInvalidToken is returned for JWTs that fail verification.
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Tier   tier.Tier
	Method string
}

// Anonymous returns the identity used for unauthenticated callers.
func Anonymous() *Identity {
	return &Identity{UserID: AnonymousUserID, Tier: tier.Free, Method: MethodAnonymous}
}

// APIKeyInfo represents an API key with metadata
type APIKeyInfo struct {
	Key     string
	UserID  string
	Tier    tier.Tier
	Enabled bool
}

// APIKeySource defines where to extract API keys from
type APIKeySource struct {
	Type   string // header, query
	Name   string // Header name or query param
	Scheme string // "Bearer", etc. (optional)
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the caller identity.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

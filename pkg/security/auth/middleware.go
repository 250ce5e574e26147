package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"postplanner-hq/quota/pkg/telemetry/logging"
)

// Authenticator is HTTP middleware that resolves the caller identity.
//
// Credentials are tried in order: an API key from the configured sources,
// then a Bearer JWT when a verifier is set. A presented but invalid
// credential is rejected; it never falls back to anonymous access.
type Authenticator struct {
	validator      *APIKeyValidator
	verifier       *JWTVerifier
	sources        []APIKeySource
	allowAnonymous bool
	logger         *slog.Logger
}

// AuthenticatorConfig configures an Authenticator.
type AuthenticatorConfig struct {
	Validator      *APIKeyValidator
	Verifier       *JWTVerifier
	Sources        []APIKeySource
	AllowAnonymous bool
	Logger         *slog.Logger
}

// NewAuthenticator creates the middleware.
func NewAuthenticator(cfg AuthenticatorConfig) *Authenticator {
	if cfg.Validator == nil {
		cfg.Validator = NewAPIKeyValidator(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Authenticator{
		validator:      cfg.Validator,
		verifier:       cfg.Verifier,
		sources:        cfg.Sources,
		allowAnonymous: cfg.AllowAnonymous,
		logger:         cfg.Logger.With("component", "auth"),
	}
}

// Handle wraps an HTTP handler with authentication.
func (a *Authenticator) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.Authenticate(r)
		if err != nil {
			a.logger.WarnContext(r.Context(), "authentication failed",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			writeUnauthorized(w)
			return
		}

		ctx := WithIdentity(r.Context(), id)
		ctx = logging.WithUser(ctx, id.UserID)
		ctx = logging.WithTier(ctx, string(id.Tier))

		a.logger.DebugContext(ctx, "caller authenticated", "method", id.Method)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authenticate resolves the identity for r.
func (a *Authenticator) Authenticate(r *http.Request) (*Identity, error) {
	if key, ok := a.extractAPIKey(r); ok {
		info, err := a.validator.Validate(key)
		if err != nil {
			return nil, err
		}
		return &Identity{UserID: info.UserID, Tier: info.Tier, Method: MethodAPIKey}, nil
	}

	if a.verifier != nil {
		if token, ok := bearerToken(r); ok {
			return a.verifier.Verify(token)
		}
	}

	if a.allowAnonymous {
		return Anonymous(), nil
	}
	return nil, ErrNoCredentials
}

// extractAPIKey extracts the API key from the request using configured sources
func (a *Authenticator) extractAPIKey(r *http.Request) (string, bool) {
	for _, source := range a.sources {
		switch source.Type {
		case "header":
			value := r.Header.Get(source.Name)
			if value == "" {
				continue
			}
			if source.Scheme == "" {
				return value, true
			}
			if rest, ok := strings.CutPrefix(value, source.Scheme+" "); ok {
				return rest, true
			}

		case "query":
			if value := r.URL.Query().Get(source.Name); value != "" {
				return value, true
			}
		}
	}
	return "", false
}

func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// IsAuthError reports whether err is a credential failure rather than an
// internal error.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNoCredentials) ||
		errors.Is(err, ErrInvalidAPIKey) ||
		errors.Is(err, ErrAPIKeyDisabled) ||
		errors.Is(err, ErrInvalidToken)
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="quota"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   "Unauthorized",
		"code":    "UNAUTHORIZED",
	})
}

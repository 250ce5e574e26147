package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"postplanner-hq/quota/pkg/limits/tier"
)

// DefaultTierClaim is the claim holding the caller's tier.
const DefaultTierClaim = "tier"

// JWTVerifier verifies HS256 tokens issued by the application backend.
// The subject claim becomes the user ID; the tier claim selects the tier
// and defaults to free when absent.
type JWTVerifier struct {
	secret    []byte
	issuer    string
	tierClaim string
}

// NewJWTVerifier creates a verifier. An empty issuer disables the issuer
// check; an empty tierClaim uses DefaultTierClaim.
func NewJWTVerifier(secret, issuer, tierClaim string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if tierClaim == "" {
		tierClaim = DefaultTierClaim
	}
	return &JWTVerifier{
		secret:    []byte(secret),
		issuer:    issuer,
		tierClaim: tierClaim,
	}, nil
}

// Verify parses and validates tokenString and returns the caller identity.
func (v *JWTVerifier) Verify(tokenString string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	t := tier.Free
	if raw, present := claims[v.tierClaim]; present {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s claim is not a string", ErrInvalidToken, v.tierClaim)
		}
		if t, err = tier.ParseTier(s); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
	}

	return &Identity{UserID: sub, Tier: t, Method: MethodJWT}, nil
}

// Issue signs a token for userID on tier t valid for ttl. It is used by
// the CLI to mint tokens for local testing.
func (v *JWTVerifier) Issue(userID string, t tier.Tier, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":       userID,
		v.tierClaim: string(t),
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
	if v.issuer != "" {
		claims["iss"] = v.issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Access tokens stay short-lived, refresh tokens carry
// the session across restarts of the client.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Authentication Methods Reference values used in the "amr" claim.
//
//	"pwd": password-based authentication
//	"otp": a one-time password was presented (TOTP or backup code)
//	"mfa": multi-factor auth was completed
const (
	AMRPassword = "pwd"
	AMROTP      = "otp"
	AMRMFA      = "mfa"
)

// Token use values for the "token_use" claim. Refresh tokens must never be
// accepted where an access token is expected, and vice versa.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// Claims are the token claims shared by access and refresh tokens. Keep
// changes additive so older tokens keep parsing.
type Claims struct {
	jwt.RegisteredClaims

	// Session ID, stable across refresh rotations within a session.
	SID string `json:"sid,omitempty"`

	// Role of the authenticated user: "admin", "manager" or "employee".
	Role string `json:"role,omitempty"`

	// Authentication Methods Reference, e.g. ["pwd","mfa"].
	AMR []string `json:"amr,omitempty"`

	// Username for the authenticated user.
	Username string `json:"username,omitempty"`

	// TokenUse distinguishes access tokens from refresh tokens.
	TokenUse string `json:"token_use,omitempty"`
}

// NewAccessClaims builds minimally-correct access token claims.
func NewAccessClaims(
	subject, sid string,
	role string,
	amr []string,
	ttl time.Duration,
	issuer string,
	audience []string,
	username string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		SID:      sid,
		Role:     role,
		AMR:      amr,
		Username: username,
		TokenUse: TokenUseAccess,
	}
}

// NewRefreshClaims builds refresh token claims. Refresh tokens carry the
// session id and AMR of the login they came from so rotated access tokens
// keep them, but no role or username since those can change mid-session.
func NewRefreshClaims(
	subject, sid string,
	amr []string,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		SID:      sid,
		AMR:      amr,
		TokenUse: TokenUseRefresh,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches the expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't used
// before it is valid (nbf).
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}

// ValidateTokenUse enforces the "token_use" claim.
func (c *Claims) ValidateTokenUse(expected string) error {
	if c.TokenUse != expected {
		return ErrTokenUse
	}
	return nil
}

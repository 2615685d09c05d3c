package domain

import "time"

// TokenPair is what the login and refresh endpoints return: a short-lived
// access token and a longer-lived refresh token, both signed JWTs.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    int64  `json:"expires_in"`           // seconds until access token expiry
}

// MFAChallengeResponse is returned from login when the account has MFA
// enabled. No tokens are issued until the challenge is answered.
type MFAChallengeResponse struct {
	MFARequired bool     `json:"mfa_required"` // always true
	UserID      string   `json:"user_id"`
	Methods     []string `json:"methods"` // e.g. ["totp", "backup_codes"]
}

// MFAEnrollResponse carries the TOTP enrollment material. The backup codes
// are plaintext here and are never recoverable afterwards.
type MFAEnrollResponse struct {
	Secret      string   `json:"secret"`       // base32 encoded TOTP secret
	OTPAuthURL  string   `json:"otpauth_url"`  // otpauth:// URL for QR code generation
	Issuer      string   `json:"issuer"`       // service name shown in authenticator apps
	Account     string   `json:"account"`      // account label, the user's email
	BackupCodes []string `json:"backup_codes"` // single-use recovery codes
}

// RevokedToken records a refresh token jti that must no longer be accepted,
// either because it was rotated or explicitly revoked on logout. Rows are
// kept until the underlying token would have expired anyway.
type RevokedToken struct {
	JTI       string
	UserID    string
	ExpiresAt time.Time // expiry of the revoked token, prune after this
	RevokedAt time.Time
}

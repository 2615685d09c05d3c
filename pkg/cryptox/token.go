package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize128 provides 128 bits of entropy (22 chars base64url).
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	TokenSize256 = 32
)

// GenerateToken creates a cryptographically secure random token of the given
// byte length, returned as a base64url string (URL-safe, no padding).
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateAlphanumericToken creates a random token drawn from [a-zA-Z0-9].
// Used for tokens that travel inside email links, where base64url's '-' and
// '_' tend to get mangled by copy/paste.
func GenerateAlphanumericToken(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	if length <= 0 {
		return "", fmt.Errorf("token length must be positive, got %d", length)
	}

	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random token: %w", err)
		}
		out[i] = charset[n.Int64()]
	}
	return string(out), nil
}

// GenerateHexCode creates a random lowercase hex string of the given length.
// Length must be even since each byte yields two hex digits.
func GenerateHexCode(length int) (string, error) {
	if length <= 0 || length%2 != 0 {
		return "", fmt.Errorf("hex code length must be positive and even, got %d", length)
	}

	buf := make([]byte, length/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate hex code: %w", err)
	}
	return fmt.Sprintf("%x", buf), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token,
// base64url encoded. Used to store hashed tokens in the database so they can
// be looked up without persisting the original value.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

package jwtx_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/q360hq/q360/pkg/cryptox"
	"github.com/q360hq/q360/pkg/jwtx"
)

func newTestSigner(t *testing.T, kid string) jwtx.Signer {
	t.Helper()

	pemBytes, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerEdDSA(kid, pemBytes)
	require.NoError(t, err)
	require.NoError(t, signer.Validate())

	return signer
}

func TestEdDSASignAndVerifyRoundTrip(t *testing.T) {
	signer := newTestSigner(t, "test-key-1")

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	claims := jwtx.NewAccessClaims(
		"user-123",
		"session-abc",
		"employee",
		[]string{jwtx.AMRPassword},
		jwtx.DefaultAccessTokenTTL,
		"q360-test",
		[]string{"q360"},
		"alice",
		time.Now().UTC(),
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	verifier := jwtx.NewVerifierEdDSA(keyset, "q360-test", []string{"q360"})
	parsed, err := verifier.Verify(token)
	require.NoError(t, err)

	require.Equal(t, claims.Subject, parsed.Subject)
	require.Equal(t, claims.SID, parsed.SID)
	require.Equal(t, claims.Role, parsed.Role)
	require.Equal(t, claims.Username, parsed.Username)
	require.Equal(t, jwtx.TokenUseAccess, parsed.TokenUse)
	require.ElementsMatch(t, claims.AMR, parsed.AMR)
	require.NotEmpty(t, parsed.ID)
}

func TestVerifyRejectsUnknownKID(t *testing.T) {
	signer := newTestSigner(t, "key-a")
	other := newTestSigner(t, "key-b")

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(other))

	claims := jwtx.NewAccessClaims(
		"user-123", "sid", "employee", []string{jwtx.AMRPassword},
		time.Minute, "iss", nil, "alice", time.Now().UTC(),
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	verifier := jwtx.NewVerifierEdDSA(keyset, "iss", nil)
	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	signer := newTestSigner(t, "key-exp")

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	claims := jwtx.NewAccessClaims(
		"user-123", "sid", "employee", []string{jwtx.AMRPassword},
		time.Minute, "iss", nil, "alice", time.Now().UTC().Add(-time.Hour),
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	verifier := jwtx.NewVerifierEdDSA(keyset, "iss", nil)
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	keyset := jwtx.NewKeySet()
	verifier := jwtx.NewVerifierEdDSA(keyset, "iss", nil)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := verifier.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	}
}

func TestVerifyRejectsIssuerMismatch(t *testing.T) {
	signer := newTestSigner(t, "key-iss")

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	claims := jwtx.NewAccessClaims(
		"user-123", "sid", "employee", []string{jwtx.AMRPassword},
		time.Minute, "someone-else", nil, "alice", time.Now().UTC(),
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	verifier := jwtx.NewVerifierEdDSA(keyset, "expected-issuer", nil)
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestRefreshClaimsCarryTokenUse(t *testing.T) {
	claims := jwtx.NewRefreshClaims(
		"user-123", "sid", []string{jwtx.AMRPassword},
		jwtx.DefaultRefreshTokenTTL, "iss", nil, time.Now().UTC(),
	)

	require.Equal(t, jwtx.TokenUseRefresh, claims.TokenUse)
	require.NoError(t, claims.ValidateTokenUse(jwtx.TokenUseRefresh))
	require.ErrorIs(t, claims.ValidateTokenUse(jwtx.TokenUseAccess), jwtx.ErrTokenUse)
}

func TestEphemeralKeyManager(t *testing.T) {
	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Issuer:  "q360-test",
		NumKeys: 2,
	})
	require.NoError(t, err)
	require.True(t, km.IsReady())
	require.Len(t, km.KeySet.PublicJWKS().Keys, 2)

	signer := km.GetSigner()
	require.NotNil(t, signer)

	claims := jwtx.NewAccessClaims(
		"user-123", "sid", "admin", []string{jwtx.AMRPassword, jwtx.AMRMFA},
		time.Minute, "q360-test", nil, "bob", time.Now().UTC(),
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	parsed, err := km.Verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "admin", parsed.Role)
}

func TestEphemeralKeyManagerRequiresIssuer(t *testing.T) {
	_, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{})
	require.Error(t, err)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/q360hq/q360/internal/store"
	"github.com/q360hq/q360/pkg/jwtx"
)

func newTokenService(t *testing.T, st store.Store) *TokenService {
	t.Helper()

	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Issuer:  "q360-test",
		NumKeys: 1,
	})
	require.NoError(t, err)

	return &TokenService{
		Store:  st,
		Keys:   km,
		Issuer: "q360-test",
	}
}

func TestAuthenticate(t *testing.T) {
	mailer := newCaptureMailer()
	st := newTestStore(t)
	users := &UserService{Store: st, Mailer: mailer}
	tokens := newTokenService(t, st)
	ctx := context.Background()

	registerVerified(t, users, mailer, "alice", "alice@example.com", "password123")

	t.Run("valid credentials", func(t *testing.T) {
		user, err := tokens.Authenticate(ctx, "alice", "password123")
		require.NoError(t, err)
		require.Equal(t, "alice", user.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := tokens.Authenticate(ctx, "alice", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := tokens.Authenticate(ctx, "nobody", "password123")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unverified email", func(t *testing.T) {
		_, err := users.Register(ctx, RegisterParams{
			Username:        "pending",
			Email:           "pending@example.com",
			Password:        "password123",
			PasswordConfirm: "password123",
		})
		require.NoError(t, err)

		_, err = tokens.Authenticate(ctx, "pending", "password123")
		require.ErrorIs(t, err, ErrEmailNotVerified)
	})
}

func TestLoginIssuesTokenPair(t *testing.T) {
	mailer := newCaptureMailer()
	st := newTestStore(t)
	users := &UserService{Store: st, Mailer: mailer}
	tokens := newTokenService(t, st)
	ctx := context.Background()

	registerVerified(t, users, mailer, "alice", "alice@example.com", "password123")

	pair, challenge, err := tokens.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	require.Nil(t, challenge)
	require.NotNil(t, pair)
	require.Equal(t, "Bearer", pair.TokenType)
	require.Equal(t, int64((15 * time.Minute).Seconds()), pair.ExpiresIn)

	access, err := tokens.Keys.Verifier.Verify(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, jwtx.TokenUseAccess, access.TokenUse)
	require.Equal(t, "alice", access.Username)
	require.Equal(t, "employee", access.Role)
	require.Equal(t, []string{jwtx.AMRPassword}, access.AMR)

	refresh, err := tokens.Keys.Verifier.Verify(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, jwtx.TokenUseRefresh, refresh.TokenUse)
	require.Equal(t, access.SID, refresh.SID)
	require.NotEqual(t, access.ID, refresh.ID)
}

func TestRefreshRotation(t *testing.T) {
	mailer := newCaptureMailer()
	st := newTestStore(t)
	users := &UserService{Store: st, Mailer: mailer}
	tokens := newTokenService(t, st)
	ctx := context.Background()

	registerVerified(t, users, mailer, "alice", "alice@example.com", "password123")
	pair, _, err := tokens.Login(ctx, "alice", "password123")
	require.NoError(t, err)

	next, err := tokens.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// Session id survives rotation.
	oldClaims, err := tokens.Keys.Verifier.Verify(pair.RefreshToken)
	require.NoError(t, err)
	newClaims, err := tokens.Keys.Verifier.Verify(next.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, oldClaims.SID, newClaims.SID)

	// Replaying the rotated token fails, the new one still works.
	_, err = tokens.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Refresh(ctx, next.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	mailer := newCaptureMailer()
	st := newTestStore(t)
	users := &UserService{Store: st, Mailer: mailer}
	tokens := newTokenService(t, st)
	ctx := context.Background()

	registerVerified(t, users, mailer, "alice", "alice@example.com", "password123")
	pair, _, err := tokens.Login(ctx, "alice", "password123")
	require.NoError(t, err)

	_, err = tokens.Refresh(ctx, pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevoke(t *testing.T) {
	mailer := newCaptureMailer()
	st := newTestStore(t)
	users := &UserService{Store: st, Mailer: mailer}
	tokens := newTokenService(t, st)
	ctx := context.Background()

	registerVerified(t, users, mailer, "alice", "alice@example.com", "password123")
	pair, _, err := tokens.Login(ctx, "alice", "password123")
	require.NoError(t, err)

	require.NoError(t, tokens.Revoke(ctx, pair.RefreshToken))

	// Revoked token can no longer be refreshed.
	_, err = tokens.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Revoking twice stays fine.
	require.NoError(t, tokens.Revoke(ctx, pair.RefreshToken))

	// Malformed input is rejected.
	require.ErrorIs(t, tokens.Revoke(ctx, "garbage"), ErrInvalidToken)
	require.ErrorIs(t, tokens.Revoke(ctx, ""), ErrInvalidToken)
}

func TestLoginWithMFAEnabledReturnsChallenge(t *testing.T) {
	mailer := newCaptureMailer()
	st := newTestStore(t)
	users := &UserService{Store: st, Mailer: mailer}
	tokens := newTokenService(t, st)
	mfa := &MFAService{Store: st, Issuer: "q360-test"}
	ctx := context.Background()

	user := registerVerified(t, users, mailer, "alice", "alice@example.com", "password123")
	enableMFAForUser(t, mfa, st, user.ID)

	pair, challenge, err := tokens.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	require.Nil(t, pair)
	require.NotNil(t, challenge)
	require.True(t, challenge.MFARequired)
	require.Equal(t, user.ID, challenge.UserID)
	require.Contains(t, challenge.Methods, "totp")
}

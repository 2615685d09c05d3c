package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/internal/store"
	"github.com/q360hq/q360/pkg/cryptox"
	"github.com/q360hq/q360/pkg/idx"
	"github.com/q360hq/q360/pkg/jwtx"
)

// TokenService owns the session lifecycle: authenticating credentials,
// minting access/refresh token pairs, rotating refresh tokens and
// revoking them on logout.
type TokenService struct {
	Store store.Store
	Keys  *jwtx.KeyManager

	Issuer   string
	Audience []string

	// Zero values fall back to the jwtx defaults.
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// Authenticate checks a username/password pair. Unknown usernames and
// wrong passwords both come back as ErrInvalidCredentials, and accounts
// with an unverified email cannot log in at all.
func (s *TokenService) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		// Burn comparable time so unknown usernames aren't detectable
		// by response latency.
		_ = cryptox.VerifyPassword(password, dummyHash)
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if !user.EmailVerified {
		return domain.User{}, ErrEmailNotVerified
	}

	return user, nil
}

// Login authenticates the credentials and either issues a token pair or,
// when the account has MFA enabled, returns a challenge and no tokens.
func (s *TokenService) Login(ctx context.Context, username, password string) (*domain.TokenPair, *domain.MFAChallengeResponse, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}

	if user.MFAActive() {
		return nil, &domain.MFAChallengeResponse{
			MFARequired: true,
			UserID:      user.ID,
			Methods:     []string{"totp", "backup_codes"},
		}, nil
	}

	pair, err := s.IssueSession(ctx, user, []string{jwtx.AMRPassword})
	if err != nil {
		return nil, nil, err
	}
	return &pair, nil, nil
}

// IssueSession mints a fresh access/refresh pair under a new session id.
func (s *TokenService) IssueSession(ctx context.Context, user domain.User, amr []string) (domain.TokenPair, error) {
	sid := idx.New().String()
	return s.issuePair(user, sid, amr)
}

func (s *TokenService) issuePair(user domain.User, sid string, amr []string) (domain.TokenPair, error) {
	signer := s.Keys.GetSigner()
	if signer == nil {
		return domain.TokenPair{}, errors.New("no signing key available")
	}

	now := time.Now().UTC()

	access, err := signer.Sign(jwtx.NewAccessClaims(
		user.ID, sid, user.Role, amr,
		s.accessTTL(), s.Issuer, s.Audience, user.Username, now,
	))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := signer.Sign(jwtx.NewRefreshClaims(
		user.ID, sid, amr,
		s.refreshTTL(), s.Issuer, s.Audience, now,
	))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL().Seconds()),
	}, nil
}

// Refresh rotates a refresh token: the presented token's jti is revoked
// and a new pair is issued under the same session id. A replayed token
// whose jti is already revoked yields ErrInvalidToken.
func (s *TokenService) Refresh(ctx context.Context, rawToken string) (domain.TokenPair, error) {
	claims, err := s.verifyRefresh(rawToken)
	if err != nil {
		return domain.TokenPair{}, err
	}

	// Role and username may have changed since login, so re-read.
	user, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return domain.TokenPair{}, ErrInvalidToken
	}
	if err != nil {
		return domain.TokenPair{}, err
	}

	// Revoking the old jti and checking the blacklist happen in one
	// transaction so two concurrent rotations can't both succeed.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		revoked, err := tx.RevokedTokens().IsRevoked(ctx, claims.ID)
		if err != nil {
			return err
		}
		if revoked {
			return ErrInvalidToken
		}
		return tx.RevokedTokens().Revoke(ctx, domain.RevokedToken{
			JTI:       claims.ID,
			UserID:    claims.Subject,
			ExpiresAt: claims.ExpiresAt.Time,
			RevokedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return domain.TokenPair{}, err
	}

	return s.issuePair(user, claims.SID, claims.AMR)
}

// Revoke blacklists the refresh token's jti so it can never be used to
// mint tokens again. Malformed tokens yield ErrInvalidToken; an already
// expired token has nothing left to revoke and succeeds.
func (s *TokenService) Revoke(ctx context.Context, rawToken string) error {
	claims, err := s.verifyRefresh(rawToken)
	if errors.Is(err, ErrExpiredToken) {
		return nil
	}
	if err != nil {
		return err
	}

	return s.Store.RevokedTokens().Revoke(ctx, domain.RevokedToken{
		JTI:       claims.ID,
		UserID:    claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
		RevokedAt: time.Now().UTC(),
	})
}

// verifyRefresh validates signature, expiry and token_use, mapping jwtx
// errors onto the service error taxonomy.
func (s *TokenService) verifyRefresh(rawToken string) (jwtx.Claims, error) {
	claims, err := s.Keys.Verifier.Verify(rawToken)
	if errors.Is(err, jwtx.ErrExpired) {
		return jwtx.Claims{}, ErrExpiredToken
	}
	if err != nil {
		return jwtx.Claims{}, ErrInvalidToken
	}
	if err := claims.ValidateTokenUse(jwtx.TokenUseRefresh); err != nil {
		return jwtx.Claims{}, ErrInvalidToken
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return jwtx.Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// dummyHash is a throwaway argon2 digest used to equalize timing on
// unknown usernames. Parameters match HashPassword output shape.
const dummyHash = "$argon2id$v=19$m=19456,t=2,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

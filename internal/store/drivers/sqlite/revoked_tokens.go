package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/internal/store"
)

type revokedTokensRepo struct {
	db dbtx
}

func (r *revokedTokensRepo) Revoke(ctx context.Context, t domain.RevokedToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO revoked_tokens (jti, user_id, expires_at, revoked_at)
		VALUES (?, ?, ?, ?)`,
		t.JTI, t.UserID, t.ExpiresAt, t.RevokedAt)

	// Revoking twice is harmless, the token is revoked either way.
	if errors.Is(mapConstraint(err), store.ErrAlreadyExists) {
		return nil
	}
	return err
}

func (r *revokedTokensRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, jti).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *revokedTokensRepo) DeleteExpired(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at <= ?`, now)
	return err
}

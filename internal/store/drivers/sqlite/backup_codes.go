package sqlite

import (
	"context"
	"time"

	"github.com/q360hq/q360/internal/store"
	"github.com/q360hq/q360/pkg/idx"
)

type backupCodesRepo struct {
	db dbtx
}

func (r *backupCodesRepo) ReplaceBackupCodes(ctx context.Context, userID string, codeHashes []string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM backup_codes WHERE user_id = ?`, userID); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, hash := range codeHashes {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO backup_codes (id, user_id, code_hash, created_at)
			VALUES (?, ?, ?, ?)`,
			idx.New().String(), userID, hash, now)
		if err != nil {
			return mapConstraint(err)
		}
	}
	return nil
}

func (r *backupCodesRepo) ConsumeBackupCode(ctx context.Context, userID, codeHash string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM backup_codes WHERE user_id = ? AND code_hash = ?`,
		userID, codeHash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *backupCodesRepo) CountForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM backup_codes WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}

func (r *backupCodesRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM backup_codes WHERE user_id = ?`, userID)
	return err
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/internal/store"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, username, email, first_name, last_name, password_hash, role,
	department_id, manager_id, email_verified, verification_token,
	reset_token, reset_token_expires, mfa_enabled, mfa_secret,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u                 domain.User
		departmentID      sql.NullString
		managerID         sql.NullString
		verificationToken sql.NullString
		resetToken        sql.NullString
		resetExpires      sql.NullTime
		mfaEnabled        sql.NullTime
		mfaSecret         sql.NullString
	)

	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.Role,
		&departmentID, &managerID, &u.EmailVerified, &verificationToken,
		&resetToken, &resetExpires, &mfaEnabled, &mfaSecret,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}

	u.DepartmentID = mapNullStringPtr(departmentID)
	u.ManagerID = mapNullStringPtr(managerID)
	u.VerificationToken = mapNullStringPtr(verificationToken)
	u.ResetToken = mapNullStringPtr(resetToken)
	u.ResetTokenExpires = mapNullTimePtr(resetExpires)
	u.MFAEnabled = mapNullTimePtr(mfaEnabled)
	u.MFASecret = mapNullStringPtr(mfaSecret)
	return u, nil
}

func (r *usersRepo) getUserWhere(ctx context.Context, where string, arg any) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.getUserWhere(ctx, `id = ?`, id)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getUserWhere(ctx, `username = ?`, username)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getUserWhere(ctx, `email = ?`, email)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, username, email, first_name, last_name, password_hash, role,
			department_id, manager_id, email_verified, verification_token,
			reset_token, reset_token_expires, mfa_enabled, mfa_secret,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.Role,
		mapOptionalString(u.DepartmentID), mapOptionalString(u.ManagerID),
		u.EmailVerified, mapOptionalString(u.VerificationToken),
		mapOptionalString(u.ResetToken), mapOptionalTime(u.ResetTokenExpires),
		mapOptionalTime(u.MFAEnabled), mapOptionalString(u.MFASecret),
		u.CreatedAt, u.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *usersRepo) listWhere(ctx context.Context, where string, args ...any) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	return r.listWhere(ctx, "")
}

func (r *usersRepo) ListSubordinates(ctx context.Context, managerID string) ([]domain.User, error) {
	return r.listWhere(ctx, `manager_id = ?`, managerID)
}

// exec runs an UPDATE/DELETE keyed on a single user and maps zero affected
// rows to ErrNotFound.
func (r *usersRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapConstraint(err)
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

func (r *usersRepo) UpdateProfile(ctx context.Context, userID, firstName, lastName string) error {
	return r.exec(ctx, `
		UPDATE users SET first_name = ?, last_name = ?, updated_at = ?
		WHERE id = ?`,
		firstName, lastName, time.Now().UTC(), userID)
}

func (r *usersRepo) UpdateOrg(ctx context.Context, userID string, departmentID, managerID *string) error {
	return r.exec(ctx, `
		UPDATE users SET department_id = ?, manager_id = ?, updated_at = ?
		WHERE id = ?`,
		mapOptionalString(departmentID), mapOptionalString(managerID),
		time.Now().UTC(), userID)
}

func (r *usersRepo) UpdateRole(ctx context.Context, userID, role string) error {
	return r.exec(ctx, `
		UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		role, time.Now().UTC(), userID)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	return r.exec(ctx, `
		UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID)
}

func (r *usersRepo) ConsumeVerificationToken(ctx context.Context, token string) (string, error) {
	// Single statement so concurrent attempts can't both succeed.
	var userID string
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET email_verified = 1, verification_token = NULL, updated_at = ?
		WHERE verification_token = ? AND email_verified = 0
		RETURNING id`,
		time.Now().UTC(), token).Scan(&userID)
	if err != nil {
		return "", mapNotFound(err)
	}
	return userID, nil
}

func (r *usersRepo) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	return r.exec(ctx, `
		UPDATE users SET reset_token = ?, reset_token_expires = ?, updated_at = ?
		WHERE id = ?`,
		token, expiresAt, time.Now().UTC(), userID)
}

func (r *usersRepo) ConsumeResetToken(ctx context.Context, token, newHash string, now time.Time) (string, error) {
	// Keyed on the token with the expiry check in the same statement, so
	// the first writer wins and replays or expired tokens affect no rows.
	var userID string
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET password_hash = ?, reset_token = NULL, reset_token_expires = NULL, updated_at = ?
		WHERE reset_token = ? AND reset_token_expires > ?
		RETURNING id`,
		newHash, now, token, now).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		// Zero rows covers unknown, consumed and expired tokens alike.
		// A follow-up read tells the expired case apart; the consumption
		// above stays the single atomic step.
		var n int
		if qerr := r.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM users
			WHERE reset_token = ? AND reset_token_expires <= ?`,
			token, now).Scan(&n); qerr != nil {
			return "", qerr
		}
		if n > 0 {
			return "", store.ErrExpired
		}
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (r *usersRepo) ClearExpiredResetTokens(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET reset_token = NULL, reset_token_expires = NULL
		WHERE reset_token IS NOT NULL AND reset_token_expires <= ?`, now)
	return err
}

func (r *usersRepo) UpdateMFASecret(ctx context.Context, userID, secret string) error {
	return r.exec(ctx, `
		UPDATE users SET mfa_secret = ?, updated_at = ? WHERE id = ?`,
		secret, time.Now().UTC(), userID)
}

func (r *usersRepo) EnableMFA(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	return r.exec(ctx, `
		UPDATE users SET mfa_enabled = ?, updated_at = ? WHERE id = ?`,
		now, now, userID)
}

func (r *usersRepo) DisableMFA(ctx context.Context, userID string) error {
	return r.exec(ctx, `
		UPDATE users SET mfa_enabled = NULL, mfa_secret = NULL, updated_at = ?
		WHERE id = ?`,
		time.Now().UTC(), userID)
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	return r.exec(ctx, `DELETE FROM users WHERE id = ?`, userID)
}

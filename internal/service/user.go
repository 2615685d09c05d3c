package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/internal/store"
	"github.com/q360hq/q360/pkg/cryptox"
	"github.com/q360hq/q360/pkg/idx"
	"github.com/q360hq/q360/pkg/slogx"
)

const (
	minPasswordLength = 8
	// verificationTokenLength matches the reset token length, both are
	// random alphanumeric strings delivered by email.
	verificationTokenLength = 50
	resetTokenLength        = 50

	// resetTokenTTL bounds how long a password reset link stays usable.
	resetTokenTTL = 24 * time.Hour
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

type UserService struct {
	Store  store.Store
	Mailer Mailer
}

type RegisterParams struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}

// Register creates a new unverified account and emails the verification
// token. The account cannot log in until the email is verified.
func (s *UserService) Register(ctx context.Context, p RegisterParams) (domain.User, error) {
	v := newValidator()
	if !usernameRe.MatchString(p.Username) {
		v.Fail("username", "must be 3-30 characters of letters, digits or underscore")
	}
	if !emailRe.MatchString(p.Email) {
		v.Fail("email", "must be a valid email address")
	}
	if len(p.Password) < minPasswordLength {
		v.Fail("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if p.Password != p.PasswordConfirm {
		v.Fail("password_confirm", "passwords do not match")
	}
	if err := v.Err(); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	token, err := cryptox.GenerateAlphanumericToken(verificationTokenLength)
	if err != nil {
		return domain.User{}, fmt.Errorf("generate verification token: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:                idx.New().String(),
		Username:          p.Username,
		Email:             p.Email,
		FirstName:         p.FirstName,
		LastName:          p.LastName,
		PasswordHash:      hash,
		Role:              domain.RoleEmployee,
		VerificationToken: &token,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			v := newValidator()
			v.Fail("username", "username or email already taken")
			return domain.User{}, v.Err()
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	// A failed delivery shouldn't roll the account back, the user can
	// request a new email.
	if err := s.Mailer.SendVerificationEmail(ctx, user.Email, token); err != nil {
		slogx.FromContext(ctx).Error("send verification email failed", "err", err, "user_id", user.ID)
	}

	return user, nil
}

// VerifyEmail consumes the verification token and marks the account
// verified. A consumed or unknown token yields ErrInvalidToken.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	_, err := s.Store.Users().ConsumeVerificationToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidToken
	}
	return err
}

// RequestPasswordReset issues a reset token and emails it. The response
// never reveals whether the email belongs to an account.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil // don't leak which emails exist
	}
	if err != nil {
		return err
	}

	token, err := cryptox.GenerateAlphanumericToken(resetTokenLength)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	expiresAt := time.Now().UTC().Add(resetTokenTTL)
	if err := s.Store.Users().SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if err := s.Mailer.SendPasswordResetEmail(ctx, user.Email, token); err != nil {
		slogx.FromContext(ctx).Error("send reset email failed", "err", err, "user_id", user.ID)
	}
	return nil
}

// ConfirmPasswordReset swaps the password for the account holding the
// token. A token past its 24h expiry gets ErrExpiredToken; the token is
// consumed atomically, so a concurrent second attempt gets
// ErrInvalidToken.
func (s *UserService) ConfirmPasswordReset(ctx context.Context, token, password, passwordConfirm string) error {
	v := newValidator()
	if len(password) < minPasswordLength {
		v.Fail("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if password != passwordConfirm {
		v.Fail("password_confirm", "passwords do not match")
	}
	if err := v.Err(); err != nil {
		return err
	}
	if token == "" {
		return ErrInvalidToken
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.Store.Users().ConsumeResetToken(ctx, token, hash, time.Now().UTC())
	switch {
	case errors.Is(err, store.ErrExpired):
		return ErrExpiredToken
	case errors.Is(err, store.ErrNotFound):
		return ErrInvalidToken
	}
	return err
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// ListUsers returns every user. Admin and manager only, enforced at the
// HTTP layer.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

// ListSubordinates returns the direct reports of a manager.
func (s *UserService) ListSubordinates(ctx context.Context, managerID string) ([]domain.User, error) {
	return s.Store.Users().ListSubordinates(ctx, managerID)
}

// UpdateProfile changes the caller's display name fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID, firstName, lastName string) error {
	return s.Store.Users().UpdateProfile(ctx, userID, firstName, lastName)
}

// UpdateRole is an admin operation changing another user's role.
func (s *UserService) UpdateRole(ctx context.Context, userID, role string) error {
	if !domain.ValidRole(role) {
		v := newValidator()
		v.Fail("role", "must be one of admin, manager, employee")
		return v.Err()
	}
	return s.Store.Users().UpdateRole(ctx, userID, role)
}

// UpdateOrg is an admin operation reassigning a user's department and
// manager. Both references are checked before the write.
func (s *UserService) UpdateOrg(ctx context.Context, userID string, departmentID, managerID *string) error {
	v := newValidator()
	if departmentID != nil {
		if _, err := s.Store.Departments().GetDepartment(ctx, *departmentID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				v.Fail("department_id", "department does not exist")
			} else {
				return err
			}
		}
	}
	if managerID != nil {
		if *managerID == userID {
			v.Fail("manager_id", "user cannot be their own manager")
		} else if mgr, err := s.Store.Users().GetUserByID(ctx, *managerID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				v.Fail("manager_id", "manager does not exist")
			} else {
				return err
			}
		} else if mgr.Role == domain.RoleEmployee {
			v.Fail("manager_id", "manager must hold the manager or admin role")
		}
	}
	if err := v.Err(); err != nil {
		return err
	}

	return s.Store.Users().UpdateOrg(ctx, userID, departmentID, managerID)
}

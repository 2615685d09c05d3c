package service

import (
	"context"
	"encoding/base32"
	"errors"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/internal/store"
	"github.com/q360hq/q360/pkg/cryptox"
)

const (
	backupCodeCount  = 10
	backupCodeDigits = 6 // hex digits per code
)

// MFA methods reported back to callers.
const (
	MFAMethodTOTP       = "totp"
	MFAMethodBackupCode = "backup_code"
)

type MFAService struct {
	Store  store.Store
	Issuer string // issuer name shown in authenticator apps
}

// Setup provisions TOTP for the user: it stores a secret (reusing any
// secret from a previous unfinished setup, so calling twice is safe) and
// replaces the backup codes. MFA is not active until Enable confirms a
// code. The returned backup codes are plaintext and never shown again.
func (s *MFAService) Setup(ctx context.Context, userID string) (domain.MFAEnrollResponse, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.MFAEnrollResponse{}, err
	}
	if user.MFAActive() {
		return domain.MFAEnrollResponse{}, ErrMFAAlreadyEnabled
	}

	opts := totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	}

	// Re-running setup keeps the secret stable so a QR code the user
	// already scanned stays valid.
	if user.MFASecret != nil && *user.MFASecret != "" {
		raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(*user.MFASecret)
		if err != nil {
			return domain.MFAEnrollResponse{}, fmt.Errorf("decode existing secret: %w", err)
		}
		opts.Secret = raw
	}

	key, err := totp.Generate(opts)
	if err != nil {
		return domain.MFAEnrollResponse{}, fmt.Errorf("generate TOTP key: %w", err)
	}

	codes, err := generateBackupCodes()
	if err != nil {
		return domain.MFAEnrollResponse{}, err
	}

	hashes := make([]string, len(codes))
	for i, code := range codes {
		hashes[i] = cryptox.FingerprintToken(code)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateMFASecret(ctx, userID, key.Secret()); err != nil {
			return fmt.Errorf("store MFA secret: %w", err)
		}
		if err := tx.BackupCodes().ReplaceBackupCodes(ctx, userID, hashes); err != nil {
			return fmt.Errorf("store backup codes: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.MFAEnrollResponse{}, err
	}

	return domain.MFAEnrollResponse{
		Secret:      key.Secret(),
		OTPAuthURL:  key.URL(),
		Issuer:      s.Issuer,
		Account:     user.Email,
		BackupCodes: codes,
	}, nil
}

// Enable turns MFA on after the user proves they scanned the secret by
// presenting a valid TOTP code.
func (s *MFAService) Enable(ctx context.Context, userID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.MFAActive() {
		return ErrMFAAlreadyEnabled
	}
	if user.MFASecret == nil || *user.MFASecret == "" {
		return ErrMFANotEnabled
	}

	if !totp.Validate(code, *user.MFASecret) {
		return ErrInvalidMFACode
	}

	return s.Store.Users().EnableMFA(ctx, userID)
}

// Disable clears the secret, the enabled flag and every backup code in
// one transaction. The authenticated session is the only precondition,
// so losing the authenticator and the backup codes doesn't lock the
// account into MFA.
func (s *MFAService) Disable(ctx context.Context, userID string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.MFAActive() {
		return ErrMFANotEnabled
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().DisableMFA(ctx, userID); err != nil {
			return err
		}
		return tx.BackupCodes().DeleteAllForUser(ctx, userID)
	})
}

// VerifyCode answers an MFA challenge with either a TOTP code or a
// backup code. Backup codes are consumed on use. Returns the user and
// which method matched.
func (s *MFAService) VerifyCode(ctx context.Context, userID, code string) (domain.User, string, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, "", err
	}
	if !user.MFAActive() || user.MFASecret == nil {
		return domain.User{}, "", ErrMFANotEnabled
	}

	if totp.Validate(code, *user.MFASecret) {
		return user, MFAMethodTOTP, nil
	}

	// Fall back to single-use backup codes. The delete doubles as the
	// validity check.
	err = s.Store.BackupCodes().ConsumeBackupCode(ctx, userID, cryptox.FingerprintToken(code))
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, "", ErrInvalidMFACode
	}
	if err != nil {
		return domain.User{}, "", err
	}
	return user, MFAMethodBackupCode, nil
}

// BackupCodesRemaining reports how many unused backup codes the user has
// left.
func (s *MFAService) BackupCodesRemaining(ctx context.Context, userID string) (int, error) {
	return s.Store.BackupCodes().CountForUser(ctx, userID)
}

// generateBackupCodes returns backupCodeCount distinct hex codes.
func generateBackupCodes() ([]string, error) {
	seen := make(map[string]struct{}, backupCodeCount)
	codes := make([]string, 0, backupCodeCount)
	for len(codes) < backupCodeCount {
		code, err := cryptox.GenerateHexCode(backupCodeDigits)
		if err != nil {
			return nil, fmt.Errorf("generate backup code: %w", err)
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}

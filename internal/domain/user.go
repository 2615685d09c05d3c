// Package domain holds the data types shared by the store and service
// layers. These are plain structs with no behaviour beyond small helpers.
package domain

import "time"

// Roles a user can hold. Roles are flat, a manager additionally has direct
// reports via the ManagerID back references.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// ValidRole reports whether role is one of the known role values.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

type User struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string // argon2 encoded
	Role         string

	DepartmentID *string // nullable FK to departments
	ManagerID    *string // nullable self-FK, the user's manager

	EmailVerified     bool
	VerificationToken *string // nullable, consumed on verification

	ResetToken        *string    // nullable password reset token
	ResetTokenExpires *time.Time // nullable, 24h after issuance

	MFAEnabled *time.Time // timestamp when MFA was enabled (nullable)
	MFASecret  *string    // TOTP secret (nullable, base32 encoded)

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins the first and last name, falling back to the username
// when neither is set.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

// MFAActive reports whether the user has completed MFA enrollment.
func (u *User) MFAActive() bool {
	return u.MFAEnabled != nil
}

// BackupCode is a single-use MFA recovery code. Only the fingerprint of
// the code is stored, the plaintext is shown to the user exactly once.
type BackupCode struct {
	ID        string
	UserID    string
	CodeHash  string // deterministic fingerprint (base64url SHA-256)
	CreatedAt time.Time
}

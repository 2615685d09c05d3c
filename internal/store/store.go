// Package store defines the data access interfaces implemented by the
// concrete drivers under drivers/.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/q360hq/q360/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrExpired marks a record that exists but is past its expiry, so
	// callers can tell an expired token from an unknown one.
	ErrExpired = errors.New("store: expired")
)

// Store is the root data access interface. Concrete drivers (sqlite for
// now) implement this. It exposes sub-repositories to keep concerns tidy
// and testable, and makes nested transactions impossible by construction.
type Store interface {
	Users() Users
	BackupCodes() BackupCodes
	RevokedTokens() RevokedTokens
	Departments() Departments
	Cycles() Cycles
	Competencies() Competencies
	Evaluations() Evaluations
	Ideas() Ideas
	Notifications() Notifications

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction. If fn returns an
	// error the transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the username or email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	ListUsers(ctx context.Context) ([]domain.User, error)
	ListSubordinates(ctx context.Context, managerID string) ([]domain.User, error)

	// UpdateProfile mutates the name fields and bumps updated_at.
	UpdateProfile(ctx context.Context, userID, firstName, lastName string) error

	// UpdateOrg reassigns the user's department and manager.
	UpdateOrg(ctx context.Context, userID string, departmentID, managerID *string) error

	UpdateRole(ctx context.Context, userID, role string) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// ConsumeVerificationToken marks the matching user's email as verified
	// and clears the token in one statement. Returns ErrNotFound when no
	// unverified user holds the token, so replays fail.
	ConsumeVerificationToken(ctx context.Context, token string) (userID string, err error)

	// SetResetToken stores a password reset token and its expiry.
	SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error

	// ConsumeResetToken swaps the password hash for the user holding an
	// unexpired reset token, clearing the token in the same statement.
	// Returns ErrExpired when the token exists but is past its expiry,
	// ErrNotFound when it is unknown or already used. First writer wins
	// under concurrency.
	ConsumeResetToken(ctx context.Context, token, newHash string, now time.Time) (userID string, err error)

	// ClearExpiredResetTokens is housekeeping for tokens that were never used.
	ClearExpiredResetTokens(ctx context.Context, now time.Time) error

	// UpdateMFASecret sets the TOTP secret for a user.
	UpdateMFASecret(ctx context.Context, userID, secret string) error

	// EnableMFA marks MFA as enabled for a user (sets mfa_enabled timestamp).
	EnableMFA(ctx context.Context, userID string) error

	// DisableMFA disables MFA for a user (clears mfa_enabled and mfa_secret).
	DisableMFA(ctx context.Context, userID string) error

	DeleteUser(ctx context.Context, userID string) error
}

type BackupCodes interface {
	// ReplaceBackupCodes removes any existing codes for the user and
	// stores the new fingerprints. Call inside a transaction together
	// with UpdateMFASecret.
	ReplaceBackupCodes(ctx context.Context, userID string, codeHashes []string) error

	// ConsumeBackupCode deletes the matching code so it can never be used
	// again. Returns ErrNotFound when the fingerprint doesn't match any
	// remaining code for the user.
	ConsumeBackupCode(ctx context.Context, userID, codeHash string) error

	CountForUser(ctx context.Context, userID string) (int, error)

	DeleteAllForUser(ctx context.Context, userID string) error
}

type RevokedTokens interface {
	// Revoke records a refresh token jti as no longer acceptable.
	Revoke(ctx context.Context, t domain.RevokedToken) error

	IsRevoked(ctx context.Context, jti string) (bool, error)

	// DeleteExpired prunes rows whose underlying token has expired anyway.
	DeleteExpired(ctx context.Context, now time.Time) error
}

type Departments interface {
	CreateDepartment(ctx context.Context, d domain.Department) error
	GetDepartment(ctx context.Context, id string) (domain.Department, error)
	ListDepartments(ctx context.Context) ([]domain.Department, error)
	UpdateDepartment(ctx context.Context, d domain.Department) error
	DeleteDepartment(ctx context.Context, id string) error
}

type Cycles interface {
	CreateCycle(ctx context.Context, c domain.EvaluationCycle) error
	GetCycle(ctx context.Context, id string) (domain.EvaluationCycle, error)
	ListCycles(ctx context.Context) ([]domain.EvaluationCycle, error)
	UpdateCycleStatus(ctx context.Context, id, status string) error
}

type Competencies interface {
	CreateCompetency(ctx context.Context, c domain.Competency) error
	GetCompetency(ctx context.Context, id string) (domain.Competency, error)
	ListCompetencies(ctx context.Context) ([]domain.Competency, error)

	CreateQuestion(ctx context.Context, q domain.Question) error
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
	ListQuestions(ctx context.Context, competencyID string) ([]domain.Question, error)
}

type Evaluations interface {
	// CreateEvaluation returns ErrAlreadyExists when an evaluation for the
	// same (cycle, evaluatee, evaluator, type) tuple already exists.
	CreateEvaluation(ctx context.Context, e domain.Evaluation) error

	GetEvaluation(ctx context.Context, id string) (domain.Evaluation, error)
	ListForEvaluator(ctx context.Context, evaluatorID string) ([]domain.Evaluation, error)
	ListForEvaluatee(ctx context.Context, evaluateeID string) ([]domain.Evaluation, error)

	// SubmitEvaluation flips a pending evaluation to submitted. Returns
	// ErrNotFound when the evaluation doesn't exist or was already
	// submitted.
	SubmitEvaluation(ctx context.Context, id string, now time.Time) error

	// UpsertAnswer inserts or replaces the answer for the evaluation's
	// question.
	UpsertAnswer(ctx context.Context, a domain.Answer) error

	ListAnswers(ctx context.Context, evaluationID string) ([]domain.Answer, error)
}

type Ideas interface {
	CreateIdea(ctx context.Context, i domain.Idea) error

	// GetIdea includes like and comment counts.
	GetIdea(ctx context.Context, id string) (domain.Idea, error)
	ListIdeas(ctx context.Context) ([]domain.Idea, error)

	UpdateIdeaStatus(ctx context.Context, id, status string) error

	// LikeIdea returns ErrAlreadyExists when the user already liked it.
	LikeIdea(ctx context.Context, ideaID, userID string) error

	// UnlikeIdea returns ErrNotFound when there was no like to remove.
	UnlikeIdea(ctx context.Context, ideaID, userID string) error

	CreateComment(ctx context.Context, c domain.IdeaComment) error
	ListComments(ctx context.Context, ideaID string) ([]domain.IdeaComment, error)
}

type Notifications interface {
	CreateNotification(ctx context.Context, n domain.Notification) error
	ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error)

	// MarkRead is scoped to the owning user so one user cannot touch
	// another's notifications.
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error

	// DeleteOlderThan prunes read notifications older than the cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) error
}

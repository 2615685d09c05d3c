package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/internal/store"
	"github.com/q360hq/q360/internal/store/drivers/sqlite"
	"github.com/q360hq/q360/pkg/cryptox"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "q360-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// newTestStore returns a migrated in-memory store.
func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// captureMailer records outbound tokens instead of sending mail.
type captureMailer struct {
	verifyTokens map[string]string // email -> token
	resetTokens  map[string]string
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{
		verifyTokens: make(map[string]string),
		resetTokens:  make(map[string]string),
	}
}

func (m *captureMailer) SendVerificationEmail(ctx context.Context, to, token string) error {
	m.verifyTokens[to] = token
	return nil
}

func (m *captureMailer) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	m.resetTokens[to] = token
	return nil
}

// registerVerified registers a user through the service and completes
// email verification so the account can log in.
func registerVerified(t *testing.T, users *UserService, mailer *captureMailer, username, email, password string) domain.User {
	t.Helper()
	ctx := context.Background()

	user, err := users.Register(ctx, RegisterParams{
		Username:        username,
		Email:           email,
		Password:        password,
		PasswordConfirm: password,
		FirstName:       "Test",
		LastName:        "User",
	})
	require.NoError(t, err)

	require.NoError(t, users.VerifyEmail(ctx, mailer.verifyTokens[email]))

	verified, err := users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, verified.EmailVerified)
	return verified
}

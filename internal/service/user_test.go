package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/pkg/cryptox"
)

func TestRegisterValidation(t *testing.T) {
	users := &UserService{Store: newTestStore(t), Mailer: newCaptureMailer()}
	ctx := context.Background()

	_, err := users.Register(ctx, RegisterParams{
		Username:        "x",
		Email:           "not-an-email",
		Password:        "short",
		PasswordConfirm: "different",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "username")
	require.Contains(t, verr.Fields, "email")
	require.Contains(t, verr.Fields, "password")
	require.Contains(t, verr.Fields, "password_confirm")
}

func TestRegisterCreatesUnverifiedAccount(t *testing.T) {
	mailer := newCaptureMailer()
	users := &UserService{Store: newTestStore(t), Mailer: mailer}
	ctx := context.Background()

	user, err := users.Register(ctx, RegisterParams{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "correct horse",
		PasswordConfirm: "correct horse",
		FirstName:       "Alice",
		LastName:        "Smith",
	})
	require.NoError(t, err)

	require.False(t, user.EmailVerified)
	require.Equal(t, domain.RoleEmployee, user.Role)
	require.NotEqual(t, "correct horse", user.PasswordHash)
	require.NoError(t, cryptox.VerifyPassword("correct horse", user.PasswordHash))

	token := mailer.verifyTokens["alice@example.com"]
	require.Len(t, token, 50)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	mailer := newCaptureMailer()
	users := &UserService{Store: newTestStore(t), Mailer: mailer}
	ctx := context.Background()

	p := RegisterParams{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "password123",
		PasswordConfirm: "password123",
	}
	_, err := users.Register(ctx, p)
	require.NoError(t, err)

	_, err = users.Register(ctx, p)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestVerifyEmailConsumesToken(t *testing.T) {
	mailer := newCaptureMailer()
	users := &UserService{Store: newTestStore(t), Mailer: mailer}
	ctx := context.Background()

	_, err := users.Register(ctx, RegisterParams{
		Username:        "bob",
		Email:           "bob@example.com",
		Password:        "password123",
		PasswordConfirm: "password123",
	})
	require.NoError(t, err)

	token := mailer.verifyTokens["bob@example.com"]
	require.NoError(t, users.VerifyEmail(ctx, token))

	// Second use of the same token fails.
	require.ErrorIs(t, users.VerifyEmail(ctx, token), ErrInvalidToken)

	// Unknown and empty tokens fail too.
	require.ErrorIs(t, users.VerifyEmail(ctx, "nope"), ErrInvalidToken)
	require.ErrorIs(t, users.VerifyEmail(ctx, ""), ErrInvalidToken)
}

func TestPasswordResetFlow(t *testing.T) {
	mailer := newCaptureMailer()
	st := newTestStore(t)
	users := &UserService{Store: st, Mailer: mailer}
	ctx := context.Background()

	user := registerVerified(t, users, mailer, "carol", "carol@example.com", "oldpassword")

	require.NoError(t, users.RequestPasswordReset(ctx, "carol@example.com"))
	token := mailer.resetTokens["carol@example.com"]
	require.Len(t, token, 50)

	require.NoError(t, users.ConfirmPasswordReset(ctx, token, "newpassword99", "newpassword99"))

	updated, err := users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, cryptox.VerifyPassword("newpassword99", updated.PasswordHash))
	require.ErrorIs(t, cryptox.VerifyPassword("oldpassword", updated.PasswordHash), cryptox.ErrPasswordMismatch)

	// The token was consumed, a replay must not work.
	require.ErrorIs(t,
		users.ConfirmPasswordReset(ctx, token, "another1234", "another1234"),
		ErrInvalidToken)
}

func TestPasswordResetDoesNotLeakAccounts(t *testing.T) {
	users := &UserService{Store: newTestStore(t), Mailer: newCaptureMailer()}

	// Unknown email must not error.
	require.NoError(t, users.RequestPasswordReset(context.Background(), "ghost@example.com"))
}

func TestPasswordResetExpiredToken(t *testing.T) {
	mailer := newCaptureMailer()
	st := newTestStore(t)
	users := &UserService{Store: st, Mailer: mailer}
	ctx := context.Background()

	user := registerVerified(t, users, mailer, "dave", "dave@example.com", "password123")

	// Plant an already-expired token directly. Expired is reported
	// distinctly from unknown.
	require.NoError(t, st.Users().SetResetToken(ctx, user.ID, "expired-token",
		time.Now().UTC().Add(-time.Minute)))

	require.ErrorIs(t,
		users.ConfirmPasswordReset(ctx, "expired-token", "newpassword1", "newpassword1"),
		ErrExpiredToken)
	require.ErrorIs(t,
		users.ConfirmPasswordReset(ctx, "no-such-token", "newpassword1", "newpassword1"),
		ErrInvalidToken)

	// The expired attempt must not have consumed the token or touched the
	// password.
	got, err := users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ResetToken)
	require.NoError(t, cryptox.VerifyPassword("password123", got.PasswordHash))
}

func TestUpdateOrgValidatesReferences(t *testing.T) {
	mailer := newCaptureMailer()
	st := newTestStore(t)
	users := &UserService{Store: st, Mailer: mailer}
	depts := &DepartmentService{Store: st}
	ctx := context.Background()

	emp := registerVerified(t, users, mailer, "emp1", "emp1@example.com", "password123")
	mgr := registerVerified(t, users, mailer, "mgr1", "mgr1@example.com", "password123")
	require.NoError(t, users.UpdateRole(ctx, mgr.ID, domain.RoleManager))

	dept, err := depts.Create(ctx, "Engineering", "builds things")
	require.NoError(t, err)

	// Happy path.
	require.NoError(t, users.UpdateOrg(ctx, emp.ID, &dept.ID, &mgr.ID))

	got, err := users.GetUserByID(ctx, emp.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DepartmentID)
	require.Equal(t, dept.ID, *got.DepartmentID)
	require.NotNil(t, got.ManagerID)
	require.Equal(t, mgr.ID, *got.ManagerID)

	subs, err := users.ListSubordinates(ctx, mgr.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	// Bad references fail validation.
	bogus := "01ZZZZZZZZZZZZZZZZZZZZZZZZ"
	var verr *ValidationError
	require.ErrorAs(t, users.UpdateOrg(ctx, emp.ID, &bogus, nil), &verr)
	require.ErrorAs(t, users.UpdateOrg(ctx, emp.ID, nil, &emp.ID), &verr) // own manager

	// An employee cannot be someone's manager.
	other := registerVerified(t, users, mailer, "emp2", "emp2@example.com", "password123")
	require.ErrorAs(t, users.UpdateOrg(ctx, emp.ID, nil, &other.ID), &verr)
}

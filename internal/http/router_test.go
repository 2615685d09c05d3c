package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/internal/service"
	"github.com/q360hq/q360/internal/store/drivers/sqlite"
	"github.com/q360hq/q360/pkg/cryptox"
	"github.com/q360hq/q360/pkg/jwtx"
	"github.com/q360hq/q360/pkg/slogx"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "q360-http-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type testEnv struct {
	server *httptest.Server
	mailer *captureMailer
	users  *service.UserService
	// clientIP feeds X-Forwarded-For so tests don't share rate limit
	// buckets.
	clientIP string
}

type captureMailer struct {
	verifyTokens map[string]string
	resetTokens  map[string]string
}

func (m *captureMailer) SendVerificationEmail(ctx context.Context, to, token string) error {
	m.verifyTokens[to] = token
	return nil
}

func (m *captureMailer) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	m.resetTokens[to] = token
	return nil
}

var testIPCounter int

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Issuer:  "q360-test",
		NumKeys: 1,
	})
	require.NoError(t, err)

	mailer := &captureMailer{
		verifyTokens: make(map[string]string),
		resetTokens:  make(map[string]string),
	}

	logger := slogx.New(slogx.Config{Service: "q360-test", Level: "error", Format: "text"})
	router := NewRouter(km.KeySet, km.Verifier, "test", st, logger)
	router.TokenService = &service.TokenService{Store: st, Keys: km, Issuer: "q360-test"}
	router.UserService = &service.UserService{Store: st, Mailer: mailer}
	router.MFAService = &service.MFAService{Store: st, Issuer: "q360-test"}
	router.DepartmentService = &service.DepartmentService{Store: st}
	router.EvaluationService = &service.EvaluationService{Store: st}
	router.IdeaService = &service.IdeaService{Store: st}
	router.NotificationService = &service.NotificationService{Store: st}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	testIPCounter++
	return &testEnv{
		server:   srv,
		mailer:   mailer,
		users:    router.UserService,
		clientIP: fmt.Sprintf("10.9.%d.%d", testIPCounter/250, testIPCounter%250+1),
	}
}

// do issues a JSON request against the test server and decodes the reply
// into out when it is non-nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", e.clientIP)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// registerAndLogin walks the whole front door: register, verify email,
// log in, and returns the token pair.
func (e *testEnv) registerAndLogin(t *testing.T, username, email, password string) domain.TokenPair {
	t.Helper()

	status := e.do(t, http.MethodPost, "/v1/auth/register", "", RegisterRequest{
		Username:        username,
		Email:           email,
		Password:        password,
		PasswordConfirm: password,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	status = e.do(t, http.MethodPost, "/v1/auth/verify-email", "", VerifyEmailRequest{
		Token: e.mailer.verifyTokens[email],
	}, nil)
	require.Equal(t, http.StatusOK, status)

	var pair domain.TokenPair
	status = e.do(t, http.MethodPost, "/v1/auth/login", "", LoginRequest{
		Username: username,
		Password: password,
	}, &pair)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, pair.AccessToken)
	return pair
}

func (e *testEnv) promote(t *testing.T, username, role string) {
	t.Helper()
	ctx := context.Background()

	user, err := e.users.Store.Users().GetUserByUsername(ctx, username)
	require.NoError(t, err)
	require.NoError(t, e.users.UpdateRole(ctx, user.ID, role))
}

func TestRegisterLoginAndMe(t *testing.T) {
	env := newTestEnv(t)
	pair := env.registerAndLogin(t, "alice", "alice@example.com", "password123")

	var me UserResponse
	status := env.do(t, http.MethodGet, "/v1/me", pair.AccessToken, nil, &me)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "alice", me.Username)
	require.Equal(t, domain.RoleEmployee, me.Role)
	require.True(t, me.EmailVerified)
	require.False(t, me.MFAEnabled)
}

func TestLoginFailuresOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "alice", "alice@example.com", "password123")

	var errResp ErrorResponse
	status := env.do(t, http.MethodPost, "/v1/auth/login", "", LoginRequest{
		Username: "alice", Password: "wrong",
	}, &errResp)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "invalid_credentials", errResp.Error)
}

func TestValidationErrorBodyShape(t *testing.T) {
	env := newTestEnv(t)

	var errResp ErrorResponse
	status := env.do(t, http.MethodPost, "/v1/auth/register", "", RegisterRequest{
		Username: "x", Email: "bad", Password: "short", PasswordConfirm: "other",
	}, &errResp)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "invalid_request", errResp.Error)
	require.Contains(t, errResp.Fields, "username")
	require.Contains(t, errResp.Fields, "email")
	require.Contains(t, errResp.Fields, "password")
}

func TestAuthRequiredAndRoleEnforced(t *testing.T) {
	env := newTestEnv(t)
	pair := env.registerAndLogin(t, "bob", "bob@example.com", "password123")

	// No token at all.
	status := env.do(t, http.MethodGet, "/v1/me", "", nil, nil)
	require.Equal(t, http.StatusUnauthorized, status)

	// Employee hitting an admin/manager endpoint.
	status = env.do(t, http.MethodGet, "/v1/users", pair.AccessToken, nil, nil)
	require.Equal(t, http.StatusForbidden, status)

	// After promotion a fresh token carries the new role.
	env.promote(t, "bob", domain.RoleAdmin)
	var fresh domain.TokenPair
	status = env.do(t, http.MethodPost, "/v1/auth/refresh", "", RefreshRequest{
		RefreshToken: pair.RefreshToken,
	}, &fresh)
	require.Equal(t, http.StatusOK, status)

	var users []UserResponse
	status = env.do(t, http.MethodGet, "/v1/users", fresh.AccessToken, nil, &users)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, users, 1)
}

func TestRefreshRotationOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	pair := env.registerAndLogin(t, "carol", "carol@example.com", "password123")

	var next domain.TokenPair
	status := env.do(t, http.MethodPost, "/v1/auth/refresh", "", RefreshRequest{
		RefreshToken: pair.RefreshToken,
	}, &next)
	require.Equal(t, http.StatusOK, status)

	// The rotated-out token is dead.
	var errResp ErrorResponse
	status = env.do(t, http.MethodPost, "/v1/auth/refresh", "", RefreshRequest{
		RefreshToken: pair.RefreshToken,
	}, &errResp)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "invalid_token", errResp.Error)

	// Logout revokes the current one too.
	status = env.do(t, http.MethodPost, "/v1/auth/logout", "", RefreshRequest{
		RefreshToken: next.RefreshToken,
	}, nil)
	require.Equal(t, http.StatusOK, status)

	status = env.do(t, http.MethodPost, "/v1/auth/refresh", "", RefreshRequest{
		RefreshToken: next.RefreshToken,
	}, nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestRefreshTokenRejectedAsAccessToken(t *testing.T) {
	env := newTestEnv(t)
	pair := env.registerAndLogin(t, "dave", "dave@example.com", "password123")

	status := env.do(t, http.MethodGet, "/v1/me", pair.RefreshToken, nil, nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestIdeaFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	author := env.registerAndLogin(t, "erin", "erin@example.com", "password123")
	fan := env.registerAndLogin(t, "frank", "frank@example.com", "password123")

	var idea domain.Idea
	status := env.do(t, http.MethodPost, "/v1/ideas", author.AccessToken, CreateIdeaRequest{
		Title: "Better coffee", Description: "the machine is sad",
	}, &idea)
	require.Equal(t, http.StatusCreated, status)

	status = env.do(t, http.MethodPost, "/v1/ideas/"+idea.ID+"/like", fan.AccessToken, nil, nil)
	require.Equal(t, http.StatusOK, status)

	var got domain.Idea
	status = env.do(t, http.MethodGet, "/v1/ideas/"+idea.ID, author.AccessToken, nil, &got)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, got.LikeCount)

	// Status changes are gated on role.
	status = env.do(t, http.MethodPatch, "/v1/ideas/"+idea.ID+"/status", fan.AccessToken, IdeaStatusRequest{
		Status: domain.IdeaStatusApproved,
	}, nil)
	require.Equal(t, http.StatusForbidden, status)
}

func TestSystemEndpoints(t *testing.T) {
	env := newTestEnv(t)

	var health HealthResponse
	status := env.do(t, http.MethodGet, "/livez", "", nil, &health)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", health.Status)

	status = env.do(t, http.MethodGet, "/readyz", "", nil, &health)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)

	var jwks jwtx.JWKS
	status = env.do(t, http.MethodGet, "/.well-known/jwks.json", "", nil, &jwks)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "OKP", jwks.Keys[0].Kty)
}

package http

import (
	"net/http"

	"github.com/q360hq/q360/internal/service"
	"github.com/q360hq/q360/pkg/httpx"
	"github.com/q360hq/q360/pkg/jwtx"
	"github.com/q360hq/q360/pkg/slogx"
)

// AuthHandler handles registration, login and the token lifecycle.
type AuthHandler struct {
	UserService  *service.UserService
	TokenService *service.TokenService
	MFAService   *service.MFAService
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

// HandleRegister handles POST /v1/auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.UserService.Register(r.Context(), service.RegisterParams{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	})
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// HandleVerifyEmail handles POST /v1/auth/verify-email. The token arrives
// out of the emailed link; it is single use.
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.UserService.VerifyEmail(r.Context(), req.Token); err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Email verified"})
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin handles POST /v1/auth/login. Accounts with MFA enabled get a
// challenge instead of tokens; the client follows up on /v1/auth/mfa/verify.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, challenge, err := h.TokenService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.NoCache(w)
	if challenge != nil {
		httpx.WriteJSON(w, http.StatusOK, challenge)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

type MFAVerifyRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

// HandleMFAVerify handles POST /v1/auth/mfa/verify, the second step of an
// MFA login. A TOTP or backup code completes the challenge from login.
func (h *AuthHandler) HandleMFAVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req MFAVerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, method, err := h.MFAService.VerifyCode(ctx, req.UserID, req.Code)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	amr := []string{jwtx.AMRPassword, jwtx.AMRMFA}
	if method == service.MFAMethodTOTP {
		amr = append(amr, jwtx.AMROTP)
	}

	pair, err := h.TokenService.IssueSession(ctx, user, amr)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	if method == service.MFAMethodBackupCode {
		if left, err := h.MFAService.BackupCodesRemaining(ctx, user.ID); err == nil && left <= 2 {
			slogx.FromContext(ctx).Warn("user is running low on backup codes",
				"user_id", user.ID, "remaining", left)
		}
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, pair)
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// HandleRefresh handles POST /v1/auth/refresh. The presented refresh token
// is rotated: it stops working and a fresh pair comes back.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := h.TokenService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, pair)
}

// HandleLogout handles POST /v1/auth/logout by revoking the refresh token.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.TokenService.Revoke(r.Context(), req.RefreshToken); err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

// HandlePasswordResetRequest handles POST /v1/auth/password-reset/request.
// The response is identical whether or not the email exists.
func (h *AuthHandler) HandlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.UserService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{
		Message: "If the email belongs to an account, a reset link has been sent",
	})
}

type PasswordResetConfirmRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// HandlePasswordResetConfirm handles POST /v1/auth/password-reset/confirm.
func (h *AuthHandler) HandlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.UserService.ConfirmPasswordReset(r.Context(), req.Token, req.Password, req.PasswordConfirm)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Password updated"})
}

package http

import (
	"net/http"

	"github.com/q360hq/q360/internal/service"
	"github.com/q360hq/q360/pkg/httpx"
)

// MFAHandler manages MFA enrollment for the authenticated user. Answering
// login challenges lives on AuthHandler since it runs unauthenticated.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleSetup handles POST /v1/mfa/setup. It provisions a TOTP secret and
// fresh backup codes; MFA only activates once a code is confirmed via
// enable. Safe to call again before that.
func (h *MFAHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromCtx(ctx)

	enroll, err := h.MFAService.Setup(ctx, userID)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, enroll)
}

type MFACodeRequest struct {
	Code string `json:"code"`
}

// HandleEnable handles POST /v1/mfa/enable, confirming the scanned secret
// with a TOTP code.
func (h *MFAHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromCtx(ctx)

	var req MFACodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.MFAService.Enable(ctx, userID, req.Code); err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "MFA enabled"})
}

// HandleDisable handles POST /v1/mfa/disable. The bearer session is
// proof enough; everything MFA-related is wiped, so a user who lost
// their authenticator can still turn MFA off.
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromCtx(ctx)

	if err := h.MFAService.Disable(ctx, userID); err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "MFA disabled"})
}

type BackupCodesCountResponse struct {
	Remaining int `json:"remaining"`
}

// HandleBackupCodesCount handles GET /v1/mfa/backup-codes.
func (h *MFAHandler) HandleBackupCodesCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromCtx(ctx)

	count, err := h.MFAService.BackupCodesRemaining(ctx, userID)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, BackupCodesCountResponse{Remaining: count})
}

package http

import (
	"net/http"

	"github.com/q360hq/q360/internal/service"
	"github.com/q360hq/q360/pkg/httpx"
)

// UserHandler serves the profile and admin user management endpoints.
type UserHandler struct {
	UserService *service.UserService
}

// HandleMe handles GET /v1/me.
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.UserService.GetUserByID(ctx, httpx.UserIDFromCtx(ctx))
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

type UpdateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// HandleUpdateMe handles PATCH /v1/me.
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromCtx(ctx)

	var req UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.UserService.UpdateProfile(ctx, userID, req.FirstName, req.LastName); err != nil {
		writeServiceError(r, w, err)
		return
	}

	user, err := h.UserService.GetUserByID(ctx, userID)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleList handles GET /v1/users. Admins and managers only.
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.ListUsers(r.Context())
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponses(users))
}

// HandleGet handles GET /v1/users/{id}.
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserService.GetUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleSubordinates handles GET /v1/users/{id}/subordinates.
func (h *UserHandler) HandleSubordinates(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.ListSubordinates(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponses(users))
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// HandleUpdateRole handles PATCH /v1/users/{id}/role. Admin only.
func (h *UserHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.UserService.UpdateRole(r.Context(), r.PathValue("id"), req.Role); err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Role updated"})
}

type UpdateOrgRequest struct {
	DepartmentID *string `json:"department_id"`
	ManagerID    *string `json:"manager_id"`
}

// HandleUpdateOrg handles PATCH /v1/users/{id}/org, reassigning department
// and manager. Admin only. Null fields clear the assignment.
func (h *UserHandler) HandleUpdateOrg(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrgRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.UserService.UpdateOrg(r.Context(), r.PathValue("id"), req.DepartmentID, req.ManagerID)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Organisation updated"})
}

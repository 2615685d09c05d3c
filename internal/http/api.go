package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/internal/service"
	"github.com/q360hq/q360/internal/store"
	"github.com/q360hq/q360/pkg/httpx"
	"github.com/q360hq/q360/pkg/slogx"
)

// ErrorResponse is the JSON error body every endpoint uses. Fields is only
// populated for validation failures.
type ErrorResponse struct {
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description,omitempty"`
	Fields           map[string]string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	httpx.WriteJSON(w, status, ErrorResponse{
		Error:            code,
		ErrorDescription: description,
	})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Anything unrecognized is logged and reported as a 500.
func writeServiceError(r *http.Request, w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "One or more fields failed validation",
			Fields:           verr.Fields,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
	case errors.Is(err, service.ErrEmailNotVerified):
		writeError(w, http.StatusForbidden, "email_not_verified", "Verify your email address before logging in")
	case errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid_token", "The token is invalid or has been used")
	case errors.Is(err, service.ErrExpiredToken):
		writeError(w, http.StatusUnauthorized, "expired_token", "The token has expired")
	case errors.Is(err, service.ErrInvalidMFACode):
		writeError(w, http.StatusBadRequest, "invalid_code", "Invalid MFA code")
	case errors.Is(err, service.ErrMFANotEnabled):
		writeError(w, http.StatusBadRequest, "mfa_not_enabled", "MFA is not enabled for this user")
	case errors.Is(err, service.ErrMFAAlreadyEnabled):
		writeError(w, http.StatusBadRequest, "mfa_already_enabled", "MFA is already enabled for this user")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "You are not allowed to perform this operation")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "The requested resource does not exist")
	default:
		slogx.FromContext(r.Context()).Error("request failed",
			"method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "An internal error occurred")
	}
}

// decodeJSON parses the request body into dst. On failure it writes a 400
// and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return false
	}
	return true
}

// UserResponse is the public view of a user. Credentials, tokens and MFA
// secrets never leave the server.
type UserResponse struct {
	ID            string  `json:"id"`
	Username      string  `json:"username"`
	Email         string  `json:"email"`
	FirstName     string  `json:"first_name,omitempty"`
	LastName      string  `json:"last_name,omitempty"`
	Role          string  `json:"role"`
	DepartmentID  *string `json:"department_id,omitempty"`
	ManagerID     *string `json:"manager_id,omitempty"`
	EmailVerified bool    `json:"email_verified"`
	MFAEnabled    bool    `json:"mfa_enabled"`
	CreatedAt     string  `json:"created_at"`
}

func toUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          u.Role,
		DepartmentID:  u.DepartmentID,
		ManagerID:     u.ManagerID,
		EmailVerified: u.EmailVerified,
		MFAEnabled:    u.MFAActive(),
		CreatedAt:     u.CreatedAt.Format(time.RFC3339),
	}
}

func toUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return out
}

// MessageResponse is the body of endpoints that have nothing better to say.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is returned by the livez and readyz probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

package http

import (
	"net/http"

	"github.com/q360hq/q360/internal/service"
	"github.com/q360hq/q360/pkg/httpx"
)

// DepartmentHandler serves department CRUD. Writes are admin only.
type DepartmentHandler struct {
	DepartmentService *service.DepartmentService
}

type DepartmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HandleCreate handles POST /v1/departments.
func (h *DepartmentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req DepartmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	dept, err := h.DepartmentService.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, dept)
}

// HandleList handles GET /v1/departments.
func (h *DepartmentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	depts, err := h.DepartmentService.List(r.Context())
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, depts)
}

// HandleGet handles GET /v1/departments/{id}.
func (h *DepartmentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	dept, err := h.DepartmentService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dept)
}

// HandleUpdate handles PATCH /v1/departments/{id}.
func (h *DepartmentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req DepartmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	dept, err := h.DepartmentService.Update(r.Context(), r.PathValue("id"), req.Name, req.Description)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dept)
}

// HandleDelete handles DELETE /v1/departments/{id}.
func (h *DepartmentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.DepartmentService.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Department deleted"})
}

package http

import (
	"net/http"

	"github.com/q360hq/q360/internal/service"
	"github.com/q360hq/q360/pkg/httpx"
)

// IdeaHandler serves the suggestion box endpoints.
type IdeaHandler struct {
	IdeaService *service.IdeaService
}

type CreateIdeaRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HandleCreate handles POST /v1/ideas.
func (h *IdeaHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateIdeaRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	idea, err := h.IdeaService.Create(ctx, httpx.UserIDFromCtx(ctx), req.Title, req.Description)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, idea)
}

// HandleList handles GET /v1/ideas.
func (h *IdeaHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ideas, err := h.IdeaService.List(r.Context())
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ideas)
}

// HandleGet handles GET /v1/ideas/{id}.
func (h *IdeaHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	idea, err := h.IdeaService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, idea)
}

type IdeaStatusRequest struct {
	Status string `json:"status"`
}

// HandleSetStatus handles PATCH /v1/ideas/{id}/status. Admins and
// managers only.
func (h *IdeaHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req IdeaStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.IdeaService.SetStatus(r.Context(), r.PathValue("id"), req.Status); err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Idea status updated"})
}

// HandleLike handles POST /v1/ideas/{id}/like.
func (h *IdeaHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.IdeaService.Like(ctx, r.PathValue("id"), httpx.UserIDFromCtx(ctx)); err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Liked"})
}

// HandleUnlike handles DELETE /v1/ideas/{id}/like.
func (h *IdeaHandler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.IdeaService.Unlike(ctx, r.PathValue("id"), httpx.UserIDFromCtx(ctx)); err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Like removed"})
}

type CommentRequest struct {
	Body     string  `json:"body"`
	ParentID *string `json:"parent_id,omitempty"`
}

// HandleComment handles POST /v1/ideas/{id}/comments.
func (h *IdeaHandler) HandleComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.IdeaService.Comment(ctx, service.CommentParams{
		IdeaID:   r.PathValue("id"),
		AuthorID: httpx.UserIDFromCtx(ctx),
		ParentID: req.ParentID,
		Body:     req.Body,
	})
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, comment)
}

// HandleListComments handles GET /v1/ideas/{id}/comments.
func (h *IdeaHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.IdeaService.ListComments(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, comments)
}

package http

import (
	"net/http"

	"github.com/q360hq/q360/internal/service"
	"github.com/q360hq/q360/pkg/httpx"
)

// NotificationHandler serves the caller's in-app notifications.
type NotificationHandler struct {
	NotificationService *service.NotificationService
}

// HandleList handles GET /v1/notifications. ?unread=true filters to
// unread only.
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifs, err := h.NotificationService.List(ctx, httpx.UserIDFromCtx(ctx), unreadOnly)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, notifs)
}

// HandleMarkRead handles POST /v1/notifications/{id}/read. Marking another
// user's notification comes back as not found.
func (h *NotificationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := h.NotificationService.MarkRead(ctx, r.PathValue("id"), httpx.UserIDFromCtx(ctx))
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Notification marked read"})
}

// HandleMarkAllRead handles POST /v1/notifications/read-all.
func (h *NotificationHandler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.NotificationService.MarkAllRead(ctx, httpx.UserIDFromCtx(ctx)); err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "All notifications marked read"})
}

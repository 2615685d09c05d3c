package domain

import "time"

// Notification types.
const (
	NotificationEvalAssigned  = "evaluation_assigned"
	NotificationEvalSubmitted = "evaluation_submitted"
	NotificationCycleClosed   = "cycle_closed"
	NotificationIdeaStatus    = "idea_status_changed"
	NotificationIdeaComment   = "idea_commented"
)

// Notification is an in-app message for a single user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

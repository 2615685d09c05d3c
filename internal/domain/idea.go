package domain

import "time"

// Idea workflow states.
const (
	IdeaStatusSubmitted   = "submitted"
	IdeaStatusUnderReview = "under_review"
	IdeaStatusApproved    = "approved"
	IdeaStatusRejected    = "rejected"
	IdeaStatusImplemented = "implemented"
)

// ValidIdeaStatus reports whether s is one of the known idea statuses.
func ValidIdeaStatus(s string) bool {
	switch s {
	case IdeaStatusSubmitted, IdeaStatusUnderReview, IdeaStatusApproved,
		IdeaStatusRejected, IdeaStatusImplemented:
		return true
	}
	return false
}

// Idea is an employee suggestion that moves through a review workflow.
type Idea struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"author_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Aggregates populated on read, not stored columns.
	LikeCount    int `json:"like_count"`
	CommentCount int `json:"comment_count"`
}

// IdeaLike records one user's like of an idea. A user can like an idea at
// most once.
type IdeaLike struct {
	IdeaID    string
	UserID    string
	CreatedAt time.Time
}

// IdeaComment is a comment on an idea. Comments can be threaded one level
// deep via ParentID.
type IdeaComment struct {
	ID        string    `json:"id"`
	IdeaID    string    `json:"idea_id"`
	AuthorID  string    `json:"author_id"`
	ParentID  *string   `json:"parent_id,omitempty"` // nullable, the comment this replies to
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

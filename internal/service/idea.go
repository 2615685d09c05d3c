package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/internal/store"
	"github.com/q360hq/q360/pkg/idx"
	"github.com/q360hq/q360/pkg/slogx"
)

// IdeaService manages the suggestion box: ideas, likes, threaded comments
// and the review workflow.
type IdeaService struct {
	Store store.Store
}

func (s *IdeaService) Create(ctx context.Context, authorID, title, description string) (domain.Idea, error) {
	v := newValidator()
	if title == "" {
		v.Fail("title", "title is required")
	}
	if len(title) > 200 {
		v.Fail("title", "must be at most 200 characters")
	}
	if err := v.Err(); err != nil {
		return domain.Idea{}, err
	}

	now := time.Now().UTC()
	idea := domain.Idea{
		ID:          idx.New().String(),
		AuthorID:    authorID,
		Title:       title,
		Description: description,
		Status:      domain.IdeaStatusSubmitted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.Ideas().CreateIdea(ctx, idea); err != nil {
		return domain.Idea{}, err
	}
	return idea, nil
}

func (s *IdeaService) Get(ctx context.Context, id string) (domain.Idea, error) {
	return s.Store.Ideas().GetIdea(ctx, id)
}

func (s *IdeaService) List(ctx context.Context) ([]domain.Idea, error) {
	return s.Store.Ideas().ListIdeas(ctx)
}

// SetStatus moves an idea through the review workflow and notifies the
// author. Managers and admins only, enforced at the HTTP layer.
func (s *IdeaService) SetStatus(ctx context.Context, ideaID, status string) error {
	if !domain.ValidIdeaStatus(status) {
		v := newValidator()
		v.Fail("status", "unknown idea status")
		return v.Err()
	}

	idea, err := s.Store.Ideas().GetIdea(ctx, ideaID)
	if err != nil {
		return err
	}
	if idea.Status == status {
		return nil
	}

	if err := s.Store.Ideas().UpdateIdeaStatus(ctx, ideaID, status); err != nil {
		return err
	}

	n := domain.Notification{
		ID:        idx.New().String(),
		UserID:    idea.AuthorID,
		Type:      domain.NotificationIdeaStatus,
		Title:     "Idea status updated",
		Body:      fmt.Sprintf("Your idea %q is now %s.", idea.Title, status),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.Notifications().CreateNotification(ctx, n); err != nil {
		slogx.FromContext(ctx).Error("create idea status notification failed", "err", err)
	}
	return nil
}

// Like records a like. Liking twice is reported as a validation failure.
func (s *IdeaService) Like(ctx context.Context, ideaID, userID string) error {
	if _, err := s.Store.Ideas().GetIdea(ctx, ideaID); err != nil {
		return err
	}
	err := s.Store.Ideas().LikeIdea(ctx, ideaID, userID)
	if errors.Is(err, store.ErrAlreadyExists) {
		v := newValidator()
		v.Fail("idea_id", "already liked")
		return v.Err()
	}
	return err
}

func (s *IdeaService) Unlike(ctx context.Context, ideaID, userID string) error {
	return s.Store.Ideas().UnlikeIdea(ctx, ideaID, userID)
}

type CommentParams struct {
	IdeaID   string
	AuthorID string
	ParentID *string
	Body     string
}

// Comment adds a comment, optionally as a reply to another comment on
// the same idea. The idea's author is notified of top-level comments.
func (s *IdeaService) Comment(ctx context.Context, p CommentParams) (domain.IdeaComment, error) {
	v := newValidator()
	if p.Body == "" {
		v.Fail("body", "comment body is required")
	}

	idea, err := s.Store.Ideas().GetIdea(ctx, p.IdeaID)
	if err != nil {
		return domain.IdeaComment{}, err
	}

	if p.ParentID != nil {
		comments, err := s.Store.Ideas().ListComments(ctx, p.IdeaID)
		if err != nil {
			return domain.IdeaComment{}, err
		}
		found := false
		for _, c := range comments {
			if c.ID == *p.ParentID {
				found = true
				break
			}
		}
		if !found {
			v.Fail("parent_id", "parent comment does not belong to this idea")
		}
	}
	if err := v.Err(); err != nil {
		return domain.IdeaComment{}, err
	}

	comment := domain.IdeaComment{
		ID:        idx.New().String(),
		IdeaID:    p.IdeaID,
		AuthorID:  p.AuthorID,
		ParentID:  p.ParentID,
		Body:      p.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.Ideas().CreateComment(ctx, comment); err != nil {
		return domain.IdeaComment{}, err
	}

	if p.ParentID == nil && idea.AuthorID != p.AuthorID {
		n := domain.Notification{
			ID:        idx.New().String(),
			UserID:    idea.AuthorID,
			Type:      domain.NotificationIdeaComment,
			Title:     "New comment on your idea",
			Body:      fmt.Sprintf("Someone commented on %q.", idea.Title),
			CreatedAt: time.Now().UTC(),
		}
		if err := s.Store.Notifications().CreateNotification(ctx, n); err != nil {
			slogx.FromContext(ctx).Error("create comment notification failed", "err", err)
		}
	}

	return comment, nil
}

func (s *IdeaService) ListComments(ctx context.Context, ideaID string) ([]domain.IdeaComment, error) {
	return s.Store.Ideas().ListComments(ctx, ideaID)
}

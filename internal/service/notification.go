package service

import (
	"context"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/internal/store"
)

type NotificationService struct {
	Store store.Store
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	return s.Store.Notifications().ListForUser(ctx, userID, unreadOnly)
}

// MarkRead only touches the caller's own notifications.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	return s.Store.Notifications().MarkRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.Store.Notifications().MarkAllRead(ctx, userID)
}

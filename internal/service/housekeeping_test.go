package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/pkg/idx"
)

func TestHousekeepingPrunesOldReadNotifications(t *testing.T) {
	mailer := newCaptureMailer()
	st := newTestStore(t)
	users := &UserService{Store: st, Mailer: mailer}
	hk := NewHousekeepingService(st, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour)
	ctx := context.Background()

	userID := registerVerified(t, users, mailer, "alice", "alice@example.com", "password123").ID
	now := time.Now().UTC()

	plant := func(age time.Duration, read bool) string {
		id := idx.New().String()
		require.NoError(t, st.Notifications().CreateNotification(ctx, domain.Notification{
			ID:        id,
			UserID:    userID,
			Type:      domain.NotificationIdeaComment,
			Title:     "t",
			Body:      "b",
			Read:      read,
			CreatedAt: now.Add(-age),
		}))
		return id
	}

	// Read notifications survive for 90 days; unread ones are never pruned.
	keptRecent := plant(60*24*time.Hour, true)
	keptUnread := plant(120*24*time.Hour, false)
	plant(120*24*time.Hour, true)

	hk.cleanup()

	notifs, err := st.Notifications().ListForUser(ctx, userID, false)
	require.NoError(t, err)
	require.Len(t, notifs, 2)

	ids := []string{notifs[0].ID, notifs[1].ID}
	require.Contains(t, ids, keptRecent)
	require.Contains(t, ids, keptUnread)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/internal/store"
)

func TestIdeaCreateAndStatus(t *testing.T) {
	mailer := newCaptureMailer()
	st := newTestStore(t)
	users := &UserService{Store: st, Mailer: mailer}
	ideas := &IdeaService{Store: st}
	notifs := &NotificationService{Store: st}
	ctx := context.Background()

	author := registerVerified(t, users, mailer, "alice", "alice@example.com", "password123")

	var verr *ValidationError
	_, err := ideas.Create(ctx, author.ID, "", "no title")
	require.ErrorAs(t, err, &verr)

	idea, err := ideas.Create(ctx, author.ID, "Standing desks", "for everyone")
	require.NoError(t, err)
	require.Equal(t, domain.IdeaStatusSubmitted, idea.Status)

	require.ErrorAs(t, ideas.SetStatus(ctx, idea.ID, "bogus"), &verr)

	require.NoError(t, ideas.SetStatus(ctx, idea.ID, domain.IdeaStatusApproved))

	got, err := ideas.Get(ctx, idea.ID)
	require.NoError(t, err)
	require.Equal(t, domain.IdeaStatusApproved, got.Status)

	// The author hears about the change, but not about no-op updates.
	list, err := notifs.List(ctx, author.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, domain.NotificationIdeaStatus, list[0].Type)

	require.NoError(t, ideas.SetStatus(ctx, idea.ID, domain.IdeaStatusApproved))
	list, err = notifs.List(ctx, author.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestIdeaLikes(t *testing.T) {
	mailer := newCaptureMailer()
	st := newTestStore(t)
	users := &UserService{Store: st, Mailer: mailer}
	ideas := &IdeaService{Store: st}
	ctx := context.Background()

	author := registerVerified(t, users, mailer, "alice", "alice@example.com", "password123")
	fan := registerVerified(t, users, mailer, "bob", "bob@example.com", "password123")

	idea, err := ideas.Create(ctx, author.ID, "Standing desks", "")
	require.NoError(t, err)

	require.NoError(t, ideas.Like(ctx, idea.ID, fan.ID))

	var verr *ValidationError
	require.ErrorAs(t, ideas.Like(ctx, idea.ID, fan.ID), &verr)

	got, err := ideas.Get(ctx, idea.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.LikeCount)

	require.NoError(t, ideas.Unlike(ctx, idea.ID, fan.ID))
	got, err = ideas.Get(ctx, idea.ID)
	require.NoError(t, err)
	require.Zero(t, got.LikeCount)

	require.ErrorIs(t, ideas.Like(ctx, "missing", fan.ID), store.ErrNotFound)
}

func TestIdeaComments(t *testing.T) {
	mailer := newCaptureMailer()
	st := newTestStore(t)
	users := &UserService{Store: st, Mailer: mailer}
	ideas := &IdeaService{Store: st}
	notifs := &NotificationService{Store: st}
	ctx := context.Background()

	author := registerVerified(t, users, mailer, "alice", "alice@example.com", "password123")
	commenter := registerVerified(t, users, mailer, "bob", "bob@example.com", "password123")

	idea, err := ideas.Create(ctx, author.ID, "Standing desks", "")
	require.NoError(t, err)

	var verr *ValidationError
	_, err = ideas.Comment(ctx, CommentParams{IdeaID: idea.ID, AuthorID: commenter.ID})
	require.ErrorAs(t, err, &verr)

	top, err := ideas.Comment(ctx, CommentParams{
		IdeaID:   idea.ID,
		AuthorID: commenter.ID,
		Body:     "love it",
	})
	require.NoError(t, err)

	// Top-level comment from someone else notifies the author.
	list, err := notifs.List(ctx, author.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, domain.NotificationIdeaComment, list[0].Type)

	// Replies don't.
	_, err = ideas.Comment(ctx, CommentParams{
		IdeaID:   idea.ID,
		AuthorID: author.ID,
		ParentID: &top.ID,
		Body:     "thanks",
	})
	require.NoError(t, err)
	list, err = notifs.List(ctx, author.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 1)

	// A parent from another idea is rejected.
	other, err := ideas.Create(ctx, author.ID, "Another idea", "")
	require.NoError(t, err)
	_, err = ideas.Comment(ctx, CommentParams{
		IdeaID:   other.ID,
		AuthorID: commenter.ID,
		ParentID: &top.ID,
		Body:     "wrong thread",
	})
	require.ErrorAs(t, err, &verr)

	comments, err := ideas.ListComments(ctx, idea.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)

	got, err := ideas.Get(ctx, idea.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.CommentCount)
}

func TestNotificationsMarkRead(t *testing.T) {
	mailer := newCaptureMailer()
	st := newTestStore(t)
	users := &UserService{Store: st, Mailer: mailer}
	ideas := &IdeaService{Store: st}
	notifs := &NotificationService{Store: st}
	ctx := context.Background()

	author := registerVerified(t, users, mailer, "alice", "alice@example.com", "password123")
	other := registerVerified(t, users, mailer, "bob", "bob@example.com", "password123")

	idea, err := ideas.Create(ctx, author.ID, "Standing desks", "")
	require.NoError(t, err)
	require.NoError(t, ideas.SetStatus(ctx, idea.ID, domain.IdeaStatusApproved))
	require.NoError(t, ideas.SetStatus(ctx, idea.ID, domain.IdeaStatusImplemented))

	unread, err := notifs.List(ctx, author.ID, true)
	require.NoError(t, err)
	require.Len(t, unread, 2)

	// Users can only mark their own notifications.
	require.ErrorIs(t, notifs.MarkRead(ctx, unread[0].ID, other.ID), store.ErrNotFound)

	require.NoError(t, notifs.MarkRead(ctx, unread[0].ID, author.ID))
	left, err := notifs.List(ctx, author.ID, true)
	require.NoError(t, err)
	require.Len(t, left, 1)

	require.NoError(t, notifs.MarkAllRead(ctx, author.ID))
	left, err = notifs.List(ctx, author.ID, true)
	require.NoError(t, err)
	require.Empty(t, left)

	all, err := notifs.List(ctx, author.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

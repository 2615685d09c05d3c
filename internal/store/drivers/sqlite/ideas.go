package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/internal/store"
)

type ideasRepo struct {
	db dbtx
}

const ideaSelect = `
	SELECT i.id, i.author_id, i.title, i.description, i.status, i.created_at, i.updated_at,
		(SELECT COUNT(*) FROM idea_likes l WHERE l.idea_id = i.id),
		(SELECT COUNT(*) FROM idea_comments c WHERE c.idea_id = i.id)
	FROM ideas i`

func scanIdea(row rowScanner) (domain.Idea, error) {
	var i domain.Idea
	err := row.Scan(
		&i.ID, &i.AuthorID, &i.Title, &i.Description, &i.Status,
		&i.CreatedAt, &i.UpdatedAt, &i.LikeCount, &i.CommentCount,
	)
	if err != nil {
		return domain.Idea{}, err
	}
	return i, nil
}

func (r *ideasRepo) CreateIdea(ctx context.Context, i domain.Idea) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ideas (id, author_id, title, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.AuthorID, i.Title, i.Description, i.Status, i.CreatedAt, i.UpdatedAt)
	return mapConstraint(err)
}

func (r *ideasRepo) GetIdea(ctx context.Context, id string) (domain.Idea, error) {
	row := r.db.QueryRowContext(ctx, ideaSelect+` WHERE i.id = ?`, id)
	i, err := scanIdea(row)
	if err != nil {
		return domain.Idea{}, mapNotFound(err)
	}
	return i, nil
}

func (r *ideasRepo) ListIdeas(ctx context.Context) ([]domain.Idea, error) {
	rows, err := r.db.QueryContext(ctx, ideaSelect+` ORDER BY i.created_at DESC, i.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Idea
	for rows.Next() {
		i, err := scanIdea(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *ideasRepo) UpdateIdeaStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE ideas SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *ideasRepo) LikeIdea(ctx context.Context, ideaID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO idea_likes (idea_id, user_id, created_at)
		VALUES (?, ?, ?)`,
		ideaID, userID, time.Now().UTC())
	return mapConstraint(err)
}

func (r *ideasRepo) UnlikeIdea(ctx context.Context, ideaID, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM idea_likes WHERE idea_id = ? AND user_id = ?`,
		ideaID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *ideasRepo) CreateComment(ctx context.Context, c domain.IdeaComment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO idea_comments (id, idea_id, author_id, parent_id, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.IdeaID, c.AuthorID, mapOptionalString(c.ParentID), c.Body, c.CreatedAt)
	return mapConstraint(err)
}

func (r *ideasRepo) ListComments(ctx context.Context, ideaID string) ([]domain.IdeaComment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, idea_id, author_id, parent_id, body, created_at
		FROM idea_comments WHERE idea_id = ?
		ORDER BY created_at, id`, ideaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.IdeaComment
	for rows.Next() {
		var (
			c        domain.IdeaComment
			parentID sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.IdeaID, &c.AuthorID, &parentID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.ParentID = mapNullStringPtr(parentID)
		out = append(out, c)
	}
	return out, rows.Err()
}

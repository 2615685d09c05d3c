package sqlite

import (
	"context"

	"github.com/q360hq/q360/internal/domain"
)

type competenciesRepo struct {
	db dbtx
}

func (r *competenciesRepo) CreateCompetency(ctx context.Context, c domain.Competency) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO competencies (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt)
	return mapConstraint(err)
}

func (r *competenciesRepo) GetCompetency(ctx context.Context, id string) (domain.Competency, error) {
	var c domain.Competency
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM competencies WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Competency{}, mapNotFound(err)
	}
	return c, nil
}

func (r *competenciesRepo) ListCompetencies(ctx context.Context) ([]domain.Competency, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM competencies ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Competency
	for rows.Next() {
		var c domain.Competency
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *competenciesRepo) CreateQuestion(ctx context.Context, q domain.Question) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO questions (id, competency_id, text, position, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		q.ID, q.CompetencyID, q.Text, q.Position, q.CreatedAt)
	return mapConstraint(err)
}

func (r *competenciesRepo) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	var q domain.Question
	err := r.db.QueryRowContext(ctx, `
		SELECT id, competency_id, text, position, created_at
		FROM questions WHERE id = ?`, id).
		Scan(&q.ID, &q.CompetencyID, &q.Text, &q.Position, &q.CreatedAt)
	if err != nil {
		return domain.Question{}, mapNotFound(err)
	}
	return q, nil
}

func (r *competenciesRepo) ListQuestions(ctx context.Context, competencyID string) ([]domain.Question, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, competency_id, text, position, created_at
		FROM questions WHERE competency_id = ?
		ORDER BY position, id`, competencyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.CompetencyID, &q.Text, &q.Position, &q.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

package sqlite

import (
	"context"
	"time"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/internal/store"
)

type cyclesRepo struct {
	db dbtx
}

func (r *cyclesRepo) CreateCycle(ctx context.Context, c domain.EvaluationCycle) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO evaluation_cycles (id, name, start_date, end_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.StartDate, c.EndDate, c.Status, c.CreatedAt, c.UpdatedAt)
	return mapConstraint(err)
}

func (r *cyclesRepo) GetCycle(ctx context.Context, id string) (domain.EvaluationCycle, error) {
	var c domain.EvaluationCycle
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, start_date, end_date, status, created_at, updated_at
		FROM evaluation_cycles WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.StartDate, &c.EndDate, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.EvaluationCycle{}, mapNotFound(err)
	}
	return c, nil
}

func (r *cyclesRepo) ListCycles(ctx context.Context) ([]domain.EvaluationCycle, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, start_date, end_date, status, created_at, updated_at
		FROM evaluation_cycles ORDER BY start_date DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EvaluationCycle
	for rows.Next() {
		var c domain.EvaluationCycle
		if err := rows.Scan(&c.ID, &c.Name, &c.StartDate, &c.EndDate, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *cyclesRepo) UpdateCycleStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE evaluation_cycles SET status = ?, updated_at = ? WHERE id = ?`,
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

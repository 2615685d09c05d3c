package sqlite

import (
	"context"
	"time"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/internal/store"
)

type departmentsRepo struct {
	db dbtx
}

func (r *departmentsRepo) CreateDepartment(ctx context.Context, d domain.Department) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO departments (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Description, d.CreatedAt, d.UpdatedAt)
	return mapConstraint(err)
}

func (r *departmentsRepo) GetDepartment(ctx context.Context, id string) (domain.Department, error) {
	var d domain.Department
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM departments WHERE id = ?`, id).
		Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return domain.Department{}, mapNotFound(err)
	}
	return d, nil
}

func (r *departmentsRepo) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM departments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Department
	for rows.Next() {
		var d domain.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *departmentsRepo) UpdateDepartment(ctx context.Context, d domain.Department) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE departments SET name = ?, description = ?, updated_at = ?
		WHERE id = ?`,
		d.Name, d.Description, time.Now().UTC(), d.ID)
	if err != nil {
		return mapConstraint(err)
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

func (r *departmentsRepo) DeleteDepartment(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = ?`, id)
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

package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/internal/store"
)

type evaluationsRepo struct {
	db dbtx
}

const evaluationColumns = `id, cycle_id, evaluatee_id, evaluator_id, type, status,
	submitted_at, created_at, updated_at`

func scanEvaluation(row rowScanner) (domain.Evaluation, error) {
	var (
		e           domain.Evaluation
		submittedAt sql.NullTime
	)
	err := row.Scan(
		&e.ID, &e.CycleID, &e.EvaluateeID, &e.EvaluatorID, &e.Type, &e.Status,
		&submittedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return domain.Evaluation{}, err
	}
	e.SubmittedAt = mapNullTimePtr(submittedAt)
	return e, nil
}

func (r *evaluationsRepo) CreateEvaluation(ctx context.Context, e domain.Evaluation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO evaluations (
			id, cycle_id, evaluatee_id, evaluator_id, type, status,
			submitted_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CycleID, e.EvaluateeID, e.EvaluatorID, e.Type, e.Status,
		mapOptionalTime(e.SubmittedAt), e.CreatedAt, e.UpdatedAt)
	return mapConstraint(err)
}

func (r *evaluationsRepo) GetEvaluation(ctx context.Context, id string) (domain.Evaluation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations WHERE id = ?`, id)
	e, err := scanEvaluation(row)
	if err != nil {
		return domain.Evaluation{}, mapNotFound(err)
	}
	return e, nil
}

func (r *evaluationsRepo) listWhere(ctx context.Context, where string, arg any) ([]domain.Evaluation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations WHERE `+where+` ORDER BY created_at, id`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *evaluationsRepo) ListForEvaluator(ctx context.Context, evaluatorID string) ([]domain.Evaluation, error) {
	return r.listWhere(ctx, `evaluator_id = ?`, evaluatorID)
}

func (r *evaluationsRepo) ListForEvaluatee(ctx context.Context, evaluateeID string) ([]domain.Evaluation, error) {
	return r.listWhere(ctx, `evaluatee_id = ?`, evaluateeID)
}

func (r *evaluationsRepo) SubmitEvaluation(ctx context.Context, id string, now time.Time) error {
	// Guarded on status so a double submit affects no rows.
	res, err := r.db.ExecContext(ctx, `
		UPDATE evaluations SET status = ?, submitted_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		domain.EvalStatusSubmitted, now, now, id, domain.EvalStatusPending)
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

func (r *evaluationsRepo) UpsertAnswer(ctx context.Context, a domain.Answer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO answers (id, evaluation_id, question_id, score, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (evaluation_id, question_id)
		DO UPDATE SET score = excluded.score, comment = excluded.comment, updated_at = excluded.updated_at`,
		a.ID, a.EvaluationID, a.QuestionID, a.Score, a.Comment, a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *evaluationsRepo) ListAnswers(ctx context.Context, evaluationID string) ([]domain.Answer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, evaluation_id, question_id, score, comment, created_at, updated_at
		FROM answers WHERE evaluation_id = ?
		ORDER BY created_at, id`, evaluationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Answer
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ID, &a.EvaluationID, &a.QuestionID, &a.Score, &a.Comment, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

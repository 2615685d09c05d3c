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

// EvaluationService manages review cycles, competencies and the
// evaluations collected during a cycle.
type EvaluationService struct {
	Store store.Store
}

type CreateCycleParams struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

func (s *EvaluationService) CreateCycle(ctx context.Context, p CreateCycleParams) (domain.EvaluationCycle, error) {
	v := newValidator()
	if p.Name == "" {
		v.Fail("name", "name is required")
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		v.Fail("start_date", "start and end dates are required")
	} else if !p.EndDate.After(p.StartDate) {
		v.Fail("end_date", "end date must be after start date")
	}
	if err := v.Err(); err != nil {
		return domain.EvaluationCycle{}, err
	}

	now := time.Now().UTC()
	cycle := domain.EvaluationCycle{
		ID:        idx.New().String(),
		Name:      p.Name,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Status:    domain.CycleStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Cycles().CreateCycle(ctx, cycle); err != nil {
		return domain.EvaluationCycle{}, err
	}
	return cycle, nil
}

func (s *EvaluationService) GetCycle(ctx context.Context, id string) (domain.EvaluationCycle, error) {
	return s.Store.Cycles().GetCycle(ctx, id)
}

func (s *EvaluationService) ListCycles(ctx context.Context) ([]domain.EvaluationCycle, error) {
	return s.Store.Cycles().ListCycles(ctx)
}

// SetCycleStatus moves a cycle forward in its lifecycle. Only
// draft -> active and active -> closed are legal.
func (s *EvaluationService) SetCycleStatus(ctx context.Context, id, status string) error {
	cycle, err := s.Store.Cycles().GetCycle(ctx, id)
	if err != nil {
		return err
	}

	legal := (cycle.Status == domain.CycleStatusDraft && status == domain.CycleStatusActive) ||
		(cycle.Status == domain.CycleStatusActive && status == domain.CycleStatusClosed)
	if !legal {
		v := newValidator()
		v.Fail("status", fmt.Sprintf("cannot move cycle from %s to %s", cycle.Status, status))
		return v.Err()
	}

	if err := s.Store.Cycles().UpdateCycleStatus(ctx, id, status); err != nil {
		return err
	}

	if status == domain.CycleStatusClosed {
		s.notifyCycleClosed(ctx, cycle)
	}
	return nil
}

// notifyCycleClosed tells evaluators with pending work that the cycle is
// over. Failures only log; closing the cycle already happened.
func (s *EvaluationService) notifyCycleClosed(ctx context.Context, cycle domain.EvaluationCycle) {
	log := slogx.FromContext(ctx)
	users, err := s.Store.Users().ListUsers(ctx)
	if err != nil {
		log.Error("cycle close notification sweep failed", "err", err, "cycle_id", cycle.ID)
		return
	}
	for _, u := range users {
		n := domain.Notification{
			ID:        idx.New().String(),
			UserID:    u.ID,
			Type:      domain.NotificationCycleClosed,
			Title:     "Evaluation cycle closed",
			Body:      fmt.Sprintf("The cycle %q has been closed.", cycle.Name),
			CreatedAt: time.Now().UTC(),
		}
		if err := s.Store.Notifications().CreateNotification(ctx, n); err != nil {
			log.Error("create cycle-closed notification failed", "err", err, "user_id", u.ID)
		}
	}
}

func (s *EvaluationService) CreateCompetency(ctx context.Context, name, description string) (domain.Competency, error) {
	if name == "" {
		v := newValidator()
		v.Fail("name", "name is required")
		return domain.Competency{}, v.Err()
	}

	now := time.Now().UTC()
	c := domain.Competency{
		ID:          idx.New().String(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.Competencies().CreateCompetency(ctx, c); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			v := newValidator()
			v.Fail("name", "a competency with this name already exists")
			return domain.Competency{}, v.Err()
		}
		return domain.Competency{}, err
	}
	return c, nil
}

func (s *EvaluationService) ListCompetencies(ctx context.Context) ([]domain.Competency, error) {
	return s.Store.Competencies().ListCompetencies(ctx)
}

func (s *EvaluationService) AddQuestion(ctx context.Context, competencyID, text string, position int) (domain.Question, error) {
	v := newValidator()
	if text == "" {
		v.Fail("text", "question text is required")
	}
	if _, err := s.Store.Competencies().GetCompetency(ctx, competencyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			v.Fail("competency_id", "competency does not exist")
		} else {
			return domain.Question{}, err
		}
	}
	if err := v.Err(); err != nil {
		return domain.Question{}, err
	}

	q := domain.Question{
		ID:           idx.New().String(),
		CompetencyID: competencyID,
		Text:         text,
		Position:     position,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Store.Competencies().CreateQuestion(ctx, q); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

func (s *EvaluationService) ListQuestions(ctx context.Context, competencyID string) ([]domain.Question, error) {
	return s.Store.Competencies().ListQuestions(ctx, competencyID)
}

type AssignEvaluationParams struct {
	CycleID     string
	EvaluateeID string
	EvaluatorID string
	Type        string
}

// AssignEvaluation creates a pending evaluation in an active cycle and
// notifies the evaluator. Assigning the same tuple twice fails.
func (s *EvaluationService) AssignEvaluation(ctx context.Context, p AssignEvaluationParams) (domain.Evaluation, error) {
	v := newValidator()
	if !domain.ValidEvalType(p.Type) {
		v.Fail("type", "must be one of self, peer, manager, subordinate")
	}
	if p.Type == domain.EvalTypeSelf && p.EvaluateeID != p.EvaluatorID {
		v.Fail("evaluator_id", "self evaluations must target the evaluator")
	}
	if p.Type != domain.EvalTypeSelf && p.EvaluateeID == p.EvaluatorID {
		v.Fail("evaluator_id", "evaluator and evaluatee must differ")
	}

	cycle, err := s.Store.Cycles().GetCycle(ctx, p.CycleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			v.Fail("cycle_id", "cycle does not exist")
		} else {
			return domain.Evaluation{}, err
		}
	} else if cycle.Status != domain.CycleStatusActive {
		v.Fail("cycle_id", "cycle is not active")
	}

	for field, id := range map[string]string{
		"evaluatee_id": p.EvaluateeID,
		"evaluator_id": p.EvaluatorID,
	} {
		if _, err := s.Store.Users().GetUserByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				v.Fail(field, "user does not exist")
			} else {
				return domain.Evaluation{}, err
			}
		}
	}
	if err := v.Err(); err != nil {
		return domain.Evaluation{}, err
	}

	now := time.Now().UTC()
	eval := domain.Evaluation{
		ID:          idx.New().String(),
		CycleID:     p.CycleID,
		EvaluateeID: p.EvaluateeID,
		EvaluatorID: p.EvaluatorID,
		Type:        p.Type,
		Status:      domain.EvalStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.Evaluations().CreateEvaluation(ctx, eval); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			v := newValidator()
			v.Fail("evaluator_id", "this evaluation is already assigned")
			return domain.Evaluation{}, v.Err()
		}
		return domain.Evaluation{}, err
	}

	n := domain.Notification{
		ID:        idx.New().String(),
		UserID:    p.EvaluatorID,
		Type:      domain.NotificationEvalAssigned,
		Title:     "New evaluation assigned",
		Body:      fmt.Sprintf("You have a new %s evaluation to complete in cycle %q.", p.Type, cycle.Name),
		CreatedAt: now,
	}
	if err := s.Store.Notifications().CreateNotification(ctx, n); err != nil {
		slogx.FromContext(ctx).Error("create assignment notification failed", "err", err)
	}

	return eval, nil
}

func (s *EvaluationService) ListForEvaluator(ctx context.Context, evaluatorID string) ([]domain.Evaluation, error) {
	return s.Store.Evaluations().ListForEvaluator(ctx, evaluatorID)
}

func (s *EvaluationService) ListForEvaluatee(ctx context.Context, evaluateeID string) ([]domain.Evaluation, error) {
	return s.Store.Evaluations().ListForEvaluatee(ctx, evaluateeID)
}

// getOwnedPending loads an evaluation and checks that the caller is its
// evaluator and it hasn't been submitted yet.
func (s *EvaluationService) getOwnedPending(ctx context.Context, evaluationID, evaluatorID string) (domain.Evaluation, error) {
	eval, err := s.Store.Evaluations().GetEvaluation(ctx, evaluationID)
	if err != nil {
		return domain.Evaluation{}, err
	}
	if eval.EvaluatorID != evaluatorID {
		return domain.Evaluation{}, ErrForbidden
	}
	if eval.Status != domain.EvalStatusPending {
		v := newValidator()
		v.Fail("evaluation_id", "evaluation is already submitted")
		return domain.Evaluation{}, v.Err()
	}
	return eval, nil
}

type SaveAnswerParams struct {
	EvaluationID string
	EvaluatorID  string // caller, must own the evaluation
	QuestionID   string
	Score        int
	Comment      string
}

// SaveAnswer records or overwrites the answer to one question. Answers
// can be edited until the evaluation is submitted.
func (s *EvaluationService) SaveAnswer(ctx context.Context, p SaveAnswerParams) error {
	if _, err := s.getOwnedPending(ctx, p.EvaluationID, p.EvaluatorID); err != nil {
		return err
	}

	v := newValidator()
	if p.Score < domain.MinScore || p.Score > domain.MaxScore {
		v.Fail("score", fmt.Sprintf("must be between %d and %d", domain.MinScore, domain.MaxScore))
	}
	if _, err := s.Store.Competencies().GetQuestion(ctx, p.QuestionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			v.Fail("question_id", "question does not exist")
		} else {
			return err
		}
	}
	if err := v.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	return s.Store.Evaluations().UpsertAnswer(ctx, domain.Answer{
		ID:           idx.New().String(),
		EvaluationID: p.EvaluationID,
		QuestionID:   p.QuestionID,
		Score:        p.Score,
		Comment:      p.Comment,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// Submit finalizes the evaluation. It needs at least one answer and
// notifies the evaluatee once locked.
func (s *EvaluationService) Submit(ctx context.Context, evaluationID, evaluatorID string) error {
	eval, err := s.getOwnedPending(ctx, evaluationID, evaluatorID)
	if err != nil {
		return err
	}

	answers, err := s.Store.Evaluations().ListAnswers(ctx, evaluationID)
	if err != nil {
		return err
	}
	if len(answers) == 0 {
		v := newValidator()
		v.Fail("answers", "at least one answer is required before submitting")
		return v.Err()
	}

	if err := s.Store.Evaluations().SubmitEvaluation(ctx, evaluationID, time.Now().UTC()); err != nil {
		return err
	}

	n := domain.Notification{
		ID:        idx.New().String(),
		UserID:    eval.EvaluateeID,
		Type:      domain.NotificationEvalSubmitted,
		Title:     "Evaluation received",
		Body:      "A new evaluation about you has been submitted.",
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.Notifications().CreateNotification(ctx, n); err != nil {
		slogx.FromContext(ctx).Error("create submission notification failed", "err", err)
	}
	return nil
}

// ListAnswers returns the answers of an evaluation. Visible to the
// evaluator, and to others once submitted; the HTTP layer gates this.
func (s *EvaluationService) ListAnswers(ctx context.Context, evaluationID string) ([]domain.Answer, error) {
	return s.Store.Evaluations().ListAnswers(ctx, evaluationID)
}

func (s *EvaluationService) GetEvaluation(ctx context.Context, id string) (domain.Evaluation, error) {
	return s.Store.Evaluations().GetEvaluation(ctx, id)
}

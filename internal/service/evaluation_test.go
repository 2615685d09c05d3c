package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/q360hq/q360/internal/domain"
)

func newEvalFixture(t *testing.T) (*EvaluationService, *UserService, *captureMailer) {
	t.Helper()
	st := newTestStore(t)
	mailer := newCaptureMailer()
	return &EvaluationService{Store: st},
		&UserService{Store: st, Mailer: mailer},
		mailer
}

func activeCycle(t *testing.T, evals *EvaluationService) domain.EvaluationCycle {
	t.Helper()
	ctx := context.Background()

	cycle, err := evals.CreateCycle(ctx, CreateCycleParams{
		Name:      "H1 2026",
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, evals.SetCycleStatus(ctx, cycle.ID, domain.CycleStatusActive))
	return cycle
}

func TestCycleLifecycle(t *testing.T) {
	evals, _, _ := newEvalFixture(t)
	ctx := context.Background()

	_, err := evals.CreateCycle(ctx, CreateCycleParams{Name: ""})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	cycle, err := evals.CreateCycle(ctx, CreateCycleParams{
		Name:      "H1 2026",
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, domain.CycleStatusDraft, cycle.Status)

	// Draft cannot be closed directly.
	require.ErrorAs(t, evals.SetCycleStatus(ctx, cycle.ID, domain.CycleStatusClosed), &verr)

	require.NoError(t, evals.SetCycleStatus(ctx, cycle.ID, domain.CycleStatusActive))
	require.NoError(t, evals.SetCycleStatus(ctx, cycle.ID, domain.CycleStatusClosed))

	// Closed is terminal.
	require.ErrorAs(t, evals.SetCycleStatus(ctx, cycle.ID, domain.CycleStatusActive), &verr)
}

func TestAssignEvaluation(t *testing.T) {
	evals, users, mailer := newEvalFixture(t)
	ctx := context.Background()

	evaluatee := registerVerified(t, users, mailer, "alice", "alice@example.com", "password123")
	evaluator := registerVerified(t, users, mailer, "bob", "bob@example.com", "password123")
	cycle := activeCycle(t, evals)

	eval, err := evals.AssignEvaluation(ctx, AssignEvaluationParams{
		CycleID:     cycle.ID,
		EvaluateeID: evaluatee.ID,
		EvaluatorID: evaluator.ID,
		Type:        domain.EvalTypePeer,
	})
	require.NoError(t, err)
	require.Equal(t, domain.EvalStatusPending, eval.Status)

	// The evaluator got a notification.
	notifs := &NotificationService{Store: evals.Store}
	got, err := notifs.List(ctx, evaluator.ID, true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, domain.NotificationEvalAssigned, got[0].Type)

	var verr *ValidationError

	// Duplicate tuple is rejected.
	_, err = evals.AssignEvaluation(ctx, AssignEvaluationParams{
		CycleID:     cycle.ID,
		EvaluateeID: evaluatee.ID,
		EvaluatorID: evaluator.ID,
		Type:        domain.EvalTypePeer,
	})
	require.ErrorAs(t, err, &verr)

	// Self evaluations must point at the evaluator.
	_, err = evals.AssignEvaluation(ctx, AssignEvaluationParams{
		CycleID:     cycle.ID,
		EvaluateeID: evaluatee.ID,
		EvaluatorID: evaluator.ID,
		Type:        domain.EvalTypeSelf,
	})
	require.ErrorAs(t, err, &verr)

	// Peer evaluations can't be of yourself.
	_, err = evals.AssignEvaluation(ctx, AssignEvaluationParams{
		CycleID:     cycle.ID,
		EvaluateeID: evaluator.ID,
		EvaluatorID: evaluator.ID,
		Type:        domain.EvalTypePeer,
	})
	require.ErrorAs(t, err, &verr)
}

func TestAnswerAndSubmitFlow(t *testing.T) {
	evals, users, mailer := newEvalFixture(t)
	ctx := context.Background()

	evaluatee := registerVerified(t, users, mailer, "alice", "alice@example.com", "password123")
	evaluator := registerVerified(t, users, mailer, "bob", "bob@example.com", "password123")
	cycle := activeCycle(t, evals)

	comp, err := evals.CreateCompetency(ctx, "Communication", "clear and timely")
	require.NoError(t, err)
	q1, err := evals.AddQuestion(ctx, comp.ID, "Communicates decisions clearly", 1)
	require.NoError(t, err)

	eval, err := evals.AssignEvaluation(ctx, AssignEvaluationParams{
		CycleID:     cycle.ID,
		EvaluateeID: evaluatee.ID,
		EvaluatorID: evaluator.ID,
		Type:        domain.EvalTypePeer,
	})
	require.NoError(t, err)

	var verr *ValidationError

	// Submitting without answers fails.
	require.ErrorAs(t, evals.Submit(ctx, eval.ID, evaluator.ID), &verr)

	// Score bounds are enforced.
	require.ErrorAs(t, evals.SaveAnswer(ctx, SaveAnswerParams{
		EvaluationID: eval.ID, EvaluatorID: evaluator.ID,
		QuestionID: q1.ID, Score: 6,
	}), &verr)

	// Only the evaluator can answer.
	require.ErrorIs(t, evals.SaveAnswer(ctx, SaveAnswerParams{
		EvaluationID: eval.ID, EvaluatorID: evaluatee.ID,
		QuestionID: q1.ID, Score: 4,
	}), ErrForbidden)

	// Answers can be revised before submit.
	require.NoError(t, evals.SaveAnswer(ctx, SaveAnswerParams{
		EvaluationID: eval.ID, EvaluatorID: evaluator.ID,
		QuestionID: q1.ID, Score: 3, Comment: "fine",
	}))
	require.NoError(t, evals.SaveAnswer(ctx, SaveAnswerParams{
		EvaluationID: eval.ID, EvaluatorID: evaluator.ID,
		QuestionID: q1.ID, Score: 5, Comment: "actually great",
	}))

	answers, err := evals.ListAnswers(ctx, eval.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	require.Equal(t, 5, answers[0].Score)

	require.NoError(t, evals.Submit(ctx, eval.ID, evaluator.ID))

	got, err := evals.GetEvaluation(ctx, eval.ID)
	require.NoError(t, err)
	require.Equal(t, domain.EvalStatusSubmitted, got.Status)
	require.NotNil(t, got.SubmittedAt)

	// Locked after submit.
	require.ErrorAs(t, evals.SaveAnswer(ctx, SaveAnswerParams{
		EvaluationID: eval.ID, EvaluatorID: evaluator.ID,
		QuestionID: q1.ID, Score: 1,
	}), &verr)
	require.ErrorAs(t, evals.Submit(ctx, eval.ID, evaluator.ID), &verr)

	// Evaluatee was notified of the submission.
	notifs := &NotificationService{Store: evals.Store}
	list, err := notifs.List(ctx, evaluatee.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, domain.NotificationEvalSubmitted, list[0].Type)
}

package domain

import "time"

// Evaluation cycle lifecycle states.
const (
	CycleStatusDraft  = "draft"
	CycleStatusActive = "active"
	CycleStatusClosed = "closed"
)

// Evaluation types describing the relationship between evaluator and
// evaluatee within a cycle.
const (
	EvalTypeSelf        = "self"
	EvalTypePeer        = "peer"
	EvalTypeManager     = "manager"
	EvalTypeSubordinate = "subordinate"
)

// ValidEvalType reports whether t is one of the known evaluation types.
func ValidEvalType(t string) bool {
	switch t {
	case EvalTypeSelf, EvalTypePeer, EvalTypeManager, EvalTypeSubordinate:
		return true
	}
	return false
}

// Evaluation statuses.
const (
	EvalStatusPending   = "pending"
	EvalStatusSubmitted = "submitted"
)

// Answer scores are a 1 to 5 scale.
const (
	MinScore = 1
	MaxScore = 5
)

// EvaluationCycle is a review period during which evaluations are
// assigned and collected.
type EvaluationCycle struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Competency is a skill area evaluated during a cycle, e.g. "Communication".
type Competency struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Question belongs to a competency and is answered on a 1 to 5 scale.
type Question struct {
	ID           string    `json:"id"`
	CompetencyID string    `json:"competency_id"`
	Text         string    `json:"text"`
	Position     int       `json:"position"` // ordering within the competency
	CreatedAt    time.Time `json:"created_at"`
}

// Evaluation is one evaluator's review of one evaluatee within a cycle.
// The (cycle, evaluatee, evaluator, type) tuple is unique.
type Evaluation struct {
	ID          string     `json:"id"`
	CycleID     string     `json:"cycle_id"`
	EvaluateeID string     `json:"evaluatee_id"`
	EvaluatorID string     `json:"evaluator_id"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Answer is a single scored response within an evaluation. One answer per
// question per evaluation.
type Answer struct {
	ID           string    `json:"id"`
	EvaluationID string    `json:"evaluation_id"`
	QuestionID   string    `json:"question_id"`
	Score        int       `json:"score"` // MinScore..MaxScore
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

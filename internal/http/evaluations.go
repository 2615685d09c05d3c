package http

import (
	"net/http"
	"time"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/internal/service"
	"github.com/q360hq/q360/pkg/httpx"
)

// EvaluationHandler serves cycles, competencies, questions and the
// evaluation workflow itself.
type EvaluationHandler struct {
	EvaluationService *service.EvaluationService
}

type CreateCycleRequest struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// HandleCreateCycle handles POST /v1/cycles. Admin only.
func (h *EvaluationHandler) HandleCreateCycle(w http.ResponseWriter, r *http.Request) {
	var req CreateCycleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cycle, err := h.EvaluationService.CreateCycle(r.Context(), service.CreateCycleParams{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, cycle)
}

// HandleListCycles handles GET /v1/cycles.
func (h *EvaluationHandler) HandleListCycles(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.EvaluationService.ListCycles(r.Context())
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cycles)
}

// HandleGetCycle handles GET /v1/cycles/{id}.
func (h *EvaluationHandler) HandleGetCycle(w http.ResponseWriter, r *http.Request) {
	cycle, err := h.EvaluationService.GetCycle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cycle)
}

type CycleStatusRequest struct {
	Status string `json:"status"`
}

// HandleSetCycleStatus handles PATCH /v1/cycles/{id}/status. Admin only.
func (h *EvaluationHandler) HandleSetCycleStatus(w http.ResponseWriter, r *http.Request) {
	var req CycleStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.EvaluationService.SetCycleStatus(r.Context(), r.PathValue("id"), req.Status); err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Cycle status updated"})
}

type CompetencyRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HandleCreateCompetency handles POST /v1/competencies. Admin only.
func (h *EvaluationHandler) HandleCreateCompetency(w http.ResponseWriter, r *http.Request) {
	var req CompetencyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comp, err := h.EvaluationService.CreateCompetency(r.Context(), req.Name, req.Description)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, comp)
}

// HandleListCompetencies handles GET /v1/competencies.
func (h *EvaluationHandler) HandleListCompetencies(w http.ResponseWriter, r *http.Request) {
	comps, err := h.EvaluationService.ListCompetencies(r.Context())
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, comps)
}

type QuestionRequest struct {
	Text     string `json:"text"`
	Position int    `json:"position"`
}

// HandleAddQuestion handles POST /v1/competencies/{id}/questions. Admin only.
func (h *EvaluationHandler) HandleAddQuestion(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	q, err := h.EvaluationService.AddQuestion(r.Context(), r.PathValue("id"), req.Text, req.Position)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, q)
}

// HandleListQuestions handles GET /v1/competencies/{id}/questions.
func (h *EvaluationHandler) HandleListQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := h.EvaluationService.ListQuestions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, qs)
}

type AssignEvaluationRequest struct {
	CycleID     string `json:"cycle_id"`
	EvaluateeID string `json:"evaluatee_id"`
	EvaluatorID string `json:"evaluator_id"`
	Type        string `json:"type"`
}

// HandleAssign handles POST /v1/evaluations. Admins and managers only.
func (h *EvaluationHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	var req AssignEvaluationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	eval, err := h.EvaluationService.AssignEvaluation(r.Context(), service.AssignEvaluationParams{
		CycleID:     req.CycleID,
		EvaluateeID: req.EvaluateeID,
		EvaluatorID: req.EvaluatorID,
		Type:        req.Type,
	})
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, eval)
}

// HandleMine handles GET /v1/evaluations/mine, the caller's work queue.
func (h *EvaluationHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	evals, err := h.EvaluationService.ListForEvaluator(ctx, httpx.UserIDFromCtx(ctx))
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, evals)
}

// HandleAboutMe handles GET /v1/evaluations/about-me, evaluations where
// the caller is the evaluatee.
func (h *EvaluationHandler) HandleAboutMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	evals, err := h.EvaluationService.ListForEvaluatee(ctx, httpx.UserIDFromCtx(ctx))
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, evals)
}

// canSeeEvaluation gates read access: the evaluator always, the evaluatee
// and management once submitted.
func canSeeEvaluation(eval domain.Evaluation, userID, role string) bool {
	if eval.EvaluatorID == userID {
		return true
	}
	if eval.Status != domain.EvalStatusSubmitted {
		return false
	}
	return eval.EvaluateeID == userID || role == domain.RoleAdmin || role == domain.RoleManager
}

// HandleGet handles GET /v1/evaluations/{id}.
func (h *EvaluationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eval, err := h.EvaluationService.GetEvaluation(ctx, r.PathValue("id"))
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	if !canSeeEvaluation(eval, httpx.UserIDFromCtx(ctx), httpx.RoleFromCtx(ctx)) {
		writeServiceError(r, w, service.ErrForbidden)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, eval)
}

type AnswerRequest struct {
	QuestionID string `json:"question_id"`
	Score      int    `json:"score"`
	Comment    string `json:"comment"`
}

// HandleSaveAnswer handles PUT /v1/evaluations/{id}/answers. Answers can
// be changed until the evaluation is submitted.
func (h *EvaluationHandler) HandleSaveAnswer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.EvaluationService.SaveAnswer(ctx, service.SaveAnswerParams{
		EvaluationID: r.PathValue("id"),
		EvaluatorID:  httpx.UserIDFromCtx(ctx),
		QuestionID:   req.QuestionID,
		Score:        req.Score,
		Comment:      req.Comment,
	})
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Answer saved"})
}

// HandleSubmit handles POST /v1/evaluations/{id}/submit.
func (h *EvaluationHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := h.EvaluationService.Submit(ctx, r.PathValue("id"), httpx.UserIDFromCtx(ctx))
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Evaluation submitted"})
}

// HandleListAnswers handles GET /v1/evaluations/{id}/answers with the same
// visibility rules as HandleGet.
func (h *EvaluationHandler) HandleListAnswers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eval, err := h.EvaluationService.GetEvaluation(ctx, r.PathValue("id"))
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	if !canSeeEvaluation(eval, httpx.UserIDFromCtx(ctx), httpx.RoleFromCtx(ctx)) {
		writeServiceError(r, w, service.ErrForbidden)
		return
	}

	answers, err := h.EvaluationService.ListAnswers(ctx, eval.ID)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, answers)
}

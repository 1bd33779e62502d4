package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sinaqlab/sinaq-backend/internal/model"
	"github.com/sinaqlab/sinaq-backend/internal/response"
	"github.com/sinaqlab/sinaq-backend/internal/service"
	"github.com/sinaqlab/sinaq-backend/internal/validator"
)

// GradingHandler handles grading-status and manual-grading endpoints.
type GradingHandler struct {
	grading *service.GradingService
	scoring *service.ScoringService
}

// NewGradingHandler creates a new GradingHandler.
func NewGradingHandler(grading *service.GradingService, scoring *service.ScoringService) *GradingHandler {
	return &GradingHandler{grading: grading, scoring: scoring}
}

// GetGrading godoc
// GET /api/v1/sessions/:session_id/grading
// Returns the per-question grading statuses and whether results can be
// released.
func (h *GradingHandler) GetGrading(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	grading, err := h.grading.SessionGrading(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"grading": grading})
}

// ListPending godoc
// GET /api/v1/sessions/:session_id/grading/pending
// Lists the questions of a session still awaiting a manual grade.
func (h *GradingHandler) ListPending(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	pending, err := h.grading.ListPending(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if pending == nil {
		pending = []service.QuestionStatus{}
	}
	response.Success(c, http.StatusOK, gin.H{"pending": pending})
}

// SetGrade godoc
// PUT /api/v1/sessions/:session_id/grading/:question_id
// Records a manual grade for an essay or short-answer question.
func (h *GradingHandler) SetGrade(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SetGradeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.grading.SetGrade(c.Request.Context(), sessionID, questionID, req); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNotManuallyGraded):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrAutoGradedType)
		case errors.Is(err, service.ErrPointsExceedMax):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrPointsExceedMax)
		case errors.Is(err, service.ErrAnswerNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrAnswerNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "grade recorded"})
}

// GetResult godoc
// GET /api/v1/sessions/:session_id/result
// Returns the session's score, or a pending marker while manual grades are
// outstanding or release is disabled.
func (h *GradingHandler) GetResult(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.grading.Result(c.Request.Context(), h.scoring, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNoSelection):
			response.Fail(c, http.StatusConflict, response.ErrNoSelection)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

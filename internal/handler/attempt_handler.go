package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sinaqlab/sinaq-backend/internal/model"
	"github.com/sinaqlab/sinaq-backend/internal/response"
	"github.com/sinaqlab/sinaq-backend/internal/service"
	"github.com/sinaqlab/sinaq-backend/internal/validator"
	"github.com/sinaqlab/sinaq-backend/internal/worker"
)

// AttemptHandler handles the exam-taking endpoints: selection, answering
// and finalization.
type AttemptHandler struct {
	selector *service.SelectorService
	answers  *service.AnswerService
	scoring  *service.ScoringService
	rdb      *redis.Client
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(
	selector *service.SelectorService,
	answers *service.AnswerService,
	scoring *service.ScoringService,
	rdb *redis.Client,
) *AttemptHandler {
	return &AttemptHandler{
		selector: selector,
		answers:  answers,
		scoring:  scoring,
		rdb:      rdb,
	}
}

// CreateSelection godoc
// POST /api/v1/sessions/:session_id/selection
// Resolves and persists the session's question set. Repeat calls return the
// persisted set unchanged.
func (h *AttemptHandler) CreateSelection(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var spec model.AllocationSpec
	if fields := validator.Bind(c, &spec); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.selector.Select(c.Request.Context(), sessionID, spec)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptySelection):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestions)
		case errors.Is(err, service.ErrDanglingReference):
			response.Fail(c, http.StatusInternalServerError, response.ErrSelectionCorrupted)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"questions": questions, "count": len(questions)})
}

// ListQuestions godoc
// GET /api/v1/sessions/:session_id/questions
// Lists the session's selected questions in presentation order.
func (h *AttemptHandler) ListQuestions(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questions, err := h.selector.Questions(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptySelection), errors.Is(err, service.ErrNoSelection):
			response.Fail(c, http.StatusNotFound, response.ErrNoSelection)
		case errors.Is(err, service.ErrDanglingReference):
			response.Fail(c, http.StatusInternalServerError, response.ErrSelectionCorrupted)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// SubmitAnswer godoc
// PUT /api/v1/sessions/:session_id/answers/:question_id
// Upserts the answer for one question. Auto-gradable types are graded
// synchronously.
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
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

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.answers.Submit(c.Request.Context(), sessionID, questionID, req); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrSessionCompleted):
			response.Fail(c, http.StatusConflict, response.ErrSessionCompleted)
		case errors.Is(err, service.ErrNoSelection):
			response.Fail(c, http.StatusConflict, response.ErrNoSelection)
		case errors.Is(err, service.ErrQuestionNotInSession):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrQuestionNotInSet)
		case errors.Is(err, service.ErrDanglingReference):
			response.Fail(c, http.StatusInternalServerError, response.ErrSelectionCorrupted)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "answer recorded"})
}

// Finalize godoc
// POST /api/v1/sessions/:session_id/finalize
// Scores the session and marks it completed. With ?async=true the session
// is queued for the finalize worker instead.
func (h *AttemptHandler) Finalize(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if c.Query("async") == "true" && h.rdb != nil {
		if err := worker.Enqueue(c.Request.Context(), h.rdb, sessionID); err != nil {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		response.Success(c, http.StatusAccepted, gin.H{"message": "finalization queued"})
		return
	}

	result, err := h.scoring.Finalize(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSelection):
			response.Fail(c, http.StatusConflict, response.ErrNoSelection)
		case errors.Is(err, service.ErrDanglingReference):
			response.Fail(c, http.StatusInternalServerError, response.ErrSelectionCorrupted)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

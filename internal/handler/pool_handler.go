package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sinaqlab/sinaq-backend/internal/exam"
	"github.com/sinaqlab/sinaq-backend/internal/model"
	"github.com/sinaqlab/sinaq-backend/internal/response"
	"github.com/sinaqlab/sinaq-backend/internal/service"
	"github.com/sinaqlab/sinaq-backend/internal/validator"
)

// PoolHandler handles question-pool inspection endpoints.
type PoolHandler struct {
	selector *service.SelectorService
}

// NewPoolHandler creates a new PoolHandler.
func NewPoolHandler(selector *service.SelectorService) *PoolHandler {
	return &PoolHandler{selector: selector}
}

// GetPoolStats godoc
// GET /api/v1/templates/:template_id/pool-stats
// Returns per-difficulty availability counts for one template's pool.
func (h *PoolHandler) GetPoolStats(c *gin.Context) {
	templateID, err := uuid.Parse(c.Param("template_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	stats, err := h.selector.PoolStats(c.Request.Context(), templateID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"pool_stats": stats})
}

// ValidatePool godoc
// POST /api/v1/pool-validation
// Checks an allocation spec against current pool availability and reports
// per-stratum shortfalls without selecting anything.
func (h *PoolHandler) ValidatePool(c *gin.Context) {
	var spec model.AllocationSpec
	if fields := validator.Bind(c, &spec); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	shortfalls, err := h.selector.ValidatePool(c.Request.Context(), spec)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if shortfalls == nil {
		shortfalls = []exam.Shortfall{}
	}
	response.Success(c, http.StatusOK, gin.H{
		"valid":      len(shortfalls) == 0,
		"shortfalls": shortfalls,
	})
}

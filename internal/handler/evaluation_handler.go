package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ojt-portal-api/internal/dto"
	"github.com/noah-isme/ojt-portal-api/internal/service"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
	"github.com/noah-isme/ojt-portal-api/pkg/response"
)

// EvaluationHandler wires HTTP endpoints to the evaluation service.
type EvaluationHandler struct {
	service *service.EvaluationService
}

// NewEvaluationHandler creates a new handler.
func NewEvaluationHandler(svc *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{service: svc}
}

// Create godoc
// @Summary Record an evaluation form
// @Description Record an appraisal for an intern; one per kind, academic year, and term
// @Tags Evaluations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateEvaluationRequest true "Evaluation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /evaluations [post]
func (h *EvaluationHandler) Create(c *gin.Context) {
	var req dto.CreateEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid evaluation payload"))
		return
	}
	eval, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, eval)
}

// ListByIntern godoc
// @Summary List an intern's evaluations
// @Tags Evaluations
// @Produce json
// @Security BearerAuth
// @Param internId path string true "Intern ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /interns/{internId}/evaluations [get]
func (h *EvaluationHandler) ListByIntern(c *gin.Context) {
	evals, err := h.service.ListByIntern(c.Request.Context(), claimsFromContext(c), c.Param("internId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, evals, nil)
}

// ListOwn godoc
// @Summary List the calling intern's evaluations
// @Tags Evaluations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /evaluations [get]
func (h *EvaluationHandler) ListOwn(c *gin.Context) {
	evals, err := h.service.ListByIntern(c.Request.Context(), claimsFromContext(c), "")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, evals, nil)
}

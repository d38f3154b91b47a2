package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ojt-portal-api/internal/dto"
	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/internal/service"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
	"github.com/noah-isme/ojt-portal-api/pkg/response"
)

// InternHandler wires HTTP endpoints to the intern service.
type InternHandler struct {
	service *service.InternService
}

// NewInternHandler creates a new handler.
func NewInternHandler(svc *service.InternService) *InternHandler {
	return &InternHandler{service: svc}
}

// Enroll godoc
// @Summary Enroll a student as an intern
// @Tags Interns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateInternRequest true "Intern payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /interns [post]
func (h *InternHandler) Enroll(c *gin.Context) {
	var req dto.CreateInternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid intern payload"))
		return
	}
	intern, err := h.service.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, intern)
}

// Place godoc
// @Summary Assign an intern's company and adviser
// @Tags Interns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param internId path string true "Intern ID"
// @Param payload body dto.PlaceInternRequest true "Placement payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /interns/{internId}/placement [put]
func (h *InternHandler) Place(c *gin.Context) {
	var req dto.PlaceInternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid placement payload"))
		return
	}
	intern, err := h.service.Place(c.Request.Context(), c.Param("internId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, intern, nil)
}

// List godoc
// @Summary List interns
// @Description Advisers see their own advisees; admins see everyone
// @Tags Interns
// @Produce json
// @Security BearerAuth
// @Param program query string false "Program filter"
// @Param companyId query string false "Company filter"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /interns [get]
func (h *InternHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	filter := models.InternFilter{
		Program:   c.Query("program"),
		CompanyID: c.Query("companyId"),
		Page:      page,
		PageSize:  pageSize,
	}
	interns, pagination, err := h.service.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, interns, pagination)
}

// CreateCompany godoc
// @Summary Register a host training establishment
// @Tags Companies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateCompanyRequest true "Company payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /companies [post]
func (h *InternHandler) CreateCompany(c *gin.Context) {
	var req dto.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid company payload"))
		return
	}
	company, err := h.service.CreateCompany(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, company)
}

// ListCompanies godoc
// @Summary List host training establishments
// @Tags Companies
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /companies [get]
func (h *InternHandler) ListCompanies(c *gin.Context) {
	companies, err := h.service.ListCompanies(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, companies, nil)
}

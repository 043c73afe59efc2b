package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/middleware"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/service"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/response"
)

type caseService interface {
	Create(ctx context.Context, p models.Principal, req dto.CreateCaseRequest) (*dto.CaseDetail, error)
	AddExhibit(ctx context.Context, p models.Principal, caseID string, req dto.CreateExhibitRequest) (*models.Exhibit, error)
	List(ctx context.Context, p models.Principal, query dto.CaseQuery) ([]models.Case, *models.Pagination, error)
	Get(ctx context.Context, p models.Principal, id string) (*dto.CaseDetail, error)
	Assign(ctx context.Context, p models.Principal, id string, req dto.AssignCaseRequest) (*models.Case, error)
	UpdateAnalystStatus(ctx context.Context, p models.Principal, id string, req dto.UpdateAnalystStatusRequest) (*models.Case, error)
	UpdatePriority(ctx context.Context, p models.Principal, id string, req dto.UpdatePriorityRequest) (*models.Case, error)
	UpdateNotes(ctx context.Context, p models.Principal, id string, req dto.UpdateCaseNotesRequest) (*models.Case, error)
	OverrideStatus(ctx context.Context, p models.Principal, id string, req dto.OverrideCaseStatusRequest) (*models.Case, error)
}

// CaseHandler exposes case registry endpoints.
type CaseHandler struct {
	service caseService
}

// NewCaseHandler constructs the handler.
func NewCaseHandler(service caseService) *CaseHandler {
	return &CaseHandler{service: service}
}

// Create godoc
// @Summary Register a case with its exhibits
// @Tags Cases
// @Accept json
// @Produce json
// @Param payload body dto.CreateCaseRequest true "Case payload"
// @Success 201 {object} response.Envelope
// @Router /cases [post]
func (h *CaseHandler) Create(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "case")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateCaseRequest
	if !bindJSON(c, &req, "case") {
		return
	}
	detail, err := h.service.Create(c.Request.Context(), p, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, detail, nil)
}

// List godoc
// @Summary List cases visible to the caller
// @Tags Cases
// @Produce json
// @Param status query string false "Case status"
// @Param priority query string false "Priority"
// @Param q query string false "Search lab number, case number or title"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /cases [get]
func (h *CaseHandler) List(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "case")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var query dto.CaseQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	cases, pagination, err := h.service.List(c.Request.Context(), p, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	scope := middleware.ScopeAssigned
	if service.SeesAllCases(p) {
		scope = middleware.ScopeAll
	}
	middleware.SetMeta(c, middleware.MetaScope, scope)
	response.JSON(c, http.StatusOK, cases, pagination, middleware.ResponseMeta(c))
}

// Get godoc
// @Summary Get a case with its exhibits
// @Tags Cases
// @Produce json
// @Param id path string true "Case ID"
// @Success 200 {object} response.Envelope
// @Router /cases/{id} [get]
func (h *CaseHandler) Get(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "case")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	detail, err := h.service.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail)
}

// AddExhibit godoc
// @Summary Register an additional exhibit against a case
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param payload body dto.CreateExhibitRequest true "Exhibit payload"
// @Success 201 {object} response.Envelope
// @Router /cases/{id}/exhibits [post]
func (h *CaseHandler) AddExhibit(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "case")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateExhibitRequest
	if !bindJSON(c, &req, "exhibit") {
		return
	}
	exhibit, err := h.service.AddExhibit(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, exhibit, nil)
}

// Assign godoc
// @Summary Assign analyst, investigator, supervisor or exhibit officer
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param payload body dto.AssignCaseRequest true "Assignees"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/assignments [patch]
func (h *CaseHandler) Assign(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "case")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.AssignCaseRequest
	if !bindJSON(c, &req, "assignment") {
		return
	}
	updated, err := h.service.Assign(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, updated)
}

// UpdateAnalystStatus godoc
// @Summary Advance the analyst workload status
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param payload body dto.UpdateAnalystStatusRequest true "Analyst status"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/analyst-status [patch]
func (h *CaseHandler) UpdateAnalystStatus(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "case")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateAnalystStatusRequest
	if !bindJSON(c, &req, "analyst status") {
		return
	}
	updated, err := h.service.UpdateAnalystStatus(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, updated)
}

// UpdatePriority godoc
// @Summary Change case priority
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param payload body dto.UpdatePriorityRequest true "Priority"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/priority [patch]
func (h *CaseHandler) UpdatePriority(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "case")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdatePriorityRequest
	if !bindJSON(c, &req, "priority") {
		return
	}
	updated, err := h.service.UpdatePriority(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, updated)
}

// UpdateNotes godoc
// @Summary Replace case notes
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param payload body dto.UpdateCaseNotesRequest true "Notes"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/notes [put]
func (h *CaseHandler) UpdateNotes(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "case")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateCaseNotesRequest
	if !bindJSON(c, &req, "notes") {
		return
	}
	updated, err := h.service.UpdateNotes(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, updated)
}

// OverrideStatus godoc
// @Summary Administrative case status override
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param payload body dto.OverrideCaseStatusRequest true "Target status and reason"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/status [put]
func (h *CaseHandler) OverrideStatus(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "case")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.OverrideCaseStatusRequest
	if !bindJSON(c, &req, "status override") {
		return
	}
	updated, err := h.service.OverrideStatus(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, updated)
}

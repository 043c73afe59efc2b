package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/middleware"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/response"
)

type approvalService interface {
	Submit(ctx context.Context, p models.Principal, caseID string, req dto.SubmitApprovalRequest) (*models.Approval, error)
	Resolve(ctx context.Context, p models.Principal, id string, req dto.ResolveApprovalRequest) (*models.Approval, error)
	Get(ctx context.Context, p models.Principal, id string) (*models.Approval, error)
	List(ctx context.Context, p models.Principal, query dto.ApprovalQuery) ([]models.Approval, *models.Pagination, error)
}

// ApprovalHandler exposes the approval workflow.
type ApprovalHandler struct {
	service approvalService
}

// NewApprovalHandler constructs the handler.
func NewApprovalHandler(service approvalService) *ApprovalHandler {
	return &ApprovalHandler{service: service}
}

// Submit godoc
// @Summary Submit a case for approval
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param payload body dto.SubmitApprovalRequest true "Approval request"
// @Success 201 {object} response.Envelope
// @Router /cases/{id}/approvals [post]
func (h *ApprovalHandler) Submit(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "approval")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.SubmitApprovalRequest
	if !bindJSON(c, &req, "approval") {
		return
	}
	approval, err := h.service.Submit(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, approval, nil)
}

// Resolve godoc
// @Summary Approve, reject or request revision
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Approval ID"
// @Param payload body dto.ResolveApprovalRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /approvals/{id}/resolve [post]
func (h *ApprovalHandler) Resolve(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "approval")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.ResolveApprovalRequest
	if !bindJSON(c, &req, "decision") {
		return
	}
	approval, err := h.service.Resolve(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, approval)
}

// Get godoc
// @Summary Get an approval
// @Tags Approvals
// @Produce json
// @Param id path string true "Approval ID"
// @Success 200 {object} response.Envelope
// @Router /approvals/{id} [get]
func (h *ApprovalHandler) Get(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "approval")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	approval, err := h.service.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, approval)
}

// List godoc
// @Summary List approvals
// @Tags Approvals
// @Produce json
// @Param case_id query string false "Case ID"
// @Param status query string false "pending, approved, rejected or revision_requested"
// @Param type query string false "Approval type"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /approvals [get]
func (h *ApprovalHandler) List(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "approval")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var query dto.ApprovalQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	if caseID := c.Param("id"); caseID != "" {
		query.CaseID = caseID
	}
	approvals, pagination, err := h.service.List(c.Request.Context(), p, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, approvals, pagination, middleware.ResponseMeta(c))
}

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

type activityService interface {
	List(ctx context.Context, p models.Principal, query dto.ActivityQuery) ([]models.ActivityLog, *models.Pagination, error)
	ListForCase(ctx context.Context, p models.Principal, caseID string, query dto.ActivityQuery) ([]models.ActivityLog, *models.Pagination, error)
}

// ActivityHandler exposes the audit trail.
type ActivityHandler struct {
	service activityService
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service activityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// List godoc
// @Summary List activity entries
// @Tags Activity
// @Produce json
// @Param subject_type query string false "case, exhibit, approval or document"
// @Param user_id query string false "Actor"
// @Param activity_type query string false "Activity type"
// @Param since query string false "RFC3339 lower bound"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /activity [get]
func (h *ActivityHandler) List(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "activity")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	query, ok := bindActivityQuery(c)
	if !ok {
		return
	}
	entries, pagination, err := h.service.List(c.Request.Context(), p, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	scope := middleware.ScopeOwnActivity
	if service.Authorize(p, service.ActionReadAllActivity) == nil {
		scope = middleware.ScopeAll
	}
	middleware.SetMeta(c, middleware.MetaScope, scope)
	response.JSON(c, http.StatusOK, entries, pagination, middleware.ResponseMeta(c))
}

// ListForCase godoc
// @Summary Activity for one case
// @Tags Activity
// @Produce json
// @Param id path string true "Case ID"
// @Param activity_type query string false "Activity type"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/activity [get]
func (h *ActivityHandler) ListForCase(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "activity")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	query, ok := bindActivityQuery(c)
	if !ok {
		return
	}
	entries, pagination, err := h.service.ListForCase(c.Request.Context(), p, c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination, middleware.ResponseMeta(c))
}

func bindActivityQuery(c *gin.Context) (dto.ActivityQuery, bool) {
	var query dto.ActivityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return query, false
	}
	return query, true
}

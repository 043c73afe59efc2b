package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/response"
)

type exhibitService interface {
	Get(ctx context.Context, p models.Principal, id string) (*models.Exhibit, error)
	Assign(ctx context.Context, p models.Principal, id string, req dto.AssignExhibitRequest) (*models.Exhibit, error)
	ChangeStatus(ctx context.Context, p models.Principal, id string, req dto.ChangeExhibitStatusRequest) (*models.Exhibit, error)
	Transfer(ctx context.Context, p models.Principal, id string, req dto.TransferExhibitRequest) (*models.Exhibit, error)
	Return(ctx context.Context, p models.Principal, id string, req dto.ReturnExhibitRequest) (*models.Exhibit, error)
}

// ExhibitHandler exposes exhibit lifecycle endpoints. Every mutation appends
// to the exhibit's chain of custody.
type ExhibitHandler struct {
	service exhibitService
}

// NewExhibitHandler constructs the handler.
func NewExhibitHandler(service exhibitService) *ExhibitHandler {
	return &ExhibitHandler{service: service}
}

// Get godoc
// @Summary Get an exhibit
// @Tags Exhibits
// @Produce json
// @Param id path string true "Exhibit ID"
// @Success 200 {object} response.Envelope
// @Router /exhibits/{id} [get]
func (h *ExhibitHandler) Get(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "exhibit")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	exhibit, err := h.service.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, exhibit)
}

// Assign godoc
// @Summary Assign an exhibit to an analyst
// @Tags Exhibits
// @Accept json
// @Produce json
// @Param id path string true "Exhibit ID"
// @Param payload body dto.AssignExhibitRequest true "Analyst"
// @Success 200 {object} response.Envelope
// @Router /exhibits/{id}/assign [post]
func (h *ExhibitHandler) Assign(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "exhibit")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.AssignExhibitRequest
	if !bindJSON(c, &req, "exhibit assignment") {
		return
	}
	exhibit, err := h.service.Assign(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, exhibit)
}

// ChangeStatus godoc
// @Summary Move an exhibit along its lifecycle
// @Tags Exhibits
// @Accept json
// @Produce json
// @Param id path string true "Exhibit ID"
// @Param payload body dto.ChangeExhibitStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /exhibits/{id}/status [post]
func (h *ExhibitHandler) ChangeStatus(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "exhibit")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.ChangeExhibitStatusRequest
	if !bindJSON(c, &req, "exhibit status") {
		return
	}
	exhibit, err := h.service.ChangeStatus(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, exhibit)
}

// Transfer godoc
// @Summary Record a physical transfer
// @Tags Exhibits
// @Accept json
// @Produce json
// @Param id path string true "Exhibit ID"
// @Param payload body dto.TransferExhibitRequest true "Transfer"
// @Success 200 {object} response.Envelope
// @Router /exhibits/{id}/transfer [post]
func (h *ExhibitHandler) Transfer(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "exhibit")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.TransferExhibitRequest
	if !bindJSON(c, &req, "transfer") {
		return
	}
	exhibit, err := h.service.Transfer(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, exhibit)
}

// Return godoc
// @Summary Record the return of an exhibit
// @Tags Exhibits
// @Accept json
// @Produce json
// @Param id path string true "Exhibit ID"
// @Param payload body dto.ReturnExhibitRequest true "Return"
// @Success 200 {object} response.Envelope
// @Router /exhibits/{id}/return [post]
func (h *ExhibitHandler) Return(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "exhibit")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.ReturnExhibitRequest
	if !bindJSON(c, &req, "return") {
		return
	}
	exhibit, err := h.service.Return(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, exhibit)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/custody"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/service"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/response"
)

type custodyService interface {
	History(ctx context.Context, p models.Principal, exhibitID string) (*dto.CustodyHistory, error)
	Verify(ctx context.Context, p models.Principal, exhibitID string) (*custody.Verification, error)
	Export(ctx context.Context, p models.Principal, exhibitID, format string) (*service.CustodyExport, error)
	Publish(ctx context.Context, p models.Principal, exhibitID string, req dto.PublishCustodyRequest) (*models.SignedLink, error)
}

// CustodyHandler exposes read access to exhibit ledgers.
type CustodyHandler struct {
	service custodyService
}

// NewCustodyHandler constructs the handler.
func NewCustodyHandler(service custodyService) *CustodyHandler {
	return &CustodyHandler{service: service}
}

// History godoc
// @Summary Chain of custody, oldest first
// @Tags Custody
// @Produce json
// @Param id path string true "Exhibit ID"
// @Success 200 {object} response.Envelope
// @Router /exhibits/{id}/custody [get]
func (h *CustodyHandler) History(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "custody")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	history, err := h.service.History(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, history)
}

// Verify godoc
// @Summary Recompute the custody hash chain
// @Tags Custody
// @Produce json
// @Param id path string true "Exhibit ID"
// @Success 200 {object} response.Envelope
// @Router /exhibits/{id}/custody/verify [get]
func (h *CustodyHandler) Verify(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "custody")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	result, err := h.service.Verify(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Export godoc
// @Summary Download a custody report
// @Tags Custody
// @Produce octet-stream
// @Param id path string true "Exhibit ID"
// @Param format query string false "text, csv or pdf"
// @Success 200 {file} binary
// @Router /exhibits/{id}/custody/export [get]
func (h *CustodyHandler) Export(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "custody")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	report, err := h.service.Export(c.Request.Context(), p, c.Param("id"), c.DefaultQuery("format", "text"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, report.FileName, report.ContentType, report.Body)
}

// Publish godoc
// @Summary Store a custody report and return a signed link
// @Tags Custody
// @Accept json
// @Produce json
// @Param id path string true "Exhibit ID"
// @Param payload body dto.PublishCustodyRequest false "Format"
// @Success 201 {object} response.Envelope
// @Router /exhibits/{id}/custody/publish [post]
func (h *CustodyHandler) Publish(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "custody")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.PublishCustodyRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "publish") {
		return
	}
	link, err := h.service.Publish(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, link, nil)
}

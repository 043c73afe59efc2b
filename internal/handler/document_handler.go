package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/response"
)

type documentService interface {
	Upload(ctx context.Context, p models.Principal, caseID string, req dto.UploadDocumentRequest) (*models.Document, error)
	List(ctx context.Context, p models.Principal, caseID string, kind models.DocumentKind) ([]models.Document, error)
	Preview(ctx context.Context, p models.Principal, caseID, key string) (*models.SignedLink, error)
}

// DocumentHandler exposes case documents kept in the blob store.
type DocumentHandler struct {
	service documentService
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(service documentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// Upload godoc
// @Summary Upload a case document
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Case ID"
// @Param kind formData string true "reference-letters, analysis-reports or exhibit-photos"
// @Param file formData file true "Document"
// @Success 201 {object} response.Envelope
// @Router /cases/{id}/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "document")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	doc, err := h.service.Upload(c.Request.Context(), p, c.Param("id"), dto.UploadDocumentRequest{
		Kind:        models.DocumentKind(strings.TrimSpace(c.PostForm("kind"))),
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        src,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, doc, nil)
}

// List godoc
// @Summary List case documents
// @Tags Documents
// @Produce json
// @Param id path string true "Case ID"
// @Param kind query string false "Document kind"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "document")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	docs, err := h.service.List(c.Request.Context(), p, c.Param("id"), models.DocumentKind(c.Query("kind")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, docs)
}

// Preview godoc
// @Summary Signed link to a case document
// @Tags Documents
// @Produce json
// @Param id path string true "Case ID"
// @Param path query string true "Document path"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/documents/preview [get]
func (h *DocumentHandler) Preview(c *gin.Context) {
	if h.service == nil {
		notConfigured(c, "document")
		return
	}
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	key := c.Query("path")
	if strings.TrimSpace(key) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "path is required"))
		return
	}
	link, err := h.service.Preview(c.Request.Context(), p, c.Param("id"), key)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, link)
}

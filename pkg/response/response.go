package response

import (
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	noStore(c)
	envelope := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// OK responds with HTTP 200.
func OK(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data, nil)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error records the error on the context for the request logger and renders
// the envelope with the mapped status.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	noStore(c)
	c.AbortWithStatusJSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Attachment sends a rendered document as a download. Evidence documents are
// never cached by intermediaries.
func Attachment(c *gin.Context, fileName, contentType string, body []byte) {
	fileHeaders(c, "attachment", fileName)
	c.Data(http.StatusOK, contentType, body)
}

// Inline streams a stored object for in-browser preview.
func Inline(c *gin.Context, fileName, contentType string, size int64, body io.Reader) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	fileHeaders(c, "inline", fileName)
	c.DataFromReader(http.StatusOK, size, contentType, body, nil)
}

func fileHeaders(c *gin.Context, disposition, fileName string) {
	noStore(c)
	c.Header("X-Content-Type-Options", "nosniff")
	value := mime.FormatMediaType(disposition, map[string]string{"filename": fileName})
	if value == "" {
		value = disposition
	}
	c.Header("Content-Disposition", value)
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

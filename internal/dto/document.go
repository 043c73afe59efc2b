package dto

import (
	"io"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
)

// UploadDocumentRequest streams a case file into the blob store.
type UploadDocumentRequest struct {
	Kind        models.DocumentKind `validate:"required,document_kind"`
	FileName    string              `validate:"required,max=200"`
	ContentType string              `validate:"required"`
	Size        int64               `validate:"gt=0"`
	Body        io.Reader           `validate:"required"`
}

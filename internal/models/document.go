package models

import "time"

// DocumentKind is the top level folder of a case document.
type DocumentKind string

const (
	DocumentReferenceLetter DocumentKind = "reference-letters"
	DocumentAnalysisReport  DocumentKind = "analysis-reports"
	DocumentExhibitPhoto    DocumentKind = "exhibit-photos"
	DocumentCustodyReport   DocumentKind = "custody-reports"
)

// Valid reports whether k may be uploaded by users. Custody reports are only
// written by the export publisher.
func (k DocumentKind) Valid() bool {
	switch k {
	case DocumentReferenceLetter, DocumentAnalysisReport, DocumentExhibitPhoto:
		return true
	}
	return false
}

// Document describes a stored case file.
type Document struct {
	Path        string       `json:"path"`
	Kind        DocumentKind `json:"kind"`
	Name        string       `json:"name"`
	Size        int64        `json:"size"`
	ContentType string       `json:"content_type,omitempty"`
	UploadedAt  time.Time    `json:"uploaded_at"`
}

// SignedLink is a time-limited download URL.
type SignedLink struct {
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

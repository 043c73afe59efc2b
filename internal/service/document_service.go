package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/identifier"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/storage"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DocumentConfig bounds uploads.
type DocumentConfig struct {
	MaxBytes     int64
	AllowedMIMEs []string
	LinkTTL      time.Duration
}

// DocumentService stores case documents in the blob store under
// <kind>/<year>-<seq>/<unix>-<file>.
type DocumentService struct {
	cases     caseFinder
	blobs     storage.BlobStore
	activity  activityRecorder
	cfg       DocumentConfig
	allowed   map[string]struct{}
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewDocumentService constructs the service.
func NewDocumentService(cases caseFinder, blobs storage.BlobStore, activity activityRecorder, cfg DocumentConfig, validate *validator.Validate, logger *zap.Logger) *DocumentService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 25 * 1024 * 1024
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = 15 * time.Minute
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, m := range cfg.AllowedMIMEs {
		allowed[strings.ToLower(m)] = struct{}{}
	}
	return &DocumentService{
		cases:     cases,
		blobs:     blobs,
		activity:  activity,
		cfg:       cfg,
		allowed:   allowed,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Upload stores a document against a case.
func (s *DocumentService) Upload(ctx context.Context, p models.Principal, caseID string, req dto.UploadDocumentRequest) (*models.Document, error) {
	if err := Authorize(p, ActionUploadDocument); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid document upload")
	}
	if req.Size > s.cfg.MaxBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("document exceeds %d bytes", s.cfg.MaxBytes))
	}
	contentType := baseMIME(req.ContentType)
	if len(s.allowed) > 0 {
		if _, ok := s.allowed[contentType]; !ok {
			return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("content type %s is not accepted", contentType))
		}
	}
	c, segment, err := s.caseSegment(ctx, p, caseID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	name := sanitizeFileName(req.FileName)
	key := path.Join(string(req.Kind), segment, fmt.Sprintf("%d-%s", now.Unix(), name))
	if err := s.blobs.Put(ctx, key, req.Body, req.Size, contentType); err != nil {
		return nil, appErrors.Dependency(err, "failed to store document")
	}
	doc := &models.Document{Path: key, Kind: req.Kind, Name: name, Size: req.Size, ContentType: contentType, UploadedAt: now}
	s.activity.Record(ctx, dto.ActivityEntry{
		Actor:        p,
		SubjectID:    c.ID,
		SubjectType:  models.SubjectDocument,
		ActivityType: models.ActivityDocumentUploaded,
		Description:  fmt.Sprintf("%s uploaded to %s", name, req.Kind),
		Metadata:     map[string]interface{}{"case_id": c.ID, "path": key, "size": req.Size},
	})
	return doc, nil
}

// List returns a case's documents, optionally restricted to one kind.
// Published custody reports are included.
func (s *DocumentService) List(ctx context.Context, p models.Principal, caseID string, kind models.DocumentKind) ([]models.Document, error) {
	kinds := []models.DocumentKind{models.DocumentReferenceLetter, models.DocumentAnalysisReport, models.DocumentExhibitPhoto, models.DocumentCustodyReport}
	if kind != "" {
		if !kind.Valid() && kind != models.DocumentCustodyReport {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown document kind %q", kind))
		}
		kinds = []models.DocumentKind{kind}
	}
	_, segment, err := s.caseSegment(ctx, p, caseID)
	if err != nil {
		return nil, err
	}
	docs := make([]models.Document, 0)
	for _, k := range kinds {
		objects, err := s.blobs.List(ctx, path.Join(string(k), segment)+"/")
		if err != nil {
			return nil, appErrors.Dependency(err, "failed to list documents")
		}
		for _, obj := range objects {
			docs = append(docs, models.Document{
				Path:        obj.Key,
				Kind:        k,
				Name:        path.Base(obj.Key),
				Size:        obj.Size,
				ContentType: obj.ContentType,
				UploadedAt:  obj.LastModified,
			})
		}
	}
	return docs, nil
}

// Preview returns a signed link to a document of the case.
func (s *DocumentService) Preview(ctx context.Context, p models.Principal, caseID, key string) (*models.SignedLink, error) {
	cleaned, err := storage.CleanKey(key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document path")
	}
	_, segment, err := s.caseSegment(ctx, p, caseID)
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(cleaned, "/", 3)
	kind := models.DocumentKind(parts[0])
	if len(parts) != 3 || parts[1] != segment || (!kind.Valid() && kind != models.DocumentCustodyReport) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "document does not belong to this case")
	}
	url, expiresAt, err := s.blobs.SignedURL(ctx, cleaned, s.cfg.LinkTTL)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Dependency(err, "failed to sign document link")
	}
	return &models.SignedLink{Path: cleaned, URL: url, ExpiresAt: expiresAt}, nil
}

func (s *DocumentService) caseSegment(ctx context.Context, p models.Principal, caseID string) (*models.Case, string, error) {
	if !p.Valid() {
		return nil, "", appErrors.ErrUnauthorized
	}
	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, "", storeError(err, "case")
	}
	if !CanSee(p, c) {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "case is not assigned to you")
	}
	lab, err := identifier.ParseLabNumber(c.LabNumber)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "case has a malformed lab number")
	}
	return c, lab.Segment(), nil
}

func baseMIME(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(mediaType)
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Trim(unsafeFileChars.ReplaceAllString(name, "_"), "._")
	if name == "" {
		return "document"
	}
	return name
}

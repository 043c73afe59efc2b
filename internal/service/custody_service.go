package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/custody"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/identifier"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/export"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/storage"
)

type exhibitFinder interface {
	FindByID(ctx context.Context, id string) (*models.Exhibit, error)
}

// CustodyExport is a rendered custody report.
type CustodyExport struct {
	FileName    string
	ContentType string
	Body        []byte
}

// CustodyService reads, verifies and exports exhibit ledgers. It never
// writes to them.
type CustodyService struct {
	exhibits exhibitFinder
	cases    caseFinder
	blobs    storage.BlobStore
	activity activityRecorder
	unitName string
	linkTTL  time.Duration
	logger   *zap.Logger
}

// CustodyServiceConfig customises exported reports.
type CustodyServiceConfig struct {
	UnitName string
	LinkTTL  time.Duration
}

// NewCustodyService constructs the service. blobs may be nil when publishing
// is not needed.
func NewCustodyService(exhibits exhibitFinder, cases caseFinder, blobs storage.BlobStore, activity activityRecorder, cfg CustodyServiceConfig, logger *zap.Logger) *CustodyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = 15 * time.Minute
	}
	return &CustodyService{
		exhibits: exhibits,
		cases:    cases,
		blobs:    blobs,
		activity: activity,
		unitName: cfg.UnitName,
		linkTTL:  cfg.LinkTTL,
		logger:   logger,
	}
}

// History returns the ledger oldest first.
func (s *CustodyService) History(ctx context.Context, p models.Principal, exhibitID string) (*dto.CustodyHistory, error) {
	ex, _, err := s.load(ctx, p, exhibitID)
	if err != nil {
		return nil, err
	}
	return &dto.CustodyHistory{ExhibitID: ex.ID, ExhibitNumber: ex.ExhibitNumber, Events: ex.ChainOfCustody}, nil
}

// Verify recomputes the ledger hash chain.
func (s *CustodyService) Verify(ctx context.Context, p models.Principal, exhibitID string) (*custody.Verification, error) {
	ex, _, err := s.load(ctx, p, exhibitID)
	if err != nil {
		return nil, err
	}
	v := custody.Verify(ex.ID, ex.ChainOfCustody)
	if !v.Intact {
		s.logger.Warn("custody ledger failed verification",
			zap.String("exhibit_id", ex.ID), zap.Int("broken_at", v.BrokenAt), zap.String("reason", v.Reason))
	}
	return &v, nil
}

// Export renders the custody report. The same ledger always produces the
// same bytes for the text and csv formats.
func (s *CustodyService) Export(ctx context.Context, p models.Principal, exhibitID, format string) (*CustodyExport, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedFormat.Code, appErrors.ErrUnsupportedFormat.Status, err.Error())
	}
	ex, c, err := s.load(ctx, p, exhibitID)
	if err != nil {
		return nil, err
	}
	return s.render(ex, c, f)
}

// Publish stores the rendered report under custody-reports/ and returns a
// time-limited link to it. Reports are keyed by the ledger head, so
// republishing an unchanged ledger overwrites the same object.
func (s *CustodyService) Publish(ctx context.Context, p models.Principal, exhibitID string, req dto.PublishCustodyRequest) (*models.SignedLink, error) {
	if err := Authorize(p, ActionPublishCustody); err != nil {
		return nil, err
	}
	if s.blobs == nil {
		return nil, appErrors.Clone(appErrors.ErrDependency, "blob store is not configured")
	}
	f, err := export.ParseFormat(req.Format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedFormat.Code, appErrors.ErrUnsupportedFormat.Status, err.Error())
	}
	ex, c, err := s.load(ctx, p, exhibitID)
	if err != nil {
		return nil, err
	}
	out, err := s.render(ex, c, f)
	if err != nil {
		return nil, err
	}
	key, err := custodyReportKey(c, ex, f)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive report path")
	}
	if err := s.blobs.Put(ctx, key, bytes.NewReader(out.Body), int64(len(out.Body)), out.ContentType); err != nil {
		return nil, appErrors.Dependency(err, "failed to store custody report")
	}
	url, expiresAt, err := s.blobs.SignedURL(ctx, key, s.linkTTL)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to sign custody report link")
	}
	s.activity.Record(ctx, dto.ActivityEntry{
		Actor:        p,
		SubjectID:    ex.ID,
		SubjectType:  models.SubjectExhibit,
		ActivityType: models.ActivityCustodyPublished,
		Description:  fmt.Sprintf("Custody report for %s published", ex.ExhibitNumber),
		Metadata:     map[string]interface{}{"case_id": c.ID, "path": key, "format": f, "head_hash": ex.ChainOfCustody.Head()},
	})
	return &models.SignedLink{Path: key, URL: url, ExpiresAt: expiresAt}, nil
}

func (s *CustodyService) render(ex *models.Exhibit, c *models.Case, f export.Format) (*CustodyExport, error) {
	report := custody.BuildReport(custody.ReportInput{
		UnitName:   s.unitName,
		CaseNumber: c.CaseNumber,
		LabNumber:  c.LabNumber,
		CaseTitle:  c.Title,
		Exhibit:    ex,
	})
	body, err := export.Render(report, f)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render custody report")
	}
	return &CustodyExport{
		FileName:    fmt.Sprintf("%s-custody.%s", fileSafe(ex.ExhibitNumber), f.Extension()),
		ContentType: f.ContentType(),
		Body:        body,
	}, nil
}

func (s *CustodyService) load(ctx context.Context, p models.Principal, exhibitID string) (*models.Exhibit, *models.Case, error) {
	if !p.Valid() {
		return nil, nil, appErrors.ErrUnauthorized
	}
	ex, err := s.exhibits.FindByID(ctx, exhibitID)
	if err != nil {
		return nil, nil, storeError(err, "exhibit")
	}
	c, err := s.cases.FindByID(ctx, ex.CaseID)
	if err != nil {
		return nil, nil, storeError(err, "case")
	}
	if !CanSee(p, c) && !assignedTo(ex, p.ID) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "exhibit is not assigned to you")
	}
	return ex, c, nil
}

// custodyReportKey is custody-reports/<year>-<seq>/<exhibit>-<head:12>.<ext>.
func custodyReportKey(c *models.Case, ex *models.Exhibit, f export.Format) (string, error) {
	lab, err := identifier.ParseLabNumber(c.LabNumber)
	if err != nil {
		return "", err
	}
	head := ex.ChainOfCustody.Head()
	if len(head) > 12 {
		head = head[:12]
	}
	return fmt.Sprintf("%s/%s/%s-%s.%s", models.DocumentCustodyReport, lab.Segment(), fileSafe(ex.ExhibitNumber), head, f.Extension()), nil
}

func fileSafe(s string) string {
	return strings.NewReplacer("/", "-", " ", "_", "\\", "-").Replace(s)
}

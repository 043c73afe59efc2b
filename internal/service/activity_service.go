package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
)

type activityStore interface {
	Insert(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error)
}

type caseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Case, error)
}

// Notifier hands notifications to an external sink without blocking.
type Notifier interface {
	Notify(n models.Notification)
}

type activityRecorder interface {
	Record(ctx context.Context, entry dto.ActivityEntry)
}

// ActivityService writes and reads the audit trail.
type ActivityService struct {
	repo     activityStore
	cases    caseFinder
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewActivityService constructs the service. notifier may be nil.
func NewActivityService(repo activityStore, cases caseFinder, notifier Notifier, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		repo:     repo,
		cases:    cases,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Record persists the entry and forwards it to the notifier. Failures are
// logged and never reach the caller.
func (s *ActivityService) Record(ctx context.Context, entry dto.ActivityEntry) {
	metadata := entry.MetadataJSON()
	log := &models.ActivityLog{
		UserID:       entry.Actor.ID,
		SubjectID:    entry.SubjectID,
		SubjectType:  entry.SubjectType,
		ActivityType: entry.ActivityType,
		Description:  entry.Description,
		Metadata:     metadata,
		CreatedAt:    s.now(),
	}
	if err := s.repo.Insert(ctx, log); err != nil {
		s.logger.Warn("failed to record activity",
			zap.String("activity_type", entry.ActivityType),
			zap.String("subject_id", entry.SubjectID),
			zap.Error(err))
	}
	if s.notifier != nil {
		s.notifier.Notify(models.Notification{
			SubjectID:   entry.SubjectID,
			Type:        entry.ActivityType,
			Description: entry.Description,
			Metadata:    metadata,
		})
	}
}

// List returns the audit trail. Principals without full read access only see
// their own entries.
func (s *ActivityService) List(ctx context.Context, p models.Principal, query dto.ActivityQuery) ([]models.ActivityLog, *models.Pagination, error) {
	if !p.Valid() {
		return nil, nil, appErrors.ErrUnauthorized
	}
	filter := models.ActivityFilter{
		SubjectType:  query.SubjectType,
		UserID:       query.UserID,
		ActivityType: query.ActivityType,
		Since:        query.Since,
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	if Authorize(p, ActionReadAllActivity) != nil {
		filter.UserID = p.ID
	}
	return s.list(ctx, filter)
}

// ListForCase returns entries about a case and its exhibits and approvals.
func (s *ActivityService) ListForCase(ctx context.Context, p models.Principal, caseID string, query dto.ActivityQuery) ([]models.ActivityLog, *models.Pagination, error) {
	if !p.Valid() {
		return nil, nil, appErrors.ErrUnauthorized
	}
	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, nil, storeError(err, "case")
	}
	if !CanSee(p, c) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "case is not assigned to you")
	}
	return s.list(ctx, models.ActivityFilter{
		SubjectID:    caseID,
		ActivityType: query.ActivityType,
		Since:        query.Since,
		Page:         query.Page,
		PageSize:     query.PageSize,
	})
}

func (s *ActivityService) list(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.Normalize(filter.Page, filter.PageSize, 50)
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, storeError(err, "activity")
	}
	return entries, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

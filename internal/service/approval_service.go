package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/repository"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
)

type approvalStore interface {
	Create(ctx context.Context, a *models.Approval) error
	FindByID(ctx context.Context, id string) (*models.Approval, error)
	List(ctx context.Context, filter models.ApprovalFilter) ([]models.Approval, int, error)
	Resolve(ctx context.Context, res models.ApprovalResolution, transition *models.CaseTransition) error
}

// ApprovalService gates case lifecycle transitions behind reviewer
// decisions.
type ApprovalService struct {
	approvals approvalStore
	cases     caseFinder
	activity  activityRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewApprovalService constructs the service.
func NewApprovalService(approvals approvalStore, cases caseFinder, activity activityRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ApprovalService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{
		approvals: approvals,
		cases:     cases,
		activity:  activity,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit opens a pending approval for the case. The case must currently be
// in a status from which the approval type can advance it.
func (s *ApprovalService) Submit(ctx context.Context, p models.Principal, caseID string, req dto.SubmitApprovalRequest) (*models.Approval, error) {
	if !p.Valid() {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid approval payload")
	}
	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, storeError(err, "case")
	}
	if err := AuthorizeSubmit(p, c, req.ApprovalType); err != nil {
		return nil, err
	}
	if _, ok := models.NextCaseStatus(c.Status, models.CaseGate(req.ApprovalType)); !ok {
		return nil, conflict(fmt.Sprintf("case is %s; %s is not applicable", c.Status, req.ApprovalType))
	}

	approval := &models.Approval{
		ID:             uuid.NewString(),
		CaseID:         c.ID,
		ApprovalType:   req.ApprovalType,
		ApprovalStatus: models.ApprovalStatusPending,
		SubmittedBy:    p.ID,
		Comments:       req.Comments,
		CreatedAt:      s.now(),
	}
	if err := s.approvals.Create(ctx, approval); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict(fmt.Sprintf("a pending %s approval already exists for this case", req.ApprovalType))
		}
		return nil, storeError(err, "approval")
	}
	s.metrics.ApprovalSubmitted(string(approval.ApprovalType))
	s.activity.Record(ctx, dto.ActivityEntry{
		Actor:        p,
		SubjectID:    approval.ID,
		SubjectType:  models.SubjectApproval,
		ActivityType: models.ActivityApprovalSubmitted,
		Description:  fmt.Sprintf("%s submitted for case %s", approval.ApprovalType, c.LabNumber),
		Metadata:     map[string]interface{}{"case_id": c.ID, "approval_type": approval.ApprovalType},
	})
	return approval, nil
}

// Resolve applies a reviewer decision. Approving moves the case in the same
// transaction; if another reviewer resolved first the call fails with a
// conflict and nothing changes.
func (s *ApprovalService) Resolve(ctx context.Context, p models.Principal, id string, req dto.ResolveApprovalRequest) (*models.Approval, error) {
	if !p.Valid() {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid decision payload")
	}
	status, _ := req.Decision.Status()
	comments := strings.TrimSpace(req.Comments)
	if req.Decision.RequiresComments() && comments == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("comments are required to %s", strings.ReplaceAll(string(req.Decision), "_", " ")))
	}

	approval, err := s.approvals.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "approval")
	}
	if err := AuthorizeResolve(p, approval); err != nil {
		return nil, err
	}
	if approval.ApprovalStatus != models.ApprovalStatusPending {
		return nil, conflict(fmt.Sprintf("approval is already %s", approval.ApprovalStatus))
	}
	c, err := s.cases.FindByID(ctx, approval.CaseID)
	if err != nil {
		return nil, storeError(err, "case")
	}

	now := s.now()
	var transition *models.CaseTransition
	if status == models.ApprovalStatusApproved {
		target, ok := models.NextCaseStatus(c.Status, models.CaseGate(approval.ApprovalType))
		if !ok {
			return nil, conflict(fmt.Sprintf("case is %s; %s can no longer be applied", c.Status, approval.ApprovalType))
		}
		transition = &models.CaseTransition{CaseID: c.ID, From: c.Status, To: target, UpdatedAt: now}
	}

	resolution := models.ApprovalResolution{
		ApprovalID:     approval.ID,
		Status:         status,
		ResolvedBy:     p.ID,
		ResolvedAt:     now,
		ReviewComments: comments,
	}
	if err := s.approvals.Resolve(ctx, resolution, transition); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotPending):
			return nil, conflict("approval was resolved by another reviewer")
		case errors.Is(err, repository.ErrStaleState):
			return nil, conflict("case status changed before the approval could be applied")
		}
		return nil, storeError(err, "approval")
	}

	approval.ApprovalStatus = status
	approval.ApprovedBy = stringPtr(p.ID)
	approval.ApprovedAt = &now
	if comments != "" {
		approval.ReviewComments = stringPtr(comments)
	}
	s.metrics.ApprovalResolved(string(approval.ApprovalType), string(status))

	metadata := map[string]interface{}{
		"case_id":       c.ID,
		"approval_type": approval.ApprovalType,
		"decision":      req.Decision,
	}
	if comments != "" {
		metadata["comments"] = comments
	}
	s.activity.Record(ctx, dto.ActivityEntry{
		Actor:        p,
		SubjectID:    approval.ID,
		SubjectType:  models.SubjectApproval,
		ActivityType: models.ActivityApprovalResolved,
		Description:  fmt.Sprintf("%s for case %s %s", approval.ApprovalType, c.LabNumber, status),
		Metadata:     metadata,
	})
	if transition != nil {
		s.activity.Record(ctx, dto.ActivityEntry{
			Actor:        p,
			SubjectID:    c.ID,
			SubjectType:  models.SubjectCase,
			ActivityType: models.ActivityCaseStatusChanged,
			Description:  fmt.Sprintf("Case %s moved from %s to %s", c.LabNumber, transition.From, transition.To),
			Metadata:     map[string]interface{}{"case_id": c.ID, "from": transition.From, "to": transition.To, "approval_id": approval.ID},
		})
	}
	return approval, nil
}

// Get returns an approval on a case the principal may see.
func (s *ApprovalService) Get(ctx context.Context, p models.Principal, id string) (*models.Approval, error) {
	if !p.Valid() {
		return nil, appErrors.ErrUnauthorized
	}
	approval, err := s.approvals.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "approval")
	}
	c, err := s.cases.FindByID(ctx, approval.CaseID)
	if err != nil {
		return nil, storeError(err, "case")
	}
	if !CanSee(p, c) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "case is not assigned to you")
	}
	return approval, nil
}

// List returns approvals for reviewer queues. Analysts and investigators
// must name a case they are assigned to.
func (s *ApprovalService) List(ctx context.Context, p models.Principal, query dto.ApprovalQuery) ([]models.Approval, *models.Pagination, error) {
	if !p.Valid() {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, validationError(err, "invalid approval query")
	}
	if query.Status != "" && !query.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown approval status %q", query.Status))
	}
	if query.CaseID != "" {
		c, err := s.cases.FindByID(ctx, query.CaseID)
		if err != nil {
			return nil, nil, storeError(err, "case")
		}
		if !CanSee(p, c) {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "case is not assigned to you")
		}
	} else if p.Is(models.RoleAnalyst, models.RoleInvestigator) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "case_id is required for your role")
	}
	page, size := models.Normalize(query.Page, query.PageSize, 50)
	approvals, total, err := s.approvals.List(ctx, models.ApprovalFilter{
		CaseID:   query.CaseID,
		Status:   query.Status,
		Type:     query.Type,
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		return nil, nil, storeError(err, "approvals")
	}
	return approvals, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

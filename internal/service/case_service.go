package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/repository"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
)

type caseStore interface {
	Register(ctx context.Context, params repository.RegisterCaseParams) error
	FindByID(ctx context.Context, id string) (*models.Case, error)
	List(ctx context.Context, filter models.CaseFilter) ([]models.Case, int, error)
	UpdateAssignments(ctx context.Context, params repository.AssignmentParams) error
	UpdateAnalystStatus(ctx context.Context, caseID, analystID string, expected, next models.AnalystStatus, at time.Time) error
	UpdatePriority(ctx context.Context, caseID string, priority models.Priority, at time.Time) error
	UpdateNotes(ctx context.Context, caseID, notes string, at time.Time) error
	TransitionStatus(ctx context.Context, t models.CaseTransition) error
}

type exhibitStore interface {
	Add(ctx context.Context, ex *models.Exhibit) error
	FindByID(ctx context.Context, id string) (*models.Exhibit, error)
	ListByCase(ctx context.Context, caseID string) ([]models.Exhibit, error)
	AppendCustody(ctx context.Context, m models.CustodyMutation) error
}

// CaseService registers cases and manages their assignees and status.
type CaseService struct {
	cases     caseStore
	exhibits  exhibitStore
	activity  activityRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCaseService constructs the service.
func NewCaseService(cases caseStore, exhibits exhibitStore, activity activityRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CaseService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaseService{
		cases:     cases,
		exhibits:  exhibits,
		activity:  activity,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a case with its intake exhibits. Lab and exhibit numbers
// are allocated in the same transaction as the inserts.
func (s *CaseService) Create(ctx context.Context, p models.Principal, req dto.CreateCaseRequest) (*dto.CaseDetail, error) {
	if err := Authorize(p, ActionCreateCase); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid case payload")
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if err := Authorize(p, PriorityAction(priority)); err != nil {
		return nil, err
	}

	now := s.now()
	exhibits := make([]*models.Exhibit, 0, len(req.Exhibits))
	for i, exReq := range req.Exhibits {
		ex, err := newIntakeExhibit(p, exReq, now)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("exhibit %d: %s", i+1, err.Error()))
		}
		exhibits = append(exhibits, ex)
	}

	c := &models.Case{
		ID:                     uuid.NewString(),
		CaseNumber:             req.CaseNumber,
		Title:                  req.Title,
		Description:            req.Description,
		Status:                 models.CaseStatusOpen,
		Priority:               priority,
		AnalystStatus:          models.AnalystStatusPending,
		AssignedInvestigatorID: req.AssignedInvestigatorID,
		SupervisorID:           req.SupervisorID,
		ExhibitOfficerID:       req.ExhibitOfficerID,
		OpenedDate:             now,
		CaseNotes:              req.CaseNotes,
		CreatedBy:              p.ID,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if c.ExhibitOfficerID == nil && p.Role == models.RoleExhibitOfficer {
		c.ExhibitOfficerID = stringPtr(p.ID)
	}

	if err := s.cases.Register(ctx, repository.RegisterCaseParams{Case: c, Exhibits: exhibits, Year: now.Year()}); err != nil {
		return nil, storeError(err, "case")
	}
	s.metrics.IdentifiersAllocated("lab", 1)
	s.metrics.IdentifiersAllocated("exhibit", len(exhibits))

	s.activity.Record(ctx, dto.ActivityEntry{
		Actor:        p,
		SubjectID:    c.ID,
		SubjectType:  models.SubjectCase,
		ActivityType: models.ActivityCaseCreated,
		Description:  fmt.Sprintf("Case %s registered with %d exhibit(s)", c.LabNumber, len(exhibits)),
		Metadata:     map[string]interface{}{"case_id": c.ID, "lab_number": c.LabNumber, "priority": c.Priority},
	})
	detail := &dto.CaseDetail{Case: *c, Exhibits: make([]models.Exhibit, 0, len(exhibits))}
	for _, ex := range exhibits {
		s.metrics.CustodyEvent(string(models.CustodyEventReceived))
		s.recordExhibitRegistered(ctx, p, c, ex)
		detail.Exhibits = append(detail.Exhibits, *ex)
	}
	return detail, nil
}

// AddExhibit registers a further exhibit against an open case.
func (s *CaseService) AddExhibit(ctx context.Context, p models.Principal, caseID string, req dto.CreateExhibitRequest) (*models.Exhibit, error) {
	if err := Authorize(p, ActionRegisterExhibit); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid exhibit payload")
	}
	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, storeError(err, "case")
	}
	if !c.Status.AcceptsExhibits() {
		return nil, conflict(fmt.Sprintf("case is %s and no longer accepts exhibits", c.Status))
	}
	ex, err := newIntakeExhibit(p, req, s.now())
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	ex.CaseID = c.ID
	if err := s.exhibits.Add(ctx, ex); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, conflict("case was closed before the exhibit could be registered")
		}
		return nil, storeError(err, "exhibit")
	}
	s.metrics.IdentifiersAllocated("exhibit", 1)
	s.metrics.CustodyEvent(string(models.CustodyEventReceived))
	s.recordExhibitRegistered(ctx, p, c, ex)
	return ex, nil
}

// List returns the cases visible to the principal.
func (s *CaseService) List(ctx context.Context, p models.Principal, query dto.CaseQuery) ([]models.Case, *models.Pagination, error) {
	if !p.Valid() {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, validationError(err, "invalid case query")
	}
	page, size := models.Normalize(query.Page, query.PageSize, 20)
	filter := models.CaseFilter{
		Status:   query.Status,
		Priority: query.Priority,
		Search:   query.Search,
		Page:     page,
		PageSize: size,
	}
	switch p.Role {
	case models.RoleAnalyst:
		filter.AnalystID = p.ID
	case models.RoleInvestigator:
		filter.AssignedInvestigatorID = p.ID
	}
	cases, total, err := s.cases.List(ctx, filter)
	if err != nil {
		return nil, nil, storeError(err, "cases")
	}
	return cases, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a case with its exhibits.
func (s *CaseService) Get(ctx context.Context, p models.Principal, id string) (*dto.CaseDetail, error) {
	c, err := s.visibleCase(ctx, p, id)
	if err != nil {
		return nil, err
	}
	exhibits, err := s.exhibits.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, storeError(err, "exhibits")
	}
	if exhibits == nil {
		exhibits = []models.Exhibit{}
	}
	return &dto.CaseDetail{Case: *c, Exhibits: exhibits}, nil
}

// Assign sets case assignees. Assigning an analyst to an open case starts
// the investigation; a new analyst always starts from pending.
func (s *CaseService) Assign(ctx context.Context, p models.Principal, id string, req dto.AssignCaseRequest) (*models.Case, error) {
	if err := Authorize(p, ActionAssignCase); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid assignment payload")
	}
	if req.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one assignee is required")
	}
	c, err := s.cases.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "case")
	}
	if !c.Status.AcceptsExhibits() {
		return nil, conflict(fmt.Sprintf("case is %s and can no longer be reassigned", c.Status))
	}

	now := s.now()
	params := repository.AssignmentParams{
		CaseID:                 c.ID,
		ExpectedStatus:         c.Status,
		Status:                 c.Status,
		AnalystID:              c.AnalystID,
		AnalystStatus:          c.AnalystStatus,
		AssignedInvestigatorID: pick(req.AssignedInvestigatorID, c.AssignedInvestigatorID),
		SupervisorID:           pick(req.SupervisorID, c.SupervisorID),
		ExhibitOfficerID:       pick(req.ExhibitOfficerID, c.ExhibitOfficerID),
		UpdatedAt:              now,
	}
	if req.AnalystID != nil {
		if !c.IsAnalyst(*req.AnalystID) {
			params.AnalystStatus = models.AnalystStatusPending
		}
		params.AnalystID = req.AnalystID
		if next, ok := models.NextCaseStatus(c.Status, models.GateAnalystAssignment); ok {
			params.Status = next
		}
	}
	if err := s.cases.UpdateAssignments(ctx, params); err != nil {
		return nil, storeError(err, "case")
	}

	previous := c.Status
	c.Status = params.Status
	c.AnalystID = params.AnalystID
	c.AnalystStatus = params.AnalystStatus
	c.AssignedInvestigatorID = params.AssignedInvestigatorID
	c.SupervisorID = params.SupervisorID
	c.ExhibitOfficerID = params.ExhibitOfficerID
	c.UpdatedAt = now

	s.activity.Record(ctx, dto.ActivityEntry{
		Actor:        p,
		SubjectID:    c.ID,
		SubjectType:  models.SubjectCase,
		ActivityType: models.ActivityCaseAssigned,
		Description:  fmt.Sprintf("Assignees updated on case %s", c.LabNumber),
		Metadata: map[string]interface{}{
			"case_id":                  c.ID,
			"analyst_id":               deref(c.AnalystID),
			"assigned_investigator_id": deref(c.AssignedInvestigatorID),
			"supervisor_id":            deref(c.SupervisorID),
			"exhibit_officer_id":       deref(c.ExhibitOfficerID),
		},
	})
	if previous != c.Status {
		s.recordStatusChange(ctx, p, c, previous, models.ActivityCaseStatusChanged, "")
	}
	return c, nil
}

// UpdateAnalystStatus advances the analyst workload marker. Only the case's
// assigned analyst may do so, and only forwards.
func (s *CaseService) UpdateAnalystStatus(ctx context.Context, p models.Principal, id string, req dto.UpdateAnalystStatusRequest) (*models.Case, error) {
	if !p.Valid() {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid analyst status payload")
	}
	c, err := s.cases.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "case")
	}
	if !c.IsAnalyst(p.ID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned analyst may change analyst status")
	}
	if !c.AnalystStatus.CanAdvanceTo(req.Status) {
		return nil, conflict(fmt.Sprintf("analyst status cannot move from %s to %s", c.AnalystStatus, req.Status))
	}
	now := s.now()
	if err := s.cases.UpdateAnalystStatus(ctx, c.ID, p.ID, c.AnalystStatus, req.Status, now); err != nil {
		return nil, storeError(err, "case")
	}
	previous := c.AnalystStatus
	c.AnalystStatus = req.Status
	c.UpdatedAt = now
	s.activity.Record(ctx, dto.ActivityEntry{
		Actor:        p,
		SubjectID:    c.ID,
		SubjectType:  models.SubjectCase,
		ActivityType: models.ActivityAnalystStatusChanged,
		Description:  fmt.Sprintf("Analyst status on %s changed from %s to %s", c.LabNumber, previous, c.AnalystStatus),
		Metadata:     map[string]interface{}{"case_id": c.ID, "from": previous, "to": c.AnalystStatus},
	})
	return c, nil
}

// UpdatePriority changes case priority. Raising to or lowering from critical
// needs the commanding roles.
func (s *CaseService) UpdatePriority(ctx context.Context, p models.Principal, id string, req dto.UpdatePriorityRequest) (*models.Case, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid priority payload")
	}
	if err := Authorize(p, PriorityAction(req.Priority)); err != nil {
		return nil, err
	}
	c, err := s.cases.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "case")
	}
	if err := Authorize(p, PriorityAction(c.Priority)); err != nil {
		return nil, err
	}
	if c.Priority == req.Priority {
		return c, nil
	}
	now := s.now()
	if err := s.cases.UpdatePriority(ctx, c.ID, req.Priority, now); err != nil {
		return nil, storeError(err, "case")
	}
	previous := c.Priority
	c.Priority = req.Priority
	c.UpdatedAt = now
	s.activity.Record(ctx, dto.ActivityEntry{
		Actor:        p,
		SubjectID:    c.ID,
		SubjectType:  models.SubjectCase,
		ActivityType: models.ActivityCasePriorityChanged,
		Description:  fmt.Sprintf("Priority of %s changed from %s to %s", c.LabNumber, previous, c.Priority),
		Metadata:     map[string]interface{}{"case_id": c.ID, "from": previous, "to": c.Priority},
	})
	return c, nil
}

// UpdateNotes replaces the case notes.
func (s *CaseService) UpdateNotes(ctx context.Context, p models.Principal, id string, req dto.UpdateCaseNotesRequest) (*models.Case, error) {
	if err := Authorize(p, ActionUpdateNotes); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid notes payload")
	}
	c, err := s.visibleCase(ctx, p, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.cases.UpdateNotes(ctx, c.ID, req.Notes, now); err != nil {
		return nil, storeError(err, "case")
	}
	c.CaseNotes = req.Notes
	c.UpdatedAt = now
	s.activity.Record(ctx, dto.ActivityEntry{
		Actor:        p,
		SubjectID:    c.ID,
		SubjectType:  models.SubjectCase,
		ActivityType: models.ActivityCaseNotesUpdated,
		Description:  fmt.Sprintf("Notes updated on %s", c.LabNumber),
		Metadata:     map[string]interface{}{"case_id": c.ID},
	})
	return c, nil
}

// OverrideStatus moves a case to any other status outside the approval
// workflow. Administrators only; the reason is kept in the audit trail.
func (s *CaseService) OverrideStatus(ctx context.Context, p models.Principal, id string, req dto.OverrideCaseStatusRequest) (*models.Case, error) {
	if err := Authorize(p, ActionOverrideStatus); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid override payload")
	}
	c, err := s.cases.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "case")
	}
	if c.Status == req.Status {
		return nil, conflict(fmt.Sprintf("case is already %s", c.Status))
	}
	now := s.now()
	if err := s.cases.TransitionStatus(ctx, models.CaseTransition{CaseID: c.ID, From: c.Status, To: req.Status, UpdatedAt: now}); err != nil {
		return nil, storeError(err, "case")
	}
	previous := c.Status
	applyTransition(c, req.Status, now)
	s.recordStatusChange(ctx, p, c, previous, models.ActivityCaseStatusOverridden, req.Reason)
	return c, nil
}

func (s *CaseService) visibleCase(ctx context.Context, p models.Principal, id string) (*models.Case, error) {
	if !p.Valid() {
		return nil, appErrors.ErrUnauthorized
	}
	c, err := s.cases.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "case")
	}
	if !CanSee(p, c) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "case is not assigned to you")
	}
	return c, nil
}

func (s *CaseService) recordStatusChange(ctx context.Context, p models.Principal, c *models.Case, from models.CaseStatus, activityType, reason string) {
	metadata := map[string]interface{}{"case_id": c.ID, "from": from, "to": c.Status}
	description := fmt.Sprintf("Case %s moved from %s to %s", c.LabNumber, from, c.Status)
	if reason != "" {
		metadata["reason"] = reason
		description += " by administrative override"
	}
	s.activity.Record(ctx, dto.ActivityEntry{
		Actor:        p,
		SubjectID:    c.ID,
		SubjectType:  models.SubjectCase,
		ActivityType: activityType,
		Description:  description,
		Metadata:     metadata,
	})
}

func (s *CaseService) recordExhibitRegistered(ctx context.Context, p models.Principal, c *models.Case, ex *models.Exhibit) {
	s.activity.Record(ctx, dto.ActivityEntry{
		Actor:        p,
		SubjectID:    ex.ID,
		SubjectType:  models.SubjectExhibit,
		ActivityType: models.ActivityExhibitRegistered,
		Description:  fmt.Sprintf("Exhibit %s received for case %s", ex.ExhibitNumber, c.LabNumber),
		Metadata:     map[string]interface{}{"case_id": c.ID, "exhibit_number": ex.ExhibitNumber, "exhibit_type": ex.ExhibitType},
	})
}

// applyTransition mirrors the closed_date handling of the repository.
func applyTransition(c *models.Case, to models.CaseStatus, at time.Time) {
	c.Status = to
	c.UpdatedAt = at
	switch to {
	case models.CaseStatusClosed:
		closed := at
		c.ClosedDate = &closed
	case models.CaseStatusArchived:
	default:
		c.ClosedDate = nil
	}
}

func pick(next, current *string) *string {
	if next != nil {
		return next
	}
	return current
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func stringPtr(s string) *string {
	return &s
}

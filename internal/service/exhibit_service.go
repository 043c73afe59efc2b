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

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/custody"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/repository"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
)

const defaultIntakeLocation = "Exhibit store"

// ExhibitService moves exhibits through their lifecycle. Every change is
// written together with exactly one custody event.
type ExhibitService struct {
	cases     caseFinder
	exhibits  exhibitStore
	activity  activityRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewExhibitService constructs the service.
func NewExhibitService(cases caseFinder, exhibits exhibitStore, activity activityRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ExhibitService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExhibitService{
		cases:     cases,
		exhibits:  exhibits,
		activity:  activity,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Get returns an exhibit the principal may see.
func (s *ExhibitService) Get(ctx context.Context, p models.Principal, id string) (*models.Exhibit, error) {
	ex, _, err := s.load(ctx, p, id)
	return ex, err
}

// Assign hands the exhibit to an analyst and puts it into analysis.
// Reassigning an exhibit already in analysis keeps its status.
func (s *ExhibitService) Assign(ctx context.Context, p models.Principal, id string, req dto.AssignExhibitRequest) (*models.Exhibit, error) {
	if err := Authorize(p, ActionAssignExhibit); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid assignment payload")
	}
	ex, c, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !c.Status.AcceptsExhibits() {
		return nil, conflict(fmt.Sprintf("case is %s and its exhibits can no longer be assigned", c.Status))
	}
	next := models.ExhibitStatusInAnalysis
	if ex.Status != next && !ex.Status.CanTransitionTo(next) {
		return nil, conflict(fmt.Sprintf("exhibit is %s and cannot be assigned", ex.Status))
	}
	analystName := req.AnalystName
	if analystName == "" {
		analystName = req.AnalystID
	}
	m := s.mutation(p, ex, next, req.Location, models.CustodyEvent{
		EventType:   models.CustodyEventAssigned,
		Description: "Assigned to analyst " + analystName,
		Notes:       req.Notes,
	})
	m.AssignedAnalystID = stringPtr(req.AnalystID)
	return s.apply(ctx, p, c, ex, m, models.ActivityExhibitAssigned, map[string]interface{}{"analyst_id": req.AnalystID})
}

// ChangeStatus moves the exhibit along an allowed lifecycle edge. Analysts
// may only change exhibits assigned to them.
func (s *ExhibitService) ChangeStatus(ctx context.Context, p models.Principal, id string, req dto.ChangeExhibitStatusRequest) (*models.Exhibit, error) {
	if err := Authorize(p, ActionChangeExhibitStatus); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid status payload")
	}
	next, ok := models.ParseExhibitStatus(req.Status)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown exhibit status %q", req.Status))
	}
	ex, c, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if p.Role == models.RoleAnalyst && !assignedTo(ex, p.ID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exhibit is not assigned to you")
	}
	if !ex.Status.CanTransitionTo(next) {
		return nil, conflict(fmt.Sprintf("exhibit cannot move from %s to %s", ex.Status, next))
	}
	m := s.mutation(p, ex, next, req.Location, models.CustodyEvent{
		EventType:   models.CustodyEventStatusChange,
		Description: fmt.Sprintf("Status changed from %s to %s", ex.Status, next),
		Notes:       req.Notes,
	})
	return s.apply(ctx, p, c, ex, m, models.ActivityExhibitStatusChanged, nil)
}

// Transfer records a physical move. The status does not change.
func (s *ExhibitService) Transfer(ctx context.Context, p models.Principal, id string, req dto.TransferExhibitRequest) (*models.Exhibit, error) {
	if err := Authorize(p, ActionTransferExhibit); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid transfer payload")
	}
	ex, c, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if ex.Status == models.ExhibitStatusDestroyed {
		return nil, conflict("destroyed exhibits cannot be transferred")
	}
	description := fmt.Sprintf("Transferred from %s to %s", orUnknown(ex.CurrentLocation), req.ToLocation)
	if req.ReceivedBy != "" {
		description += ", received by " + req.ReceivedBy
	}
	m := s.mutation(p, ex, ex.Status, req.ToLocation, models.CustodyEvent{
		EventType:   models.CustodyEventTransferred,
		Description: description,
		Notes:       req.Notes,
	})
	return s.apply(ctx, p, c, ex, m, models.ActivityExhibitTransferred, map[string]interface{}{"from": ex.CurrentLocation, "to": req.ToLocation})
}

// Return records hand-back of the exhibit.
func (s *ExhibitService) Return(ctx context.Context, p models.Principal, id string, req dto.ReturnExhibitRequest) (*models.Exhibit, error) {
	if err := Authorize(p, ActionReturnExhibit); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid return payload")
	}
	ex, c, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !ex.Status.CanTransitionTo(models.ExhibitStatusReturned) {
		return nil, conflict(fmt.Sprintf("exhibit is %s and cannot be returned", ex.Status))
	}
	location := req.Location
	if location == "" {
		location = "Returned to " + req.ReturnedTo
	}
	m := s.mutation(p, ex, models.ExhibitStatusReturned, location, models.CustodyEvent{
		EventType:   models.CustodyEventReturned,
		Description: "Returned to " + req.ReturnedTo,
		Notes:       req.Notes,
	})
	return s.apply(ctx, p, c, ex, m, models.ActivityExhibitReturned, map[string]interface{}{"returned_to": req.ReturnedTo})
}

func (s *ExhibitService) load(ctx context.Context, p models.Principal, id string) (*models.Exhibit, *models.Case, error) {
	if !p.Valid() {
		return nil, nil, appErrors.ErrUnauthorized
	}
	ex, err := s.exhibits.FindByID(ctx, id)
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

// mutation prepares the guarded update for ex. An empty location keeps the
// current one.
func (s *ExhibitService) mutation(p models.Principal, ex *models.Exhibit, next models.ExhibitStatus, location string, ev models.CustodyEvent) models.CustodyMutation {
	if location == "" {
		location = ex.CurrentLocation
	}
	now := s.now()
	ev.Timestamp = now
	ev.Officer = p.Officer()
	ev.Location = location
	if next != ex.Status {
		previous := ex.Status
		ev.PreviousStatus = &previous
		ev.NewStatus = &next
	}
	return models.CustodyMutation{
		ExhibitID:         ex.ID,
		ExpectedStatus:    ex.Status,
		ExpectedLength:    len(ex.ChainOfCustody),
		Status:            next,
		Location:          location,
		AssignedAnalystID: ex.AssignedAnalystID,
		Event:             ev,
		UpdatedAt:         now,
	}
}

func (s *ExhibitService) apply(ctx context.Context, p models.Principal, c *models.Case, ex *models.Exhibit, m models.CustodyMutation, activityType string, metadata map[string]interface{}) (*models.Exhibit, error) {
	sealed, err := custody.Seal(ex.ID, ex.ChainOfCustody, m.Event)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seal custody event")
	}
	m.Event = sealed
	if err := s.exhibits.AppendCustody(ctx, m); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, conflict("exhibit changed concurrently; reload and retry")
		}
		return nil, storeError(err, "exhibit")
	}
	s.metrics.CustodyEvent(string(sealed.EventType))

	ex.Status = m.Status
	ex.CurrentLocation = m.Location
	ex.AssignedAnalystID = m.AssignedAnalystID
	ex.ChainOfCustody = append(ex.ChainOfCustody, sealed)
	ex.UpdatedAt = m.UpdatedAt

	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	metadata["case_id"] = c.ID
	metadata["exhibit_number"] = ex.ExhibitNumber
	metadata["sequence"] = sealed.Sequence
	if sealed.NewStatus != nil {
		metadata["from"] = *sealed.PreviousStatus
		metadata["to"] = *sealed.NewStatus
	}
	s.activity.Record(ctx, dto.ActivityEntry{
		Actor:        p,
		SubjectID:    ex.ID,
		SubjectType:  models.SubjectExhibit,
		ActivityType: activityType,
		Description:  fmt.Sprintf("%s: %s", ex.ExhibitNumber, sealed.Description),
		Metadata:     metadata,
	})
	return ex, nil
}

// newIntakeExhibit builds a received exhibit with its sealed receipt event.
// The exhibit number is allocated by the repository.
func newIntakeExhibit(p models.Principal, req dto.CreateExhibitRequest, now time.Time) (*models.Exhibit, error) {
	ex := &models.Exhibit{
		ID:              uuid.NewString(),
		ExhibitType:     req.ExhibitType,
		Status:          models.ExhibitStatusReceived,
		DeviceName:      req.DeviceName,
		Brand:           req.Brand,
		Model:           req.Model,
		SerialNumber:    req.SerialNumber,
		IMEI:            req.IMEI,
		MACAddress:      req.MACAddress,
		StorageCapacity: req.StorageCapacity,
		Description:     req.Description,
		CurrentLocation: req.Location,
		ReceivedBy:      p.Name,
		ReceivedAt:      now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if missing := ex.MissingTypeFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%s requires %s", ex.ExhibitType, strings.Join(missing, ", "))
	}
	if ex.CurrentLocation == "" {
		ex.CurrentLocation = defaultIntakeLocation
	}
	if ex.ReceivedBy == "" {
		ex.ReceivedBy = p.ID
	}
	received := models.ExhibitStatusReceived
	event, err := custody.Seal(ex.ID, nil, models.CustodyEvent{
		Timestamp:   now,
		EventType:   models.CustodyEventReceived,
		Description: "Exhibit received into custody",
		Officer:     p.Officer(),
		Location:    ex.CurrentLocation,
		NewStatus:   &received,
		Notes:       req.Notes,
	})
	if err != nil {
		return nil, err
	}
	ex.ChainOfCustody = models.CustodyChain{event}
	return ex, nil
}

func assignedTo(ex *models.Exhibit, userID string) bool {
	return ex.AssignedAnalystID != nil && *ex.AssignedAnalystID == userID
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown location"
	}
	return s
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/identifier"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/repository"
)

var fixedNow = time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// memoryStore emulates the repositories, including their compare-and-swap
// guards and sentinel errors.
type memoryStore struct {
	mu        sync.Mutex
	cases     map[string]*models.Case
	exhibits  map[string]*models.Exhibit
	approvals map[string]*models.Approval
	counters  map[string]int
	activity  []models.ActivityLog

	failActivity error
	lastFilter   models.CaseFilter
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		cases:     make(map[string]*models.Case),
		exhibits:  make(map[string]*models.Exhibit),
		approvals: make(map[string]*models.Approval),
		counters:  make(map[string]int),
	}
}

func (m *memoryStore) next(scope string) int {
	m.counters[scope]++
	return m.counters[scope]
}

// caseRepo, exhibitRepo, approvalRepo and activityRepo expose the store
// through the method sets the services expect.
type (
	caseRepo     struct{ *memoryStore }
	exhibitRepo  struct{ *memoryStore }
	approvalRepo struct{ *memoryStore }
	activityRepo struct{ *memoryStore }
)

func (r caseRepo) Register(ctx context.Context, params repository.RegisterCaseParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	labNumber, err := identifier.LabNumber(params.Year, r.next(identifier.LabScope(params.Year)))
	if err != nil {
		return err
	}
	c := *params.Case
	c.LabNumber = labNumber
	if c.CaseNumber == "" {
		c.CaseNumber = labNumber
	}
	params.Case.LabNumber = c.LabNumber
	params.Case.CaseNumber = c.CaseNumber
	r.cases[c.ID] = &c
	for _, ex := range params.Exhibits {
		ex.CaseID = c.ID
		r.insertExhibit(labNumber, len(params.Exhibits), ex)
	}
	return nil
}

func (m *memoryStore) insertExhibit(labNumber string, batchSize int, ex *models.Exhibit) {
	n := m.next(identifier.ExhibitScope(labNumber))
	ex.ExhibitNumber, _ = identifier.ExhibitNumber(labNumber, n, batchSize)
	stored := *ex
	stored.ChainOfCustody = append(models.CustodyChain(nil), ex.ChainOfCustody...)
	m.exhibits[ex.ID] = &stored
}

func (r caseRepo) FindByID(ctx context.Context, id string) (*models.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *c
	return &out, nil
}

func (r caseRepo) List(ctx context.Context, filter models.CaseFilter) ([]models.Case, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = filter
	var out []models.Case
	for _, c := range r.cases {
		if filter.AnalystID != "" && !c.IsAnalyst(filter.AnalystID) {
			continue
		}
		if filter.AssignedInvestigatorID != "" && !c.IsInvestigator(filter.AssignedInvestigatorID) {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (r caseRepo) UpdateAssignments(ctx context.Context, p repository.AssignmentParams) error {
	return r.mutateCase(p.CaseID, func(c *models.Case) bool {
		if c.Status != p.ExpectedStatus {
			return false
		}
		c.Status = p.Status
		c.AnalystID = p.AnalystID
		c.AnalystStatus = p.AnalystStatus
		c.AssignedInvestigatorID = p.AssignedInvestigatorID
		c.SupervisorID = p.SupervisorID
		c.ExhibitOfficerID = p.ExhibitOfficerID
		c.UpdatedAt = p.UpdatedAt
		return true
	})
}

func (r caseRepo) UpdateAnalystStatus(ctx context.Context, caseID, analystID string, expected, next models.AnalystStatus, at time.Time) error {
	return r.mutateCase(caseID, func(c *models.Case) bool {
		if !c.IsAnalyst(analystID) || c.AnalystStatus != expected {
			return false
		}
		c.AnalystStatus = next
		c.UpdatedAt = at
		return true
	})
}

func (r caseRepo) UpdatePriority(ctx context.Context, caseID string, priority models.Priority, at time.Time) error {
	return r.mutateCase(caseID, func(c *models.Case) bool {
		c.Priority = priority
		c.UpdatedAt = at
		return true
	})
}

func (r caseRepo) UpdateNotes(ctx context.Context, caseID, notes string, at time.Time) error {
	return r.mutateCase(caseID, func(c *models.Case) bool {
		c.CaseNotes = notes
		c.UpdatedAt = at
		return true
	})
}

func (r caseRepo) TransitionStatus(ctx context.Context, t models.CaseTransition) error {
	return r.mutateCase(t.CaseID, func(c *models.Case) bool {
		if c.Status != t.From {
			return false
		}
		applyTransition(c, t.To, t.UpdatedAt)
		return true
	})
}

func (m *memoryStore) mutateCase(id string, apply func(*models.Case) bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[id]
	if !ok {
		return sql.ErrNoRows
	}
	if !apply(c) {
		return repository.ErrStaleState
	}
	return nil
}

func (r exhibitRepo) Add(ctx context.Context, ex *models.Exhibit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[ex.CaseID]
	if !ok {
		return sql.ErrNoRows
	}
	if !c.Status.AcceptsExhibits() {
		return repository.ErrStaleState
	}
	r.insertExhibit(c.LabNumber, 0, ex)
	return nil
}

func (r exhibitRepo) FindByID(ctx context.Context, id string) (*models.Exhibit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.exhibits[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *ex
	out.ChainOfCustody = append(models.CustodyChain(nil), ex.ChainOfCustody...)
	return &out, nil
}

func (r exhibitRepo) ListByCase(ctx context.Context, caseID string) ([]models.Exhibit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Exhibit
	for _, ex := range r.exhibits {
		if ex.CaseID == caseID {
			out = append(out, *ex)
		}
	}
	return out, nil
}

func (r exhibitRepo) AppendCustody(ctx context.Context, m models.CustodyMutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.exhibits[m.ExhibitID]
	if !ok {
		return sql.ErrNoRows
	}
	if ex.Status != m.ExpectedStatus || len(ex.ChainOfCustody) != m.ExpectedLength {
		return repository.ErrStaleState
	}
	ex.Status = m.Status
	ex.CurrentLocation = m.Location
	ex.AssignedAnalystID = m.AssignedAnalystID
	ex.ChainOfCustody = append(ex.ChainOfCustody, m.Event)
	ex.UpdatedAt = m.UpdatedAt
	return nil
}

func (r approvalRepo) Create(ctx context.Context, a *models.Approval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.approvals {
		if existing.CaseID == a.CaseID && existing.ApprovalType == a.ApprovalType && existing.ApprovalStatus == models.ApprovalStatusPending {
			return fmt.Errorf("create approval: %w (uq_approvals_one_pending)", repository.ErrDuplicate)
		}
	}
	out := *a
	r.approvals[a.ID] = &out
	return nil
}

func (r approvalRepo) FindByID(ctx context.Context, id string) (*models.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.approvals[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *a
	return &out, nil
}

func (r approvalRepo) List(ctx context.Context, filter models.ApprovalFilter) ([]models.Approval, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Approval
	for _, a := range r.approvals {
		if filter.CaseID != "" && a.CaseID != filter.CaseID {
			continue
		}
		if filter.Status != "" && a.ApprovalStatus != filter.Status {
			continue
		}
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (r approvalRepo) Resolve(ctx context.Context, res models.ApprovalResolution, transition *models.CaseTransition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.approvals[res.ApprovalID]
	if !ok || a.ApprovalStatus != models.ApprovalStatusPending {
		return repository.ErrNotPending
	}
	var c *models.Case
	if transition != nil {
		c = r.cases[transition.CaseID]
		if c == nil || c.Status != transition.From {
			return repository.ErrStaleState
		}
	}
	a.ApprovalStatus = res.Status
	a.ApprovedBy = stringPtr(res.ResolvedBy)
	at := res.ResolvedAt
	a.ApprovedAt = &at
	if res.ReviewComments != "" {
		a.ReviewComments = stringPtr(res.ReviewComments)
	}
	if c != nil {
		applyTransition(c, transition.To, transition.UpdatedAt)
	}
	return nil
}

func (r activityRepo) Insert(ctx context.Context, entry *models.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failActivity != nil {
		return r.failActivity
	}
	r.activity = append(r.activity, *entry)
	return nil
}

func (r activityRepo) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ActivityLog
	for _, entry := range r.activity {
		if filter.UserID != "" && entry.UserID != filter.UserID {
			continue
		}
		out = append(out, entry)
	}
	return out, len(out), nil
}

func (m *memoryStore) activityTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.activity))
	for _, entry := range m.activity {
		types = append(types, entry.ActivityType)
	}
	return types
}

func (m *memoryStore) caseByID(id string) models.Case {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.cases[id]
}

type notifierStub struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (n *notifierStub) Notify(note models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
}

var errDatabaseDown = errors.New("database unavailable")

// testEnv wires every service over one memory store.
type testEnv struct {
	store     *memoryStore
	notifier  *notifierStub
	activity  *ActivityService
	cases     *CaseService
	exhibits  *ExhibitService
	approvals *ApprovalService
	metrics   *MetricsService
}

func newTestEnv() *testEnv {
	store := newMemoryStore()
	notifier := &notifierStub{}
	metrics := NewMetricsService()
	validate := dto.NewValidator()

	activity := NewActivityService(activityRepo{store}, caseRepo{store}, notifier, nil)
	activity.now = fixedClock
	cases := NewCaseService(caseRepo{store}, exhibitRepo{store}, activity, metrics, validate, nil)
	cases.now = fixedClock
	exhibits := NewExhibitService(caseRepo{store}, exhibitRepo{store}, activity, metrics, validate, nil)
	exhibits.now = fixedClock
	approvals := NewApprovalService(approvalRepo{store}, caseRepo{store}, activity, metrics, validate, nil)
	approvals.now = fixedClock

	return &testEnv{
		store:     store,
		notifier:  notifier,
		activity:  activity,
		cases:     cases,
		exhibits:  exhibits,
		approvals: approvals,
		metrics:   metrics,
	}
}

var (
	adminUser      = models.Principal{ID: "admin-1", Role: models.RoleAdministrator, Name: "Admin", BadgeNumber: "A-001"}
	commanderUser  = models.Principal{ID: "co-1", Role: models.RoleCommandingOfficer, Name: "Commander", BadgeNumber: "C-001"}
	supervisorUser = models.Principal{ID: "sup-1", Role: models.RoleSupervisor, Name: "Supervisor", BadgeNumber: "S-001"}
	analystUser    = models.Principal{ID: "an-1", Role: models.RoleAnalyst, Name: "Analyst", BadgeNumber: "N-001"}
	otherAnalyst   = models.Principal{ID: "an-2", Role: models.RoleAnalyst, Name: "Second Analyst", BadgeNumber: "N-002"}
	investigator   = models.Principal{ID: "inv-1", Role: models.RoleInvestigator, Name: "Investigator", BadgeNumber: "I-001"}
	officerUser    = models.Principal{ID: "eo-1", Role: models.RoleExhibitOfficer, Name: "Exhibit Officer", BadgeNumber: "E-001"}
)

func phoneExhibit() dto.CreateExhibitRequest {
	return dto.CreateExhibitRequest{
		ExhibitType: models.ExhibitTypeMobileDevice,
		DeviceName:  "Handset",
		Brand:       "Samsung",
		IMEI:        "356938035643809",
		Location:    "Intake desk",
	}
}

// createCase registers a case with n phones.
func (e *testEnv) createCase(ctx context.Context, n int) (*dto.CaseDetail, error) {
	req := dto.CreateCaseRequest{
		Title:                  "Online fraud",
		AssignedInvestigatorID: stringPtr(investigator.ID),
		SupervisorID:           stringPtr(supervisorUser.ID),
	}
	for i := 0; i < n; i++ {
		req.Exhibits = append(req.Exhibits, phoneExhibit())
	}
	return e.cases.Create(ctx, officerUser, req)
}

// caseAt forces a case into status, bypassing the workflow.
func (e *testEnv) caseAt(ctx context.Context, status models.CaseStatus) (*dto.CaseDetail, error) {
	detail, err := e.createCase(ctx, 1)
	if err != nil {
		return nil, err
	}
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	c := e.store.cases[detail.ID]
	c.Status = status
	c.AnalystID = stringPtr(analystUser.ID)
	detail.Case = *c
	return detail, nil
}

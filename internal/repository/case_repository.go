package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/identifier"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
)

const caseColumns = `id, case_number, lab_number, title, description, status, priority, analyst_status,
	assigned_investigator_id, supervisor_id, analyst_id, exhibit_officer_id, opened_date, closed_date,
	case_notes, created_by, created_at, updated_at`

// CaseRepository persists cases.
type CaseRepository struct {
	db *sqlx.DB
}

// NewCaseRepository constructs the repository.
func NewCaseRepository(db *sqlx.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

// RegisterCaseParams is a new case and its intake exhibits. Exhibits arrive
// with ids and sealed receipt events; numbers are allocated here.
type RegisterCaseParams struct {
	Case     *models.Case
	Exhibits []*models.Exhibit
	Year     int
}

// Register allocates the lab number and exhibit numbers and inserts the case
// with all exhibits in a single transaction.
func (r *CaseRepository) Register(ctx context.Context, params RegisterCaseParams) (err error) {
	if len(params.Exhibits) == 0 {
		return fmt.Errorf("register case: at least one exhibit required")
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin case registration: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	seq, err := nextSequence(ctx, tx, identifier.LabScope(params.Year))
	if err != nil {
		return err
	}
	labNumber, err := identifier.LabNumber(params.Year, seq)
	if err != nil {
		return err
	}

	c := params.Case
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.LabNumber = labNumber
	if c.CaseNumber == "" {
		c.CaseNumber = labNumber
	}
	const insertCase = `INSERT INTO cases (` + caseColumns + `)
	VALUES (:id, :case_number, :lab_number, :title, :description, :status, :priority, :analyst_status,
	:assigned_investigator_id, :supervisor_id, :analyst_id, :exhibit_officer_id, :opened_date, :closed_date,
	:case_notes, :created_by, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertCase, c); err != nil {
		return mapWriteError(err, "insert case")
	}

	for _, ex := range params.Exhibits {
		ex.CaseID = c.ID
		if err = insertExhibitTx(ctx, tx, labNumber, len(params.Exhibits), ex); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit case registration: %w", err)
	}
	return nil
}

// FindByID fetches a case.
func (r *CaseRepository) FindByID(ctx context.Context, id string) (*models.Case, error) {
	var c models.Case
	if err := r.db.GetContext(ctx, &c, `SELECT `+caseColumns+` FROM cases WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns cases matching the filter, newest first.
func (r *CaseRepository) List(ctx context.Context, filter models.CaseFilter) ([]models.Case, int, error) {
	args := make([]interface{}, 0, 5)
	conditions := []string{"1=1"}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.AnalystID != "" {
		args = append(args, filter.AnalystID)
		conditions = append(conditions, fmt.Sprintf("analyst_id = $%d", len(args)))
	}
	if filter.AssignedInvestigatorID != "" {
		args = append(args, filter.AssignedInvestigatorID)
		conditions = append(conditions, fmt.Sprintf("assigned_investigator_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(lab_number) LIKE $%d OR LOWER(case_number) LIKE $%d)", len(args), len(args), len(args)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	page, size := models.Normalize(filter.Page, filter.PageSize, 20)
	query := fmt.Sprintf(`SELECT %s FROM cases%s ORDER BY opened_date DESC, lab_number DESC LIMIT %d OFFSET %d`,
		caseColumns, where, size, (page-1)*size)

	var cases []models.Case
	if err := r.db.SelectContext(ctx, &cases, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list cases: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM cases`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count cases: %w", err)
	}
	return cases, total, nil
}

// AssignmentParams is the full assignee set of a case. Status differs from
// ExpectedStatus when an analyst assignment opens the investigation.
type AssignmentParams struct {
	CaseID                 string
	ExpectedStatus         models.CaseStatus
	Status                 models.CaseStatus
	AnalystID              *string
	AnalystStatus          models.AnalystStatus
	AssignedInvestigatorID *string
	SupervisorID           *string
	ExhibitOfficerID       *string
	UpdatedAt              time.Time
}

// UpdateAssignments writes the complete assignee set, guarded by the
// status the caller read.
func (r *CaseRepository) UpdateAssignments(ctx context.Context, p AssignmentParams) error {
	const query = `UPDATE cases SET status = $1, analyst_id = $2, analyst_status = $3, assigned_investigator_id = $4,
	supervisor_id = $5, exhibit_officer_id = $6, updated_at = $7
	WHERE id = $8 AND status = $9`
	res, err := r.db.ExecContext(ctx, query, p.Status, p.AnalystID, p.AnalystStatus, p.AssignedInvestigatorID,
		p.SupervisorID, p.ExhibitOfficerID, p.UpdatedAt, p.CaseID, p.ExpectedStatus)
	if err != nil {
		return fmt.Errorf("update case assignments: %w", err)
	}
	return r.checkCAS(ctx, res, p.CaseID)
}

// UpdateAnalystStatus advances analyst_status from expected to next for the
// given analyst only.
func (r *CaseRepository) UpdateAnalystStatus(ctx context.Context, caseID, analystID string, expected, next models.AnalystStatus, at time.Time) error {
	const query = `UPDATE cases SET analyst_status = $1, updated_at = $2
	WHERE id = $3 AND analyst_id = $4 AND analyst_status = $5`
	res, err := r.db.ExecContext(ctx, query, next, at, caseID, analystID, expected)
	if err != nil {
		return fmt.Errorf("update analyst status: %w", err)
	}
	return r.checkCAS(ctx, res, caseID)
}

// UpdatePriority sets the case priority.
func (r *CaseRepository) UpdatePriority(ctx context.Context, caseID string, priority models.Priority, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE cases SET priority = $1, updated_at = $2 WHERE id = $3`, priority, at, caseID)
	if err != nil {
		return fmt.Errorf("update case priority: %w", err)
	}
	return r.checkCAS(ctx, res, caseID)
}

// UpdateNotes replaces the case notes.
func (r *CaseRepository) UpdateNotes(ctx context.Context, caseID, notes string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE cases SET case_notes = $1, updated_at = $2 WHERE id = $3`, notes, at, caseID)
	if err != nil {
		return fmt.Errorf("update case notes: %w", err)
	}
	return r.checkCAS(ctx, res, caseID)
}

// TransitionStatus moves a case from t.From to t.To.
func (r *CaseRepository) TransitionStatus(ctx context.Context, t models.CaseTransition) error {
	res, err := transitionCaseTx(ctx, r.db, t)
	if err != nil {
		return err
	}
	return r.checkCAS(ctx, res, t.CaseID)
}

// transitionCaseTx stamps closed_date when entering closed and keeps it on
// later statuses.
func transitionCaseTx(ctx context.Context, exec sqlx.ExecerContext, t models.CaseTransition) (sql.Result, error) {
	const query = `UPDATE cases SET status = $1,
	closed_date = CASE WHEN $1 = 'closed' THEN $2 WHEN $1 = 'archived' THEN closed_date ELSE NULL END,
	updated_at = $2
	WHERE id = $3 AND status = $4`
	res, err := exec.ExecContext(ctx, query, t.To, t.UpdatedAt, t.CaseID, t.From)
	if err != nil {
		return nil, fmt.Errorf("transition case status: %w", err)
	}
	return res, nil
}

// checkCAS distinguishes a missing row from a lost race.
func (r *CaseRepository) checkCAS(ctx context.Context, res sql.Result, caseID string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check case update rows: %w", err)
	}
	if rows > 0 {
		return nil
	}
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM cases WHERE id = $1)`, caseID); err != nil {
		return fmt.Errorf("check case exists: %w", err)
	}
	if !exists {
		return sql.ErrNoRows
	}
	return ErrStaleState
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/identifier"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
)

const exhibitColumns = `id, case_id, exhibit_number, exhibit_type, status, device_name, brand, model, serial_number,
	imei, mac_address, storage_capacity, description, assigned_analyst_id, current_location, received_by,
	received_at, chain_of_custody, created_at, updated_at`

// ExhibitRepository persists exhibits and is the only writer of their
// custody ledgers.
type ExhibitRepository struct {
	db *sqlx.DB
}

// NewExhibitRepository constructs the repository.
func NewExhibitRepository(db *sqlx.DB) *ExhibitRepository {
	return &ExhibitRepository{db: db}
}

// Add registers one more exhibit against an existing case, continuing the
// case's exhibit counter. It fails with ErrStaleState when the case no
// longer accepts exhibits.
func (r *ExhibitRepository) Add(ctx context.Context, ex *models.Exhibit) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin exhibit registration: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var owner struct {
		LabNumber string            `db:"lab_number"`
		Status    models.CaseStatus `db:"status"`
	}
	if err = tx.GetContext(ctx, &owner, `SELECT lab_number, status FROM cases WHERE id = $1 FOR SHARE`, ex.CaseID); err != nil {
		return err
	}
	if !owner.Status.AcceptsExhibits() {
		return ErrStaleState
	}
	if err = insertExhibitTx(ctx, tx, owner.LabNumber, 0, ex); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit exhibit registration: %w", err)
	}
	return nil
}

// insertExhibitTx numbers and inserts an exhibit. batchSize is the intake
// batch size, or 0 for a later addition.
func insertExhibitTx(ctx context.Context, tx *sqlx.Tx, labNumber string, batchSize int, ex *models.Exhibit) error {
	n, err := nextSequence(ctx, tx, identifier.ExhibitScope(labNumber))
	if err != nil {
		return err
	}
	number, err := identifier.ExhibitNumber(labNumber, n, batchSize)
	if err != nil {
		return err
	}
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	ex.ExhibitNumber = number
	const insertExhibit = `INSERT INTO exhibits (` + exhibitColumns + `)
	VALUES (:id, :case_id, :exhibit_number, :exhibit_type, :status, :device_name, :brand, :model, :serial_number,
	:imei, :mac_address, :storage_capacity, :description, :assigned_analyst_id, :current_location, :received_by,
	:received_at, :chain_of_custody, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertExhibit, ex); err != nil {
		return mapWriteError(err, "insert exhibit")
	}
	return nil
}

// FindByID fetches an exhibit with its validated ledger.
func (r *ExhibitRepository) FindByID(ctx context.Context, id string) (*models.Exhibit, error) {
	var ex models.Exhibit
	if err := r.db.GetContext(ctx, &ex, `SELECT `+exhibitColumns+` FROM exhibits WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &ex, nil
}

// ListByCase returns a case's exhibits in number order.
func (r *ExhibitRepository) ListByCase(ctx context.Context, caseID string) ([]models.Exhibit, error) {
	var exhibits []models.Exhibit
	query := `SELECT ` + exhibitColumns + ` FROM exhibits WHERE case_id = $1 ORDER BY created_at, exhibit_number`
	if err := r.db.SelectContext(ctx, &exhibits, query, caseID); err != nil {
		return nil, fmt.Errorf("list exhibits: %w", err)
	}
	return exhibits, nil
}

// AppendCustody applies a status/location/assignee change and appends its
// custody event in one statement. The update only matches while the exhibit
// still has the status and ledger length the caller read.
func (r *ExhibitRepository) AppendCustody(ctx context.Context, m models.CustodyMutation) error {
	event, err := json.Marshal(m.Event)
	if err != nil {
		return fmt.Errorf("encode custody event: %w", err)
	}
	const query = `UPDATE exhibits SET status = $1, current_location = $2, assigned_analyst_id = $3,
	chain_of_custody = chain_of_custody || jsonb_build_array($4::jsonb), updated_at = $5
	WHERE id = $6 AND status = $7 AND jsonb_array_length(chain_of_custody) = $8`
	res, err := r.db.ExecContext(ctx, query, m.Status, m.Location, m.AssignedAnalystID, string(event), m.UpdatedAt,
		m.ExhibitID, m.ExpectedStatus, m.ExpectedLength)
	if err != nil {
		return fmt.Errorf("append custody event: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check custody append rows: %w", err)
	}
	if rows > 0 {
		return nil
	}
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM exhibits WHERE id = $1)`, m.ExhibitID); err != nil {
		return fmt.Errorf("check exhibit exists: %w", err)
	}
	if !exists {
		return sql.ErrNoRows
	}
	return ErrStaleState
}

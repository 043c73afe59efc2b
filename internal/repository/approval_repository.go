package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
)

const approvalColumns = `id, case_id, approval_type, approval_status, submitted_by, approved_by, approved_at,
	comments, review_comments, created_at`

// ApprovalRepository persists approval requests.
type ApprovalRepository struct {
	db *sqlx.DB
}

// NewApprovalRepository constructs the repository.
func NewApprovalRepository(db *sqlx.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// Create inserts a pending approval. A second pending request for the same
// case and type hits uq_approvals_one_pending and returns ErrDuplicate.
func (r *ApprovalRepository) Create(ctx context.Context, a *models.Approval) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	const query = `INSERT INTO approvals (` + approvalColumns + `)
	VALUES (:id, :case_id, :approval_type, :approval_status, :submitted_by, :approved_by, :approved_at,
	:comments, :review_comments, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return mapWriteError(err, "create approval")
	}
	return nil
}

// FindByID fetches an approval.
func (r *ApprovalRepository) FindByID(ctx context.Context, id string) (*models.Approval, error) {
	var a models.Approval
	if err := r.db.GetContext(ctx, &a, `SELECT `+approvalColumns+` FROM approvals WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns approvals matching the filter, oldest pending first.
func (r *ApprovalRepository) List(ctx context.Context, filter models.ApprovalFilter) ([]models.Approval, int, error) {
	args := make([]interface{}, 0, 3)
	conditions := []string{"1=1"}
	if filter.CaseID != "" {
		args = append(args, filter.CaseID)
		conditions = append(conditions, fmt.Sprintf("case_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("approval_status = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("approval_type = $%d", len(args)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")
	page, size := models.Normalize(filter.Page, filter.PageSize, 50)
	query := fmt.Sprintf(`SELECT %s FROM approvals%s ORDER BY created_at ASC LIMIT %d OFFSET %d`,
		approvalColumns, where, size, (page-1)*size)

	var approvals []models.Approval
	if err := r.db.SelectContext(ctx, &approvals, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list approvals: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM approvals`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count approvals: %w", err)
	}
	return approvals, total, nil
}

// Resolve closes a pending approval and, when transition is non-nil, moves
// the case in the same transaction. ErrNotPending means another reviewer got
// there first; ErrStaleState means the case left transition.From.
func (r *ApprovalRepository) Resolve(ctx context.Context, res models.ApprovalResolution, transition *models.CaseTransition) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approval resolution: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var reviewComments *string
	if res.ReviewComments != "" {
		reviewComments = &res.ReviewComments
	}
	const resolveQuery = `UPDATE approvals SET approval_status = $1, approved_by = $2, approved_at = $3, review_comments = $4
	WHERE id = $5 AND approval_status = 'pending'`
	result, err := tx.ExecContext(ctx, resolveQuery, res.Status, res.ResolvedBy, res.ResolvedAt, reviewComments, res.ApprovalID)
	if err != nil {
		return fmt.Errorf("resolve approval: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check approval update rows: %w", err)
	}
	if rows == 0 {
		return ErrNotPending
	}

	if transition != nil {
		result, err = transitionCaseTx(ctx, tx, *transition)
		if err != nil {
			return err
		}
		rows, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("check case update rows: %w", err)
		}
		if rows == 0 {
			return ErrStaleState
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit approval resolution: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
)

const activityColumns = `id, user_id, subject_id, subject_type, activity_type, description, metadata, created_at`

// ActivityRepository persists the audit trail.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Insert appends one activity entry.
func (r *ActivityRepository) Insert(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if len(entry.Metadata) == 0 {
		entry.Metadata = json.RawMessage(`{}`)
	}
	const query = `INSERT INTO activity_log (` + activityColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)`
	_, err := r.db.ExecContext(ctx, query, entry.ID, entry.UserID, entry.SubjectID, entry.SubjectType,
		entry.ActivityType, entry.Description, string(entry.Metadata), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// List returns activity newest first. A SubjectID matches the subject itself
// and, for cases, entries whose metadata names the case.
func (r *ActivityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error) {
	args := make([]interface{}, 0, 5)
	conditions := []string{"1=1"}
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		conditions = append(conditions, fmt.Sprintf("(subject_id = $%d OR metadata->>'case_id' = $%d)", len(args), len(args)))
	}
	if filter.SubjectType != "" {
		args = append(args, filter.SubjectType)
		conditions = append(conditions, fmt.Sprintf("subject_type = $%d", len(args)))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.ActivityType != "" {
		args = append(args, filter.ActivityType)
		conditions = append(conditions, fmt.Sprintf("activity_type = $%d", len(args)))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")
	page, size := models.Normalize(filter.Page, filter.PageSize, 50)
	query := fmt.Sprintf(`SELECT %s FROM activity_log%s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		activityColumns, where, size, (page-1)*size)

	var entries []models.ActivityLog
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list activity: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM activity_log`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count activity: %w", err)
	}
	return entries, total, nil
}

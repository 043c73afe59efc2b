package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
)

func TestActivityRepositoryInsertDefaultsMetadata(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO activity_log")).
		WithArgs(sqlmock.AnyArg(), "u-1", "case-1", models.SubjectCase, models.ActivityCaseCreated, "Case registered", "{}", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &models.ActivityLog{UserID: "u-1", SubjectID: "case-1", SubjectType: models.SubjectCase, ActivityType: models.ActivityCaseCreated, Description: "Case registered", CreatedAt: time.Now()}
	require.NoError(t, repo.Insert(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryListBySubject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "subject_id", "subject_type", "activity_type", "description", "metadata", "created_at"}).
		AddRow("act-1", "u-1", "ex-1", "exhibit", "exhibit_assigned", "Exhibit assigned", []byte(`{"case_id":"case-1"}`), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, subject_id")).WithArgs("case-1").WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM activity_log")).WithArgs("case-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	entries, total, err := repo.List(context.Background(), models.ActivityFilter{SubjectID: "case-1"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.JSONEq(t, `{"case_id":"case-1"}`, string(entries[0].Metadata))
	require.NoError(t, mock.ExpectationsWereMet())
}

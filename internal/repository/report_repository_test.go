package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crm-dashboard-api/internal/models"
)

var reportColumnNames = []string{"id", "report_type", "role", "author_email", "author_name", "batch_id", "student_id", "case_id", "branch", "status", "created_at", "payload"}

func TestReportRepositoryCreateDefaultsPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	batch := "IELTS-B12"
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO dashboard_reports")).
		WithArgs("rep-1", "class", "Teacher", "t@x.com", "Tariq", batch, nil, nil, nil, "Pending", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	report := &models.Report{
		ID:          "rep-1",
		ReportType:  models.ReportTypeClass,
		Role:        "Teacher",
		AuthorEmail: "t@x.com",
		AuthorName:  "Tariq",
		BatchID:     &batch,
		Payload:     models.ReportPayload{"present": 18},
	}
	require.NoError(t, repo.Create(context.Background(), report))
	assert.Equal(t, models.ReportStatusPending, report.Status)
	assert.False(t, report.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows(reportColumnNames).
		AddRow("rep-1", "class", "Teacher", "t@x.com", "Tariq", "B12", nil, nil, nil, "Pending", time.Now(), []byte(`{"present":18}`))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, report_type, role, author_email, author_name, batch_id, student_id, case_id, branch, status, created_at, payload FROM dashboard_reports WHERE id = $1")).
		WithArgs("rep-1").
		WillReturnRows(rows)

	report, err := repo.GetByID(context.Background(), "rep-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportTypeClass, report.ReportType)
	assert.EqualValues(t, 18, report.Payload["present"])
	assert.Equal(t, "B12", *report.BatchID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery("FROM dashboard_reports WHERE id").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReportRepositoryListRecentForAuthor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	email := "t@x.com"
	rows := sqlmock.NewRows(reportColumnNames).
		AddRow("rep-2", "class", "Teacher", email, "Tariq", nil, nil, nil, nil, "Approved", time.Now(), []byte(`{}`)).
		AddRow("rep-1", "class", "Teacher", email, "Tariq", nil, nil, nil, nil, "Pending", time.Now().Add(-time.Hour), []byte(`{}`))
	mock.ExpectQuery(regexp.QuoteMeta("FROM dashboard_reports WHERE author_email = $1 ORDER BY created_at DESC LIMIT $2")).
		WithArgs(email, 200).
		WillReturnRows(rows)

	reports, err := repo.ListRecent(context.Background(), models.ReportListFilter{AuthorEmail: &email})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "rep-2", reports[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListRecentAll(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM dashboard_reports ORDER BY created_at DESC LIMIT $1")).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows(reportColumnNames))

	reports, err := repo.ListRecent(context.Background(), models.ReportListFilter{Limit: 50})
	require.NoError(t, err)
	assert.NotNil(t, reports)
	assert.Empty(t, reports)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateStatusIfPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE dashboard_reports SET status = $1 WHERE id = $2 AND status = $3")).
		WithArgs(models.ReportStatusApproved, "rep-1", models.ReportStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE dashboard_reports SET status = $1 WHERE id = $2 AND status = $3")).
		WithArgs(models.ReportStatusRejected, "rep-1", models.ReportStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.UpdateStatusIfPending(context.Background(), "rep-1", models.ReportStatusApproved)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.UpdateStatusIfPending(context.Background(), "rep-1", models.ReportStatusRejected)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryAppendFilesIfPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	query := regexp.QuoteMeta(`UPDATE dashboard_reports
SET payload = jsonb_set(COALESCE(payload, '{}'::jsonb), '{files}', COALESCE(payload->'files', '[]'::jsonb) || $1::jsonb)
WHERE id = $2 AND status = $3`)
	files := []models.Attachment{{Path: "p", URL: "u", Name: "n"}}

	mock.ExpectExec(query).
		WithArgs(`[{"path":"p","url":"u","name":"n"}]`, "rep-1", models.ReportStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).
		WithArgs(sqlmock.AnyArg(), "rep-2", models.ReportStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.AppendFilesIfPending(context.Background(), "rep-1", files)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.AppendFilesIfPending(context.Background(), "rep-2", files)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crm-dashboard-api/internal/models"
)

func TestAggregateCountCasesByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAggregateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM dashboard_cases WHERE status = $1 AND branch = $2")).
		WithArgs(models.CaseStatusInProgress, "Lahore").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM dashboard_cases WHERE status = $1")+"$").
		WithArgs(models.CaseStatusInProgress).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(19))

	branch := "Lahore"
	total, err := repo.CountCasesByStatus(context.Background(), models.CaseStatusInProgress, &branch)
	require.NoError(t, err)
	assert.Equal(t, 7, total)

	total, err = repo.CountCasesByStatus(context.Background(), models.CaseStatusInProgress, nil)
	require.NoError(t, err)
	assert.Equal(t, 19, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateCountDistinctAssignedTeachers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAggregateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT teacher_id) FROM dashboard_teacher_assignments")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	total, err := repo.CountDistinctAssignedTeachers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateCountAttendanceSince(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAggregateRepository(db)

	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM dashboard_attendance WHERE created_at >= $1")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(120))

	total, err := repo.CountAttendanceSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, 120, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateListVouchersByBranch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAggregateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM vouchers WHERE branch = $1")).
		WithArgs("Lahore").
		WillReturnRows(sqlmock.NewRows([]string{"amount", "vtype"}).AddRow(100.0, "cash_in").AddRow(40.0, "cash_out"))

	vouchers, err := repo.ListVouchersByBranch(context.Background(), "Lahore")
	require.NoError(t, err)
	require.Len(t, vouchers, 2)
	assert.Equal(t, 60.0, models.NetVoucherTotal(vouchers))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateFindTeacherIDByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAggregateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM dashboard_teachers WHERE lower(email) = lower($1) LIMIT 1")).
		WithArgs("t@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("tch-1"))
	mock.ExpectQuery("FROM dashboard_teachers").
		WithArgs("nobody@x.com").
		WillReturnError(sql.ErrNoRows)

	id, err := repo.FindTeacherIDByEmail(context.Background(), "t@x.com")
	require.NoError(t, err)
	assert.Equal(t, "tch-1", id)

	_, err = repo.FindTeacherIDByEmail(context.Background(), "nobody@x.com")
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateCountWrapsErrors(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAggregateRepository(db)

	boom := errors.New("timeout")
	mock.ExpectQuery("FROM dashboard_students").WillReturnError(boom)

	_, err := repo.CountStudents(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "count students")
}

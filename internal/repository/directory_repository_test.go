package repository

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryListStudentsForTeacher(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDirectoryRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "batch"}).
		AddRow("s-1", "Ali", "B12").
		AddRow("s-2", "Sara", nil)
	mock.ExpectQuery("FROM dashboard_teacher_student ts").
		WithArgs("t@x.com").
		WillReturnRows(rows)

	students, err := repo.ListStudentsForTeacher(context.Background(), "t@x.com")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "B12", *students[0].Batch)
	assert.Nil(t, students[1].Batch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectoryListCasesForAssignee(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDirectoryRepository(db)

	mock.ExpectQuery("FROM dashboard_cases").
		WithArgs("c@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_name", "status", "branch"}).AddRow("case-1", "Ali", "In Progress", "Lahore"))

	cases, err := repo.ListCasesForAssignee(context.Background(), "c@x.com")
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "case-1", cases[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectoryListCasesError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDirectoryRepository(db)

	mock.ExpectQuery("FROM dashboard_cases").WillReturnError(errors.New("boom"))

	_, err := repo.ListCasesForAssignee(context.Background(), "c@x.com")
	assert.Error(t, err)
}

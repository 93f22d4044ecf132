package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/crm-dashboard-api/internal/models"
)

// DirectoryRepository reads the student and case directories that populate form selects.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository constructs the repository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// ListStudentsForTeacher returns students linked to the teacher whose email matches.
func (r *DirectoryRepository) ListStudentsForTeacher(ctx context.Context, teacherEmail string) ([]models.StudentOption, error) {
	const query = `SELECT s.id, s.name, s.batch
FROM dashboard_teacher_student ts
JOIN dashboard_students s ON s.id = ts.student_id
JOIN dashboard_teachers t ON t.id = ts.teacher_id
WHERE lower(t.email) = lower($1)
ORDER BY s.name ASC`
	students := make([]models.StudentOption, 0)
	if err := r.db.SelectContext(ctx, &students, query, teacherEmail); err != nil {
		return nil, fmt.Errorf("list students for teacher: %w", err)
	}
	return students, nil
}

// ListCasesForAssignee returns cases assigned to the counselor email.
func (r *DirectoryRepository) ListCasesForAssignee(ctx context.Context, email string) ([]models.CaseOption, error) {
	const query = `SELECT id, COALESCE(student_name, '') AS student_name, COALESCE(status, '') AS status, branch
FROM dashboard_cases
WHERE assigned_email = $1
ORDER BY student_name ASC`
	cases := make([]models.CaseOption, 0)
	if err := r.db.SelectContext(ctx, &cases, query, email); err != nil {
		return nil, fmt.Errorf("list cases for assignee: %w", err)
	}
	return cases, nil
}

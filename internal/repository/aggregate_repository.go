package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/crm-dashboard-api/internal/models"
)

// AggregateRepository issues the independent read-only counts behind the dashboard.
type AggregateRepository struct {
	db *sqlx.DB
}

// NewAggregateRepository constructs the repository.
func NewAggregateRepository(db *sqlx.DB) *AggregateRepository {
	return &AggregateRepository{db: db}
}

// CountStudents counts every student. Students carry no branch.
func (r *AggregateRepository) CountStudents(ctx context.Context) (int, error) {
	return r.count(ctx, "count students", `SELECT COUNT(*) FROM dashboard_students`)
}

// CountCasesByStatus counts cases in status, restricted to branch when given.
func (r *AggregateRepository) CountCasesByStatus(ctx context.Context, status string, branch *string) (int, error) {
	query := `SELECT COUNT(*) FROM dashboard_cases WHERE status = $1`
	args := []interface{}{status}
	if branch != nil {
		args = append(args, *branch)
		query += fmt.Sprintf(" AND branch = $%d", len(args))
	}
	return r.count(ctx, "count cases by status", query, args...)
}

// CountDistinctAssignedTeachers counts teachers referenced by at least one assignment.
func (r *AggregateRepository) CountDistinctAssignedTeachers(ctx context.Context) (int, error) {
	return r.count(ctx, "count assigned teachers", `SELECT COUNT(DISTINCT teacher_id) FROM dashboard_teacher_assignments`)
}

// CountAttendanceSince counts attendance rows created at or after since.
func (r *AggregateRepository) CountAttendanceSince(ctx context.Context, since time.Time) (int, error) {
	return r.count(ctx, "count recent attendance", `SELECT COUNT(*) FROM dashboard_attendance WHERE created_at >= $1`, since)
}

// ListVouchersByBranch returns the amount and type of every voucher of a branch.
func (r *AggregateRepository) ListVouchersByBranch(ctx context.Context, branch string) ([]models.Voucher, error) {
	const query = `SELECT amount, COALESCE(vtype, '') AS vtype FROM vouchers WHERE branch = $1`
	vouchers := make([]models.Voucher, 0)
	if err := r.db.SelectContext(ctx, &vouchers, query, branch); err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}
	return vouchers, nil
}

// CountCasesByAssignee counts cases attributed to an employee email.
func (r *AggregateRepository) CountCasesByAssignee(ctx context.Context, email string) (int, error) {
	return r.count(ctx, "count cases by assignee", `SELECT COUNT(*) FROM dashboard_cases WHERE assigned_email = $1`, email)
}

// FindTeacherIDByEmail returns the teacher id matching email or sql.ErrNoRows.
func (r *AggregateRepository) FindTeacherIDByEmail(ctx context.Context, email string) (string, error) {
	const query = `SELECT id FROM dashboard_teachers WHERE lower(email) = lower($1) LIMIT 1`
	var id string
	if err := r.db.GetContext(ctx, &id, query, email); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("find teacher by email: %w", err)
	}
	return id, nil
}

// CountAttendanceByTeacher counts attendance rows recorded for a teacher.
func (r *AggregateRepository) CountAttendanceByTeacher(ctx context.Context, teacherID string) (int, error) {
	return r.count(ctx, "count attendance by teacher", `SELECT COUNT(*) FROM dashboard_attendance WHERE teacher_id = $1`, teacherID)
}

func (r *AggregateRepository) count(ctx context.Context, op, query string, args ...interface{}) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/crm-dashboard-api/internal/models"
)

const reportColumns = `id, report_type, role, author_email, author_name, batch_id, student_id, case_id, branch, status, created_at, payload`

// ReportRepository persists dashboard_reports rows.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a report. The id is normally assigned by the caller before uploads start.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.Status == "" {
		report.Status = models.ReportStatusPending
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	if report.Payload == nil {
		report.Payload = models.ReportPayload{}
	}
	const query = `INSERT INTO dashboard_reports (` + reportColumns + `)
VALUES (:id, :report_type, :role, :author_email, :author_name, :batch_id, :student_id, :case_id, :branch, :status, :created_at, :payload)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// GetByID returns a report by its identifier.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	const query = `SELECT ` + reportColumns + ` FROM dashboard_reports WHERE id = $1`
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &report, nil
}

// ListRecent returns the newest reports, optionally restricted to one author.
func (r *ReportRepository) ListRecent(ctx context.Context, filter models.ReportListFilter) ([]models.Report, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	query := `SELECT ` + reportColumns + ` FROM dashboard_reports`
	args := make([]interface{}, 0, 2)
	if filter.AuthorEmail != nil {
		args = append(args, *filter.AuthorEmail)
		query += fmt.Sprintf(" WHERE author_email = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	reports := make([]models.Report, 0)
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// UpdateStatusIfPending moves a Pending report to status. It reports false when the row
// was missing or no longer Pending, in which case nothing was written.
func (r *ReportRepository) UpdateStatusIfPending(ctx context.Context, id string, status models.ReportStatus) (bool, error) {
	const query = `UPDATE dashboard_reports SET status = $1 WHERE id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, status, id, models.ReportStatusPending)
	if err != nil {
		return false, fmt.Errorf("update report status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update report status rows: %w", err)
	}
	return affected > 0, nil
}

// AppendFilesIfPending appends files to payload.files in a single statement, guarded on the
// report still being Pending. It reports false when nothing was written.
func (r *ReportRepository) AppendFilesIfPending(ctx context.Context, id string, files []models.Attachment) (bool, error) {
	const query = `UPDATE dashboard_reports
SET payload = jsonb_set(COALESCE(payload, '{}'::jsonb), '{files}', COALESCE(payload->'files', '[]'::jsonb) || $1::jsonb)
WHERE id = $2 AND status = $3`
	encoded, err := json.Marshal(files)
	if err != nil {
		return false, fmt.Errorf("encode report files: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, string(encoded), id, models.ReportStatusPending)
	if err != nil {
		return false, fmt.Errorf("append report files: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append report files rows: %w", err)
	}
	return affected > 0, nil
}

// CountByAuthor counts reports written by email.
func (r *ReportRepository) CountByAuthor(ctx context.Context, email string) (int, error) {
	const query = `SELECT COUNT(*) FROM dashboard_reports WHERE author_email = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, email); err != nil {
		return 0, fmt.Errorf("count reports by author: %w", err)
	}
	return count, nil
}

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/crm-dashboard-api/internal/dto"
	"github.com/noah-isme/crm-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/crm-dashboard-api/pkg/errors"
	"github.com/noah-isme/crm-dashboard-api/pkg/middleware/requestid"
	"github.com/noah-isme/crm-dashboard-api/pkg/export"
)

type reportStore interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	ListRecent(ctx context.Context, filter models.ReportListFilter) ([]models.Report, error)
	UpdateStatusIfPending(ctx context.Context, id string, status models.ReportStatus) (bool, error)
	AppendFilesIfPending(ctx context.Context, id string, files []models.Attachment) (bool, error)
}

type attachmentUploader interface {
	Upload(ctx context.Context, files []FileUpload, reportID, authorEmail string) []AttachmentResult
}

type formDirectory interface {
	ListStudentsForTeacher(ctx context.Context, teacherEmail string) ([]models.StudentOption, error)
	ListCasesForAssignee(ctx context.Context, email string) ([]models.CaseOption, error)
}

// ReportServiceConfig tunes history and export behaviour.
type ReportServiceConfig struct {
	HistoryLimit  int
	ExportFormat  export.Format
	ExportTitle   string
	DetailsMaxLen int
}

// ExportFile is a rendered history export ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportService implements submission, history, moderation and export of dashboard reports.
type ReportService struct {
	repo      reportStore
	uploader  attachmentUploader
	directory formDirectory
	renderers map[export.Format]export.Renderer
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ReportServiceConfig
	newID     func() string
}

// NewReportService constructs the report service.
func NewReportService(repo reportStore, uploader attachmentUploader, directory formDirectory, renderers []export.Renderer, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 200
	}
	if cfg.ExportFormat == "" {
		cfg.ExportFormat = export.FormatXLSX
	}
	if cfg.ExportTitle == "" {
		cfg.ExportTitle = "Reports"
	}
	if cfg.DetailsMaxLen <= 0 {
		cfg.DetailsMaxLen = 500
	}
	byFormat := make(map[export.Format]export.Renderer, len(renderers))
	for _, r := range renderers {
		byFormat[r.Format()] = r
	}
	return &ReportService{
		repo:      repo,
		uploader:  uploader,
		directory: directory,
		renderers: byFormat,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		newID:     uuid.NewString,
	}
}

// AvailableForms lists the report types a role may submit.
func AvailableForms(role models.Role) []models.ReportType {
	switch role {
	case models.RoleTeacher:
		return []models.ReportType{models.ReportTypeClass, models.ReportTypeStudentPerformance}
	case models.RoleCounselor:
		return []models.ReportType{models.ReportTypeCaseProgress}
	default:
		return []models.ReportType{}
	}
}

func canSubmit(role models.Role, reportType models.ReportType) bool {
	for _, t := range AvailableForms(role) {
		if t == reportType {
			return true
		}
	}
	return false
}

// Submit validates the form, uploads its files under a freshly assigned report id and then
// inserts the report once with the successful uploads in payload.files.
func (s *ReportService) Submit(ctx context.Context, principal models.Principal, form dto.ReportForm, files []FileUpload) (*dto.SubmitResponse, error) {
	if principal.Email == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if form == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "report form is required")
	}
	reportType := form.ReportType()
	if !canSubmit(principal.Role, reportType) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %s cannot submit %s reports", principal.Role, reportType))
	}
	if err := s.validator.Struct(form); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err)).WithDetails(invalidFields(err)...)
	}

	reportID := s.newID()
	results := s.uploader.Upload(ctx, files, reportID, principal.Email)
	stored := Succeeded(results)

	linkage := form.Linkage()
	report := &models.Report{
		ID:          reportID,
		ReportType:  reportType,
		Role:        principal.Role.Label(),
		AuthorEmail: principal.Email,
		AuthorName:  principal.DisplayName,
		BatchID:     linkage.BatchID,
		StudentID:   linkage.StudentID,
		CaseID:      linkage.CaseID,
		Branch:      linkage.Branch,
		Status:      models.ReportStatusPending,
		Payload:     form.Payload().WithFiles(stored),
	}

	if err := s.repo.Create(ctx, report); err != nil {
		s.metrics.RecordReportSubmission(string(reportType), false)
		fields := []zap.Field{
			zap.String("report_id", reportID),
			zap.String("report_type", string(reportType)),
			zap.String("author", principal.Email),
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Error(err),
		}
		if len(stored) > 0 {
			fields = append(fields, zap.Strings("orphaned_paths", attachmentPaths(stored)))
		}
		s.logger.Error("report insert failed", fields...)
		return nil, appErrors.Wrap(err, appErrors.ErrSubmissionFailed.Code, appErrors.ErrSubmissionFailed.Status, appErrors.ErrSubmissionFailed.Message)
	}

	s.metrics.RecordReportSubmission(string(reportType), true)
	s.logger.Info("report submitted",
		zap.String("report_id", reportID),
		zap.String("report_type", string(reportType)),
		zap.Int("attachments", len(stored)),
		zap.Int("attachment_failures", len(results)-len(stored)),
	)

	return &dto.SubmitResponse{Report: *report, Attachments: outcomes(results)}, nil
}

// AttachFiles lets the author of a Pending report add attachments after submission.
// Files are appended to payload.files only if the report is still Pending when the write lands;
// a report whose uploads all failed is left untouched.
func (s *ReportService) AttachFiles(ctx context.Context, principal models.Principal, reportID string, files []FileUpload) (*dto.SubmitResponse, error) {
	if principal.Email == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one file is required")
	}

	report, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	if !strings.EqualFold(report.AuthorEmail, principal.Email) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author can attach files")
	}
	if report.Status != models.ReportStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attachments can only be added while the report is pending")
	}

	results := s.uploader.Upload(ctx, files, report.ID, report.AuthorEmail)
	stored := Succeeded(results)
	if len(stored) == 0 {
		return &dto.SubmitResponse{Report: *report, Attachments: outcomes(results)}, nil
	}

	appended, err := s.repo.AppendFilesIfPending(ctx, report.ID, stored)
	if err != nil {
		s.logger.Error("report attachment update failed",
			zap.String("report_id", report.ID),
			zap.Strings("orphaned_paths", attachmentPaths(stored)),
			zap.Error(err),
		)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach files")
	}
	if !appended {
		s.logger.Warn("report left pending during attachment upload",
			zap.String("report_id", report.ID),
			zap.Strings("orphaned_paths", attachmentPaths(stored)),
		)
		return nil, appErrors.Clone(appErrors.ErrConflict, "attachments can only be added while the report is pending")
	}

	if fresh, err := s.repo.GetByID(ctx, report.ID); err == nil {
		report = fresh
	} else {
		report.Payload = report.Payload.WithFiles(stored)
	}

	return &dto.SubmitResponse{Report: *report, Attachments: outcomes(results)}, nil
}

// History loads the newest reports visible to principal and applies the table filters.
// Read failures degrade to an empty table.
func (s *ReportService) History(ctx context.Context, principal models.Principal, query dto.HistoryQuery) dto.HistoryResponse {
	privileged := principal.Role.IsPrivileged()
	resp := dto.HistoryResponse{
		Reports:     []models.Report{},
		Types:       []string{},
		Statuses:    historyStatuses(),
		CanModerate: privileged,
	}

	filter := models.ReportListFilter{Limit: s.cfg.HistoryLimit}
	if !privileged || strings.EqualFold(query.Scope, "self") {
		if principal.Email == "" {
			return resp
		}
		email := principal.Email
		filter.AuthorEmail = &email
	}

	rows, err := s.repo.ListRecent(ctx, filter)
	if err != nil {
		s.logger.Error("report history read failed", zap.String("email", principal.Email), zap.Error(err))
		return resp
	}

	resp.Loaded = len(rows)
	resp.Types = DistinctTypes(rows)
	resp.Reports = FilterReports(rows, ReportFilter{Search: query.Search, Status: query.Status, Type: query.Type})
	return resp
}

// Moderate moves a Pending report to Approved or Rejected. Reports already moderated are
// returned unchanged with Changed false.
func (s *ReportService) Moderate(ctx context.Context, principal models.Principal, reportID string, target models.ReportStatus) (*dto.ModerateResponse, error) {
	if !principal.Role.IsPrivileged() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can moderate reports")
	}
	if target != models.ReportStatusApproved && target != models.ReportStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be Approved or Rejected")
	}

	changed, err := s.repo.UpdateStatusIfPending(ctx, reportID, target)
	if err != nil {
		s.logger.Error("report moderation failed", zap.String("report_id", reportID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report status")
	}

	report, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}

	s.metrics.RecordModeration(string(target), changed)
	s.logger.Info("report moderated",
		zap.String("report_id", reportID),
		zap.String("target", string(target)),
		zap.Bool("changed", changed),
		zap.String("moderator", principal.Email),
	)

	return &dto.ModerateResponse{Report: *report, Changed: changed}, nil
}

// FormOptions returns the forms and select options available to a teacher or counselor.
func (s *ReportService) FormOptions(ctx context.Context, principal models.Principal) (*dto.FormOptionsResponse, error) {
	forms := AvailableForms(principal.Role)
	if len(forms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no report forms for this role")
	}

	resp := &dto.FormOptionsResponse{Forms: forms, Options: copyOptionSets()}
	switch principal.Role {
	case models.RoleTeacher:
		students, err := s.directory.ListStudentsForTeacher(ctx, principal.Email)
		if err != nil {
			s.logger.Warn("student options unavailable", zap.String("email", principal.Email), zap.Error(err))
			students = []models.StudentOption{}
		}
		resp.Students = students
	case models.RoleCounselor:
		cases, err := s.directory.ListCasesForAssignee(ctx, principal.Email)
		if err != nil {
			s.logger.Warn("case options unavailable", zap.String("email", principal.Email), zap.Error(err))
			cases = []models.CaseOption{}
		}
		resp.Cases = cases
	}
	return resp, nil
}

// Export renders the filtered history in the requested format.
func (s *ReportService) Export(ctx context.Context, principal models.Principal, query dto.HistoryQuery, format, filename string) (*ExportFile, error) {
	f, err := export.ParseFormat(format, s.cfg.ExportFormat)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	renderer, ok := s.renderers[f]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("export format %s is not available", f))
	}

	history := s.History(ctx, principal, query)
	data, err := renderer.Render(s.dataset(history.Reports))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportFile{
		Filename:    export.Filename(filename, f),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

var exportHeaders = []string{"Created At", "Type", "Author", "Email", "Role", "Status", "Batch", "Student", "Case", "Branch", "Attachments", "Details"}

func (s *ReportService) dataset(reports []models.Report) export.Dataset {
	rows := make([]map[string]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, map[string]string{
			"Created At":  r.CreatedAt.UTC().Format(time.RFC3339),
			"Type":        string(r.ReportType),
			"Author":      r.AuthorName,
			"Email":       r.AuthorEmail,
			"Role":        r.Role,
			"Status":      string(r.Status),
			"Batch":       deref(r.BatchID),
			"Student":     deref(r.StudentID),
			"Case":        deref(r.CaseID),
			"Branch":      deref(r.Branch),
			"Attachments": strconv.Itoa(len(r.Payload.Files())),
			"Details":     s.details(r.Payload),
		})
	}
	return export.Dataset{Title: s.cfg.ExportTitle, Headers: exportHeaders, Rows: rows}
}

func (s *ReportService) details(payload models.ReportPayload) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		if k == models.PayloadFilesKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		var value string
		switch v := payload[k].(type) {
		case string:
			value = v
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				continue
			}
			value = string(raw)
		}
		parts = append(parts, k+": "+value)
	}
	out := strings.Join(parts, "; ")
	if utf8.RuneCountInString(out) > s.cfg.DetailsMaxLen {
		out = string([]rune(out)[:s.cfg.DetailsMaxLen]) + "..."
	}
	return out
}

func historyStatuses() []string {
	return []string{
		models.FilterAll,
		string(models.ReportStatusPending),
		string(models.ReportStatusApproved),
		string(models.ReportStatusRejected),
	}
}

func copyOptionSets() map[string][]string {
	out := make(map[string][]string, len(dto.FormOptionSets))
	for k, v := range dto.FormOptionSets {
		out[k] = append([]string{}, v...)
	}
	return out
}

func outcomes(results []AttachmentResult) []dto.AttachmentOutcome {
	out := make([]dto.AttachmentOutcome, 0, len(results))
	for _, r := range results {
		o := dto.AttachmentOutcome{Name: r.Name, Attachment: r.Attachment}
		if r.Err != nil {
			o.Attachment = nil
			o.Error = appErrors.FromError(r.Err).Message
		}
		out = append(out, o)
	}
	return out
}

func attachmentPaths(files []models.Attachment) []string {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	return paths
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

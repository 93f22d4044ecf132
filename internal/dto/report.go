package dto

import (
	"strings"

	"github.com/noah-isme/crm-dashboard-api/internal/models"
)

// PlaceholderOption is the unselected value of every select input.
const PlaceholderOption = "Select"

// FormOptionSets lists the allowed values per select input, keyed by the `option` tag param.
var FormOptionSets = map[string][]string{
	"progress": {"Excellent", "Good", "Average", "Poor"},
	"rating":   {"Excellent", "Good", "Average", "Needs Improvement"},
	"stage":    {"Initial", "Documentation", "Application", "Visa", "Closed"},
}

// ReportForm is implemented by every submission form.
type ReportForm interface {
	ReportType() models.ReportType
	Linkage() ReportLinkage
	Payload() models.ReportPayload
}

// ReportLinkage carries the optional foreign references stored in their own columns.
type ReportLinkage struct {
	BatchID   *string
	StudentID *string
	CaseID    *string
	Branch    *string
}

// ClassReportForm is the teacher's per-class session report.
type ClassReportForm struct {
	Date     string `json:"date" form:"date" validate:"required,datetime=2006-01-02"`
	Batch    string `json:"batch" form:"batch" validate:"required,notblank"`
	Topics   string `json:"topics" form:"topics" validate:"required,notblank"`
	Present  int    `json:"present" form:"present" validate:"min=0"`
	Absent   int    `json:"absent" form:"absent" validate:"min=0"`
	Progress string `json:"progress" form:"progress" validate:"selected,option=progress"`
	Notes    string `json:"notes" form:"notes"`
	Branch   string `json:"branch" form:"branch"`
}

func (f ClassReportForm) ReportType() models.ReportType { return models.ReportTypeClass }

func (f ClassReportForm) Linkage() ReportLinkage {
	return ReportLinkage{BatchID: optional(f.Batch), Branch: optional(f.Branch)}
}

func (f ClassReportForm) Payload() models.ReportPayload {
	p := models.ReportPayload{
		"date":     f.Date,
		"batch":    strings.TrimSpace(f.Batch),
		"topics":   strings.TrimSpace(f.Topics),
		"present":  f.Present,
		"absent":   f.Absent,
		"progress": f.Progress,
	}
	setOptional(p, "notes", f.Notes)
	return p
}

// StudentPerformanceForm is the teacher's assessment of one student.
type StudentPerformanceForm struct {
	StudentID    string `json:"student_id" form:"student_id" validate:"required,notblank"`
	StudentName  string `json:"student_name" form:"student_name"`
	Batch        string `json:"batch" form:"batch" validate:"required,notblank"`
	Rating       string `json:"rating" form:"rating" validate:"selected,option=rating"`
	Strengths    string `json:"strengths" form:"strengths" validate:"required,notblank"`
	Improvements string `json:"improvements" form:"improvements" validate:"required,notblank"`
	Remarks      string `json:"remarks" form:"remarks"`
	Branch       string `json:"branch" form:"branch"`
}

func (f StudentPerformanceForm) ReportType() models.ReportType {
	return models.ReportTypeStudentPerformance
}

func (f StudentPerformanceForm) Linkage() ReportLinkage {
	return ReportLinkage{
		BatchID:   optional(f.Batch),
		StudentID: optional(f.StudentID),
		Branch:    optional(f.Branch),
	}
}

func (f StudentPerformanceForm) Payload() models.ReportPayload {
	p := models.ReportPayload{
		"student_id":   strings.TrimSpace(f.StudentID),
		"batch":        strings.TrimSpace(f.Batch),
		"rating":       f.Rating,
		"strengths":    strings.TrimSpace(f.Strengths),
		"improvements": strings.TrimSpace(f.Improvements),
	}
	setOptional(p, "student_name", f.StudentName)
	setOptional(p, "remarks", f.Remarks)
	return p
}

// CaseProgressForm is the counselor's update on one case.
type CaseProgressForm struct {
	CaseID       string `json:"case_id" form:"case_id" validate:"required,notblank"`
	Stage        string `json:"stage" form:"stage" validate:"selected,option=stage"`
	Update       string `json:"update" form:"update" validate:"required,notblank"`
	NextSteps    string `json:"next_steps" form:"next_steps"`
	FollowUpDate string `json:"follow_up_date" form:"follow_up_date" validate:"omitempty,datetime=2006-01-02"`
	Branch       string `json:"branch" form:"branch"`
}

func (f CaseProgressForm) ReportType() models.ReportType { return models.ReportTypeCaseProgress }

func (f CaseProgressForm) Linkage() ReportLinkage {
	return ReportLinkage{CaseID: optional(f.CaseID), Branch: optional(f.Branch)}
}

func (f CaseProgressForm) Payload() models.ReportPayload {
	p := models.ReportPayload{
		"case_id": strings.TrimSpace(f.CaseID),
		"stage":   f.Stage,
		"update":  strings.TrimSpace(f.Update),
	}
	setOptional(p, "next_steps", f.NextSteps)
	setOptional(p, "follow_up_date", f.FollowUpDate)
	return p
}

// HistoryQuery captures GET /reports query parameters.
type HistoryQuery struct {
	Scope  string `form:"scope"`
	Search string `form:"q"`
	Status string `form:"status"`
	Type   string `form:"type"`
}

// HistoryResponse is the filtered table plus the options for its selects.
type HistoryResponse struct {
	Reports     []models.Report `json:"reports"`
	Loaded      int             `json:"loaded"`
	Types       []string        `json:"types"`
	Statuses    []string        `json:"statuses"`
	CanModerate bool            `json:"can_moderate"`
}

// ModerateRequest is the body of PATCH /reports/:id/status.
type ModerateRequest struct {
	Status models.ReportStatus `json:"status" binding:"required"`
}

// ModerateResponse reports the row after moderation and whether a write happened.
type ModerateResponse struct {
	Report  models.Report `json:"report"`
	Changed bool          `json:"changed"`
}

// AttachmentOutcome is the per-file upload result returned to the client.
type AttachmentOutcome struct {
	Name       string             `json:"name"`
	Attachment *models.Attachment `json:"attachment,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// SubmitResponse is returned after a report submission or attachment amendment.
type SubmitResponse struct {
	Report      models.Report       `json:"report"`
	Attachments []AttachmentOutcome `json:"attachments"`
}

// FormOptionsResponse feeds the select inputs of the caller's forms.
type FormOptionsResponse struct {
	Forms    []models.ReportType    `json:"forms"`
	Options  map[string][]string    `json:"options"`
	Students []models.StudentOption `json:"students,omitempty"`
	Cases    []models.CaseOption    `json:"cases,omitempty"`
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func setOptional(p models.ReportPayload, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		p[key] = value
	}
}

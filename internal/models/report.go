package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportType enumerates the kinds of report a form can submit.
type ReportType string

const (
	ReportTypeClass              ReportType = "class"
	ReportTypeStudentPerformance ReportType = "student_performance"
	ReportTypeCaseProgress       ReportType = "case_progress"
	ReportTypeOther              ReportType = "other"
)

// Valid reports whether t is one of the known report types.
func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeClass, ReportTypeStudentPerformance, ReportTypeCaseProgress, ReportTypeOther:
		return true
	default:
		return false
	}
}

// ReportStatus is the moderation state of a report.
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "Pending"
	ReportStatusApproved ReportStatus = "Approved"
	ReportStatusRejected ReportStatus = "Rejected"
)

// Valid reports whether s is one of the three stored states.
func (s ReportStatus) Valid() bool {
	return s == ReportStatusPending || s == ReportStatusApproved || s == ReportStatusRejected
}

// FilterAll is the sentinel for "no filter" in history status/type selects.
const FilterAll = "All"

// Report is a row of dashboard_reports.
type Report struct {
	ID          string        `db:"id" json:"id"`
	ReportType  ReportType    `db:"report_type" json:"report_type"`
	Role        string        `db:"role" json:"role"`
	AuthorEmail string        `db:"author_email" json:"author_email"`
	AuthorName  string        `db:"author_name" json:"author_name"`
	BatchID     *string       `db:"batch_id" json:"batch_id,omitempty"`
	StudentID   *string       `db:"student_id" json:"student_id,omitempty"`
	CaseID      *string       `db:"case_id" json:"case_id,omitempty"`
	Branch      *string       `db:"branch" json:"branch,omitempty"`
	Status      ReportStatus  `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	Payload     ReportPayload `db:"payload" json:"payload"`
}

// Attachment is a stored file owned by a report through payload.files.
type Attachment struct {
	Path string `json:"path"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

// PayloadFilesKey is the payload key holding the attachment list.
const PayloadFilesKey = "files"

// ReportPayload is the type-specific body of a report, persisted as JSONB.
type ReportPayload map[string]interface{}

// Value marshals the payload for persistence.
func (p ReportPayload) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(map[string]interface{}(p))
	if err != nil {
		return nil, fmt.Errorf("marshal report payload: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB column into the payload.
func (p *ReportPayload) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*p = ReportPayload{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ReportPayload", value)
	}
	if len(data) == 0 {
		*p = ReportPayload{}
		return nil
	}
	out := ReportPayload{}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal report payload: %w", err)
	}
	*p = out
	return nil
}

// Files decodes the attachment list, tolerating payloads written by older clients.
func (p ReportPayload) Files() []Attachment {
	raw, ok := p[PayloadFilesKey]
	if !ok || raw == nil {
		return nil
	}
	if files, ok := raw.([]Attachment); ok {
		return files
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var files []Attachment
	if err := json.Unmarshal(data, &files); err != nil {
		return nil
	}
	return files
}

// WithFiles returns a copy of the payload with files appended to the existing list.
// The files key is left absent when the merged list is empty.
func (p ReportPayload) WithFiles(files []Attachment) ReportPayload {
	out := make(ReportPayload, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	merged := append(append([]Attachment{}, p.Files()...), files...)
	if len(merged) == 0 {
		delete(out, PayloadFilesKey)
		return out
	}
	out[PayloadFilesKey] = merged
	return out
}

// ReportListFilter narrows the history query issued to the store.
type ReportListFilter struct {
	AuthorEmail *string
	Limit       int
}

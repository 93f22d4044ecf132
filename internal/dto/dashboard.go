package dto

import "github.com/noah-isme/crm-dashboard-api/internal/models"

// ViewResponse is what the role dispatcher renders for the resolved principal.
type ViewResponse struct {
	State       string                    `json:"state"`
	Principal   models.Principal          `json:"principal"`
	FormOptions *FormOptionsResponse      `json:"form_options,omitempty"`
	History     *HistoryResponse          `json:"history,omitempty"`
	Overview    *models.AggregateSnapshot `json:"overview,omitempty"`
}

// TimetableUploadResponse returns where an uploaded timetable can be fetched.
type TimetableUploadResponse struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	DownloadURL string `json:"download_url"`
	ExpiresAt   string `json:"expires_at"`
}

package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/crm-dashboard-api/internal/dto"
	"github.com/noah-isme/crm-dashboard-api/internal/models"
	"github.com/noah-isme/crm-dashboard-api/internal/service"
	appErrors "github.com/noah-isme/crm-dashboard-api/pkg/errors"
	"github.com/noah-isme/crm-dashboard-api/pkg/response"
)

type reportService interface {
	Submit(ctx context.Context, principal models.Principal, form dto.ReportForm, files []service.FileUpload) (*dto.SubmitResponse, error)
	AttachFiles(ctx context.Context, principal models.Principal, reportID string, files []service.FileUpload) (*dto.SubmitResponse, error)
	History(ctx context.Context, principal models.Principal, query dto.HistoryQuery) dto.HistoryResponse
	Moderate(ctx context.Context, principal models.Principal, reportID string, target models.ReportStatus) (*dto.ModerateResponse, error)
	FormOptions(ctx context.Context, principal models.Principal) (*dto.FormOptionsResponse, error)
	Export(ctx context.Context, principal models.Principal, query dto.HistoryQuery, format, filename string) (*service.ExportFile, error)
}

// ReportHandler exposes report submission, history and moderation endpoints.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(svc reportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// SubmitClass godoc
// @Summary Submit class report
// @Description Teacher report for one class session. Send JSON, or multipart with repeated "files" parts.
// @Tags Reports
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ClassReportForm true "Class report"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/class [post]
func (h *ReportHandler) SubmitClass(c *gin.Context) {
	var form dto.ClassReportForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class report payload"))
		return
	}
	h.submit(c, form)
}

// SubmitStudentPerformance godoc
// @Summary Submit student performance report
// @Tags Reports
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param payload body dto.StudentPerformanceForm true "Student performance report"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/student-performance [post]
func (h *ReportHandler) SubmitStudentPerformance(c *gin.Context) {
	var form dto.StudentPerformanceForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student performance payload"))
		return
	}
	h.submit(c, form)
}

// SubmitCaseProgress godoc
// @Summary Submit case progress report
// @Tags Reports
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CaseProgressForm true "Case progress report"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/case-progress [post]
func (h *ReportHandler) SubmitCaseProgress(c *gin.Context) {
	var form dto.CaseProgressForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid case progress payload"))
		return
	}
	h.submit(c, form)
}

func (h *ReportHandler) submit(c *gin.Context, form dto.ReportForm) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	files, release, err := uploadedFiles(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer release()

	res, err := h.service.Submit(c.Request.Context(), principal, form, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// AttachFiles godoc
// @Summary Attach files to a pending report
// @Tags Reports
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param files formData file true "Attachment (repeatable)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/{id}/attachments [post]
func (h *ReportHandler) AttachFiles(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	files, release, err := uploadedFiles(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer release()

	res, err := h.service.AttachFiles(c.Request.Context(), principal, c.Param("id"), files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// History godoc
// @Summary Report history
// @Description Newest reports visible to the caller, filtered by search text, status and type
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param scope query string false "self or all (privileged only)"
// @Param q query string false "Search text"
// @Param status query string false "All, Pending, Approved or Rejected"
// @Param type query string false "Report type or All"
// @Success 200 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) History(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid history query"))
		return
	}
	res := h.service.History(c.Request.Context(), principal, query)
	response.JSON(c, http.StatusOK, res, map[string]interface{}{
		"loaded":   res.Loaded,
		"filtered": len(res.Reports),
	})
}

// Export godoc
// @Summary Export report history
// @Description Renders the filtered history as xlsx (default), csv or pdf
// @Tags Reports
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "xlsx, csv or pdf"
// @Param filename query string false "Download file name"
// @Param q query string false "Search text"
// @Param status query string false "Status filter"
// @Param type query string false "Type filter"
// @Success 200 {file} binary
// @Router /reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export query"))
		return
	}
	file, err := h.service.Export(c.Request.Context(), principal, query, c.Query("format"), c.Query("filename"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// Moderate godoc
// @Summary Approve or reject a report
// @Description Only Pending reports change; other reports are returned unchanged
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param payload body dto.ModerateRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/{id}/status [patch]
func (h *ReportHandler) Moderate(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid moderation payload"))
		return
	}
	target := models.ReportStatus(strings.TrimSpace(string(req.Status)))
	res, err := h.service.Moderate(c.Request.Context(), principal, c.Param("id"), target)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// FormOptions godoc
// @Summary Form select options
// @Description Forms available to the caller plus students or cases for their selects
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reports/form-options [get]
func (h *ReportHandler) FormOptions(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	res, err := h.service.FormOptions(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

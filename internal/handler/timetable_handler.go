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

type timetableService interface {
	Upload(ctx context.Context, principal models.Principal, branch string, file service.FileUpload) (*dto.TimetableUploadResponse, error)
	Download(ctx context.Context, token string) (*service.TimetableDownload, error)
}

// TimetableHandler handles timetable uploads and signed downloads.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc timetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Upload godoc
// @Summary Upload branch timetable
// @Tags Timetables
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param branch formData string true "Branch"
// @Param file formData file true "Timetable file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /timetables [post]
func (h *TimetableHandler) Upload(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	upload := service.FileUpload{Name: header.Filename, Size: header.Size, Content: src}
	res, err := h.service.Upload(c.Request.Context(), principal, strings.TrimSpace(c.PostForm("branch")), upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Download godoc
// @Summary Download timetable
// @Tags Timetables
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/download [get]
func (h *TimetableHandler) Download(c *gin.Context) {
	download, err := h.service.Download(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read timetable"))
		return
	}
	c.DataFromReader(http.StatusOK, info.Size(), download.MimeType, download.File, map[string]string{
		"Content-Disposition": `attachment; filename="` + download.Filename + `"`,
		"Cache-Control":       "no-store",
	})
}

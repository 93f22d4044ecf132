package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crm-dashboard-api/internal/dto"
	"github.com/noah-isme/crm-dashboard-api/internal/models"
	"github.com/noah-isme/crm-dashboard-api/internal/service"
	appErrors "github.com/noah-isme/crm-dashboard-api/pkg/errors"
)

type timetableServiceMock struct {
	branch   string
	content  string
	download *service.TimetableDownload
	err      error
}

func (m *timetableServiceMock) Upload(ctx context.Context, principal models.Principal, branch string, file service.FileUpload) (*dto.TimetableUploadResponse, error) {
	m.branch = branch
	body, _ := io.ReadAll(file.Content)
	m.content = string(body)
	return &dto.TimetableUploadResponse{Key: branch + "/1_" + file.Name, Name: file.Name}, nil
}

func (m *timetableServiceMock) Download(ctx context.Context, token string) (*service.TimetableDownload, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.download, nil
}

func TestTimetableHandlerUpload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &timetableServiceMock{}
	handler := NewTimetableHandler(svc)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("branch", "North"))
	part, err := writer.CreateFormFile("file", "week.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("timetable"))
	require.NoError(t, writer.Close())

	c, w := newGinContext(http.MethodPost, "/timetables", body.Bytes())
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	withPrincipal(c, "a@x.id", models.RoleAdmin)
	handler.Upload(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "North", svc.branch)
	assert.Equal(t, "timetable", svc.content)
}

func TestTimetableHandlerUploadMissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(&timetableServiceMock{})

	c, w := newGinContext(http.MethodPost, "/timetables", nil)
	withPrincipal(c, "a@x.id", models.RoleAdmin)
	handler.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "week.pdf")
	require.NoError(t, os.WriteFile(path, []byte("pdf-data"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)

	handler := NewTimetableHandler(&timetableServiceMock{download: &service.TimetableDownload{File: file, Filename: "week.pdf", MimeType: "application/pdf"}})

	c, w := newGinContext(http.MethodGet, "/timetables/download?token=abc", nil)
	handler.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pdf-data", w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "week.pdf")
}

func TestTimetableHandlerDownloadInvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(&timetableServiceMock{err: appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")})

	c, w := newGinContext(http.MethodGet, "/timetables/download?token=bad", nil)
	handler.Download(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

package handler

import (
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/crm-dashboard-api/internal/middleware"
	"github.com/noah-isme/crm-dashboard-api/internal/models"
	"github.com/noah-isme/crm-dashboard-api/internal/service"
	appErrors "github.com/noah-isme/crm-dashboard-api/pkg/errors"
)

const filesField = "files"

func claimsFromContext(c *gin.Context) *models.SessionClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

func principalFromContext(c *gin.Context) (models.Principal, bool) {
	value, exists := c.Get(middleware.ContextPrincipalKey)
	if !exists {
		return models.Anonymous(), false
	}
	principal, ok := value.(models.Principal)
	if !ok || principal.Email == "" {
		return models.Anonymous(), false
	}
	return principal, true
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// uploadedFiles opens every file posted under the files field. The returned closer must be
// called once the uploads are consumed.
func uploadedFiles(c *gin.Context) ([]service.FileUpload, func(), error) {
	noop := func() {}
	if !isMultipart(c) {
		return nil, noop, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid multipart payload")
	}

	headers := form.File[filesField]
	opened := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range opened {
			f.Close() //nolint:errcheck
		}
	}
	uploads := make([]service.FileUpload, 0, len(headers))
	for _, header := range headers {
		src, err := header.Open()
		if err != nil {
			closeAll()
			return nil, noop, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
		}
		opened = append(opened, src)
		uploads = append(uploads, service.FileUpload{Name: header.Filename, Size: header.Size, Content: src})
	}
	return uploads, closeAll, nil
}

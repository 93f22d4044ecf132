package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crm-dashboard-api/internal/dto"
	"github.com/noah-isme/crm-dashboard-api/internal/middleware"
	"github.com/noah-isme/crm-dashboard-api/internal/models"
)

type viewServiceMock struct {
	session *models.Session
	branch  string
}

func (m *viewServiceMock) Dispatch(ctx context.Context, session *models.Session, branch string) (*dto.ViewResponse, error) {
	m.session = session
	m.branch = branch
	if session == nil {
		return &dto.ViewResponse{State: "other", Principal: models.Anonymous()}, nil
	}
	return &dto.ViewResponse{State: "teacher", Principal: models.Principal{Email: session.Email, Role: models.RoleTeacher}}, nil
}

func TestViewHandlerAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &viewServiceMock{}
	handler := NewViewHandler(svc)

	c, w := newGinContext(http.MethodGet, "/view", nil)
	handler.View(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, svc.session)
	assert.Contains(t, w.Body.String(), `"state":"other"`)
}

func TestViewHandlerPassesSessionAndBranch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &viewServiceMock{}
	handler := NewViewHandler(svc)

	c, w := newGinContext(http.MethodGet, "/view?branch=South", nil)
	claims := &models.SessionClaims{Email: "t@x.id", RoleHint: "Teacher"}
	claims.ID = "sess-1"
	c.Set(middleware.ContextUserKey, claims)
	handler.View(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.session)
	assert.Equal(t, "sess-1", svc.session.ID)
	assert.Equal(t, "South", svc.branch)
}

package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crm-dashboard-api/internal/middleware"
	"github.com/noah-isme/crm-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/crm-dashboard-api/pkg/errors"
)

type authServiceMock struct {
	loginReq  models.LoginRequest
	loginErr  error
	loggedOut *models.SessionClaims
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.loginReq = req
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return &models.LoginResponse{AccessToken: "token", Principal: models.Principal{Email: req.Email, Role: models.RoleTeacher}}, nil
}

func (m *authServiceMock) Logout(ctx context.Context, claims *models.SessionClaims) error {
	m.loggedOut = claims
	return nil
}

func TestAuthHandlerLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &authServiceMock{}
	handler := NewAuthHandler(svc)

	c, w := newGinContext(http.MethodPost, "/auth/login", []byte(`{"email":"t@x.id","password":"secret"}`))
	handler.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t@x.id", svc.loginReq.Email)
	assert.Contains(t, w.Body.String(), `"access_token":"token"`)
}

func TestAuthHandlerLoginInvalidCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&authServiceMock{loginErr: appErrors.Clone(appErrors.ErrUnauthorized, "invalid credentials")})

	c, w := newGinContext(http.MethodPost, "/auth/login", []byte(`{"email":"t@x.id","password":"bad"}`))
	handler.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerLoginMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &authServiceMock{}
	handler := NewAuthHandler(svc)

	c, w := newGinContext(http.MethodPost, "/auth/login", []byte(`{`))
	handler.Login(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.loginReq.Email)
}

func TestAuthHandlerLogoutUsesClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &authServiceMock{}
	handler := NewAuthHandler(svc)

	claims := &models.SessionClaims{Email: "t@x.id"}
	c, w := newGinContext(http.MethodPost, "/auth/logout", nil)
	c.Set(middleware.ContextUserKey, claims)
	handler.Logout(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Same(t, claims, svc.loggedOut)
}

func TestAuthHandlerMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&authServiceMock{})

	c, w := newGinContext(http.MethodGet, "/me", nil)
	handler.Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newGinContext(http.MethodGet, "/me", nil)
	withPrincipal(c, "c@x.id", models.RoleCounselor)
	handler.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"counselor"`)
}

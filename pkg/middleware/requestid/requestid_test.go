package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(header string) (*httptest.ResponseRecorder, string) {
	gin.SetMode(gin.TestMode)
	var fromCtx string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		fromCtx = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(HeaderKey, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, fromCtx
}

func TestMiddlewareKeepsCallerID(t *testing.T) {
	w, fromCtx := serve("abc-123")

	assert.Equal(t, "abc-123", w.Header().Get(HeaderKey))
	assert.Equal(t, "abc-123", fromCtx)
}

func TestMiddlewareReplacesUnprintableID(t *testing.T) {
	w, fromCtx := serve("bad id\twith spaces")

	assert.NotEqual(t, "bad id\twith spaces", w.Header().Get(HeaderKey))
	assert.Len(t, fromCtx, 36)
	assert.Equal(t, w.Header().Get(HeaderKey), fromCtx)
}

func TestFromContextWithoutValue(t *testing.T) {
	assert.Empty(t, FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

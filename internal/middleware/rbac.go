package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/crm-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/crm-dashboard-api/pkg/errors"
	"github.com/noah-isme/crm-dashboard-api/pkg/response"
)

// ContextPrincipalKey is the gin context key storing the resolved models.Principal.
const ContextPrincipalKey = "principal"

// PrincipalResolver turns the request session into a principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, session *models.Session) models.Principal
}

// Principal resolves the caller's identity once per request. It never blocks; anonymous
// callers get the Other role.
func Principal(resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := resolver.Resolve(c.Request.Context(), SessionFromContext(c))
		c.Set(ContextPrincipalKey, principal)
		c.Next()
	}
}

// RequireRoles enforces that the resolved principal holds one of roles.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		value, exists := c.Get(ContextPrincipalKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		principal, ok := value.(models.Principal)
		if !ok || principal.Email == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[principal.Role]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

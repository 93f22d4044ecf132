package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/crm-dashboard-api/internal/models"
)

type identityUserReader interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// IdentityService turns an auth session into the principal a request acts as.
type IdentityService struct {
	users  identityUserReader
	logger *zap.Logger
}

// NewIdentityService constructs the resolver.
func NewIdentityService(users identityUserReader, logger *zap.Logger) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{users: users, logger: logger}
}

// Resolve never fails: a missing session yields the anonymous principal and a failed user
// lookup falls back to the role hint carried by the session.
func (s *IdentityService) Resolve(ctx context.Context, session *models.Session) models.Principal {
	if session == nil || strings.TrimSpace(session.Email) == "" {
		return models.Anonymous()
	}

	rawRole := session.RoleHint
	displayName := session.Name

	if s.users != nil {
		user, err := s.users.FindByEmail(ctx, session.Email)
		switch {
		case err == nil && user != nil:
			if strings.TrimSpace(user.Role) != "" {
				rawRole = user.Role
			}
			if strings.TrimSpace(user.FullName) != "" {
				displayName = user.FullName
			}
		case errors.Is(err, sql.ErrNoRows):
		default:
			s.logger.Warn("user lookup failed, using session role hint",
				zap.String("email", session.Email),
				zap.Error(err),
			)
		}
	}

	if strings.TrimSpace(rawRole) == "" {
		rawRole = string(models.RoleOther)
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = session.Email
	}

	return models.Principal{
		Email:       session.Email,
		DisplayName: displayName,
		Role:        models.ClassifyRole(rawRole),
	}
}

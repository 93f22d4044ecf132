package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionKeyPrefix = "crm:session:"

// SessionRepository tracks live session ids in Redis so logout can revoke a token before it
// expires. With a nil client every session is treated as live.
type SessionRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(client *redis.Client, logger *zap.Logger) *SessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRepository{client: client, logger: logger}
}

// Enabled reports whether sessions are backed by Redis.
func (r *SessionRepository) Enabled() bool {
	return r != nil && r.client != nil
}

// Register records a session id owned by email for ttl.
func (r *SessionRepository) Register(ctx context.Context, sessionID, email string, ttl time.Duration) error {
	if !r.Enabled() {
		return nil
	}
	if err := r.client.Set(ctx, sessionKey(sessionID), email, ttl).Err(); err != nil {
		return fmt.Errorf("redis register session %s: %w", sessionID, err)
	}
	return nil
}

// IsActive reports whether the session id is still registered.
func (r *SessionRepository) IsActive(ctx context.Context, sessionID string) (bool, error) {
	if !r.Enabled() {
		return true, nil
	}
	n, err := r.client.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check session %s: %w", sessionID, err)
	}
	return n > 0, nil
}

// Revoke removes a session id. Revoking an unknown id is not an error.
func (r *SessionRepository) Revoke(ctx context.Context, sessionID string) error {
	if !r.Enabled() {
		return nil
	}
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis revoke session %s: %w", sessionID, err)
	}
	r.logger.Debug("session revoked", zap.String("session_id", sessionID))
	return nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

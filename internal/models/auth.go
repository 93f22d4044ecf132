package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for opening a session.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued session token.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	Principal   Principal `json:"principal"`
}

// Session is the auth state attached to a request: who signed in and the role hint the
// auth provider stored in their metadata.
type Session struct {
	ID       string
	Email    string
	Name     string
	RoleHint string
}

// SessionClaims is the JWT payload of an access token.
type SessionClaims struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	RoleHint string `json:"role_hint,omitempty"`
	jwt.RegisteredClaims
}

// Session converts claims into the request session.
func (c *SessionClaims) Session() *Session {
	if c == nil {
		return nil
	}
	return &Session{ID: c.ID, Email: c.Email, Name: c.Name, RoleHint: c.RoleHint}
}

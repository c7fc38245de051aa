// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// Session is an authenticated browser session of the owner. Subject is the
// SSO email or subject, or "owner" for password logins.
type Session struct {
	Token     string
	Subject   string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionRepository defines the port for session persistence operations.
// GetSession returns nil, nil for an unknown token.
type SessionRepository interface {
	CreateSession(ctx context.Context, token, subject string, expiresAt time.Time) error
	GetSession(ctx context.Context, token string) (*Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) error
}

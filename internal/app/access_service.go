// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"plantcare/internal/domain"
)

var (
	// ErrInvalidCredentials indicates that the provided password was incorrect.
	ErrInvalidCredentials = errors.New("invalid password")
	// ErrForbiddenSubject indicates an SSO identity that is not the owner.
	ErrForbiddenSubject = errors.New("identity is not allowed")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
)

// OwnerSubject is the session subject of password logins.
const OwnerSubject = "owner"

const sessionTTL = 24 * time.Hour

// AccessService guards the tracker for its single owner. The owner signs
// in with a password (bcrypt hash from config) or through SSO.
type AccessService struct {
	sessions     domain.SessionRepository
	passwordHash []byte
	allowed      string
	now          func() time.Time
}

// NewAccessService creates an access service. An empty passwordHash
// disables password login; an empty allowedSubject accepts any SSO
// identity the provider vouches for.
func NewAccessService(sessions domain.SessionRepository, passwordHash, allowedSubject string) *AccessService {
	return &AccessService{
		sessions:     sessions,
		passwordHash: []byte(passwordHash),
		allowed:      strings.TrimSpace(allowedSubject),
		now:          time.Now,
	}
}

// PasswordEnabled reports whether password login is configured.
func (s *AccessService) PasswordEnabled() bool {
	return len(s.passwordHash) > 0
}

// SessionTTL is the lifetime of a new session.
func (s *AccessService) SessionTTL() time.Duration {
	return sessionTTL
}

// Login checks the owner password and creates a session.
func (s *AccessService) Login(ctx context.Context, password string) (string, error) {
	if !s.PasswordEnabled() {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.newSession(ctx, OwnerSubject)
}

// LoginSubject creates a session for an identity already verified by the
// SSO provider.
func (s *AccessService) LoginSubject(ctx context.Context, subject string) (string, error) {
	if subject == "" {
		return "", ErrForbiddenSubject
	}
	if s.allowed != "" && !strings.EqualFold(s.allowed, subject) {
		return "", ErrForbiddenSubject
	}
	return s.newSession(ctx, subject)
}

// Validate returns the session for token. Expired sessions are deleted.
func (s *AccessService) Validate(ctx context.Context, token string) (*domain.Session, error) {
	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if s.now().After(session.ExpiresAt) {
		_ = s.sessions.DeleteSession(ctx, token)
		return nil, ErrSessionExpired
	}
	return session, nil
}

// Logout invalidates a session.
func (s *AccessService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}

// Sweep removes expired sessions.
func (s *AccessService) Sweep(ctx context.Context) error {
	return s.sessions.DeleteExpiredSessions(ctx)
}

func (s *AccessService) newSession(ctx context.Context, subject string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := s.sessions.CreateSession(ctx, token, subject, s.now().Add(sessionTTL)); err != nil {
		return "", err
	}
	return token, nil
}

// HashPassword returns the bcrypt hash to put in the auth config.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

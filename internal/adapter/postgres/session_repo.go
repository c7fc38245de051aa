package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"plantcare/internal/domain"
)

// CreateSession stores a new session.
func (d *DB) CreateSession(ctx context.Context, token, subject string, expiresAt time.Time) error {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO sessions (token, subject, expires_at, created_at) VALUES ($1, $2, $3, $4)",
		token, subject, expiresAt.UTC(), time.Now().UTC(),
	)
	return err
}

// GetSession retrieves a session by token.
func (d *DB) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	var s domain.Session
	err := d.sql.QueryRowContext(ctx,
		"SELECT token, subject, expires_at, created_at FROM sessions WHERE token = $1",
		token,
	).Scan(&s.Token, &s.Subject, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSession deletes a session by token.
func (d *DB) DeleteSession(ctx context.Context, token string) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM sessions WHERE token = $1", token)
	return err
}

// DeleteExpiredSessions deletes all expired sessions.
func (d *DB) DeleteExpiredSessions(ctx context.Context) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < $1", time.Now().UTC())
	return err
}

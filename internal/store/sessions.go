package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/thepom/thepom/internal/model"
)

// Every method here touches admin_sessions, which may not exist yet. Errors
// are wrapped with %w so callers can classify them with IsTableMissing.

// CreateSession inserts a session row. CreatedAt and LastAccessedAt are set
// to now; ExpiresAt must be set by the caller.
func (s *Store) CreateSession(ctx context.Context, sess *model.AdminSession) error {
	now := s.Now()
	sess.CreatedAt = now
	sess.LastAccessedAt = now
	sess.ExpiresAt = sess.ExpiresAt.UTC()

	const q = `INSERT INTO admin_sessions
		(admin_id, token, ip_address, user_agent, created_at, last_accessed_at, expires_at)
		VALUES
		(:admin_id, :token, :ip_address, :user_agent, :created_at, :last_accessed_at, :expires_at)`

	id, err := s.insert(ctx, q, sess)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert admin session: %w", err)
	}
	sess.ID = id
	return nil
}

// GetSessionByToken returns the session row holding token.
func (s *Store) GetSessionByToken(ctx context.Context, token string) (*model.AdminSession, error) {
	var sess model.AdminSession
	if err := s.db.GetContext(ctx, &sess, s.db.Rebind("SELECT * FROM admin_sessions WHERE token = ?"), token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin session: %w", err)
	}
	return &sess, nil
}

// ListSessionsByAdmin returns every session row of an admin, newest first.
func (s *Store) ListSessionsByAdmin(ctx context.Context, adminID int64) ([]model.AdminSession, error) {
	var sessions []model.AdminSession
	if err := s.db.SelectContext(ctx, &sessions,
		s.db.Rebind("SELECT * FROM admin_sessions WHERE admin_id = ? ORDER BY created_at DESC, id DESC"), adminID); err != nil {
		return nil, fmt.Errorf("list admin sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes a session row by ID.
func (s *Store) DeleteSession(ctx context.Context, id int64) error {
	n, err := s.exec(ctx, "DELETE FROM admin_sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete admin session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSessionsByToken removes every row holding token and returns the
// number removed. Zero rows is not an error.
func (s *Store) DeleteSessionsByToken(ctx context.Context, token string) (int64, error) {
	n, err := s.exec(ctx, "DELETE FROM admin_sessions WHERE token = ?", token)
	if err != nil {
		return 0, fmt.Errorf("delete admin sessions by token: %w", err)
	}
	return n, nil
}

// DeleteSessionsByAdmin removes every session row of an admin.
func (s *Store) DeleteSessionsByAdmin(ctx context.Context, adminID int64) (int64, error) {
	n, err := s.exec(ctx, "DELETE FROM admin_sessions WHERE admin_id = ?", adminID)
	if err != nil {
		return 0, fmt.Errorf("delete admin sessions by admin: %w", err)
	}
	return n, nil
}

// TouchSession sets last_accessed_at of a session row.
func (s *Store) TouchSession(ctx context.Context, id int64, at time.Time) error {
	n, err := s.exec(ctx, "UPDATE admin_sessions SET last_accessed_at = ? WHERE id = ?", at.UTC(), id)
	if err != nil {
		return fmt.Errorf("touch admin session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpiredSessions removes rows whose expiry is before cutoff.
func (s *Store) DeleteExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.exec(ctx, "DELETE FROM admin_sessions WHERE expires_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired admin sessions: %w", err)
	}
	return n, nil
}

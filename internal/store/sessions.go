package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
)

// Sessions are keyed by the SHA-256 hash of the bearer token; the raw token
// never reaches the database.

type sessionRow struct {
	TokenHash      string `db:"token_hash"`
	ID             string `db:"id"`
	AdminUsername  string `db:"admin_username"`
	CreatedAt      int64  `db:"created_at"`
	ExpiresAt      int64  `db:"expires_at"`
	LastAccessedAt int64  `db:"last_accessed_at"`
	IPAddress      string `db:"ip_address"`
	UserAgent      string `db:"user_agent"`
}

const sessionColumns = "token_hash, id, admin_username, created_at, expires_at, last_accessed_at, ip_address, user_agent"

func (r sessionRow) toModel() model.AdminSession {
	return model.AdminSession{
		ID:             r.ID,
		AdminUsername:  r.AdminUsername,
		CreatedAt:      fromMillis(r.CreatedAt),
		ExpiresAt:      fromMillis(r.ExpiresAt),
		LastAccessedAt: fromMillis(r.LastAccessedAt),
		IPAddress:      r.IPAddress,
		UserAgent:      r.UserAgent,
	}
}

// CreateSession stores sess under tokenHash. The referenced admin account
// must exist.
func (s *Store) CreateSession(ctx context.Context, tokenHash string, sess *model.AdminSession) error {
	_, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO admin_sessions ("+sessionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)"),
		tokenHash, sess.ID, sess.AdminUsername,
		toMillis(sess.CreatedAt), toMillis(sess.ExpiresAt), toMillis(sess.LastAccessedAt),
		sess.IPAddress, sess.UserAgent)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns the session stored under tokenHash, expired or not.
func (s *Store) GetSession(ctx context.Context, tokenHash string) (*model.AdminSession, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row,
		s.q("SELECT "+sessionColumns+" FROM admin_sessions WHERE token_hash = ?"), tokenHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess := row.toModel()
	return &sess, nil
}

// TouchSession advances last_accessed_at to at. The column never moves
// backwards, so concurrent touches settle on the latest time. A missing
// session is not an error.
func (s *Store) TouchSession(ctx context.Context, tokenHash string, at time.Time) error {
	ms := toMillis(at)
	_, err := s.db.ExecContext(ctx,
		s.q("UPDATE admin_sessions SET last_accessed_at = ? WHERE token_hash = ? AND last_accessed_at < ?"),
		ms, tokenHash, ms)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// DeleteSession removes the session stored under tokenHash and reports
// whether a row was removed.
func (s *Store) DeleteSession(ctx context.Context, tokenHash string) (bool, error) {
	result, err := s.db.ExecContext(ctx, s.q("DELETE FROM admin_sessions WHERE token_hash = ?"), tokenHash)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete session rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteExpiredSessions removes every session whose expiry is at or before
// now and returns how many were removed.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, s.q("DELETE FROM admin_sessions WHERE expires_at <= ?"), toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions rows affected: %w", err)
	}
	return n, nil
}

// ListSessions returns the sessions still live at now, most recently used
// first. An empty username lists sessions for every admin.
func (s *Store) ListSessions(ctx context.Context, username string, now time.Time) ([]model.AdminSession, error) {
	query := "SELECT " + sessionColumns + " FROM admin_sessions WHERE expires_at > ?"
	args := []any{toMillis(now)}
	if username != "" {
		query += " AND admin_username = ?"
		args = append(args, username)
	}
	query += " ORDER BY last_accessed_at DESC, id DESC"

	var rows []sessionRow
	if err := s.db.SelectContext(ctx, &rows, s.q(query), args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessions := make([]model.AdminSession, len(rows))
	for i, r := range rows {
		sessions[i] = r.toModel()
	}
	return sessions, nil
}

// CountActiveSessions returns the number of sessions still live at now.
func (s *Store) CountActiveSessions(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n,
		s.q("SELECT COUNT(*) FROM admin_sessions WHERE expires_at > ?"), toMillis(now)); err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}
	return n, nil
}

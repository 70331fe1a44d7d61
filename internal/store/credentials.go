package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
)

type credentialRow struct {
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
}

func (r credentialRow) toModel() model.AdminCredential {
	return model.AdminCredential{
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    fromMillis(r.CreatedAt),
	}
}

// CreateCredential inserts a new admin account. The password must already be
// hashed. Returns ErrAlreadyExists if the username is taken.
func (s *Store) CreateCredential(ctx context.Context, cred *model.AdminCredential) error {
	if _, err := s.GetCredential(ctx, cred.Username); err == nil {
		return ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO admin_credentials (username, password_hash, created_at) VALUES (?, ?, ?)"),
		cred.Username, cred.PasswordHash, toMillis(cred.CreatedAt))
	if err != nil {
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

// GetCredential returns the admin account for username.
func (s *Store) GetCredential(ctx context.Context, username string) (*model.AdminCredential, error) {
	var row credentialRow
	err := s.db.GetContext(ctx, &row,
		s.q("SELECT username, password_hash, created_at FROM admin_credentials WHERE username = ?"), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	cred := row.toModel()
	return &cred, nil
}

// ListCredentials returns all admin accounts ordered by username.
func (s *Store) ListCredentials(ctx context.Context) ([]model.AdminCredential, error) {
	var rows []credentialRow
	if err := s.db.SelectContext(ctx, &rows,
		"SELECT username, password_hash, created_at FROM admin_credentials ORDER BY username"); err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	creds := make([]model.AdminCredential, len(rows))
	for i, r := range rows {
		creds[i] = r.toModel()
	}
	return creds, nil
}

// UpdatePasswordHash replaces the stored hash for username.
func (s *Store) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	result, err := s.db.ExecContext(ctx,
		s.q("UPDATE admin_credentials SET password_hash = ? WHERE username = ?"), hash, username)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password hash rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// HasAnyCredential reports whether at least one admin account exists.
func (s *Store) HasAnyCredential(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM admin_credentials"); err != nil {
		return false, fmt.Errorf("count credentials: %w", err)
	}
	return count > 0, nil
}

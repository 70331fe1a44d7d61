package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
)

// ---------------------------------------------------------------------------
// Users and completions
// ---------------------------------------------------------------------------

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id.String(), nil
}

// CreateUser inserts an end-user row. An empty ID is generated.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}
		u.ID = id
	}
	_, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO users (id, username, created_at) VALUES (?, ?, ?)"),
		u.ID, u.Username, toMillis(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// RecordCompletion logs that userID finished puzzleID at the given time.
func (s *Store) RecordCompletion(ctx context.Context, userID, puzzleID string, at time.Time) error {
	id, err := newID()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		s.q("INSERT INTO completions (id, user_id, puzzle_id, completed_at) VALUES (?, ?, ?, ?)"),
		id, userID, puzzleID, toMillis(at))
	if err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Puzzles
// ---------------------------------------------------------------------------

type puzzleRow struct {
	ID              string        `db:"id"`
	Title           string        `db:"title"`
	Brand           string        `db:"brand"`
	PieceCount      int           `db:"piece_count"`
	Status          string        `db:"status"`
	SubmittedBy     string        `db:"submitted_by"`
	SubmittedAt     int64         `db:"submitted_at"`
	ReviewedBy      string        `db:"reviewed_by"`
	ReviewedAt      sql.NullInt64 `db:"reviewed_at"`
	RejectionReason string        `db:"rejection_reason"`
}

const puzzleColumns = "id, title, brand, piece_count, status, submitted_by, submitted_at, reviewed_by, reviewed_at, rejection_reason"

func (r puzzleRow) toModel() model.Puzzle {
	p := model.Puzzle{
		ID:              r.ID,
		Title:           r.Title,
		Brand:           r.Brand,
		PieceCount:      r.PieceCount,
		Status:          model.PuzzleStatus(r.Status),
		SubmittedBy:     r.SubmittedBy,
		SubmittedAt:     fromMillis(r.SubmittedAt),
		ReviewedBy:      r.ReviewedBy,
		RejectionReason: r.RejectionReason,
	}
	if r.ReviewedAt.Valid {
		t := fromMillis(r.ReviewedAt.Int64)
		p.ReviewedAt = &t
	}
	return p
}

// CreatePuzzle inserts a submitted puzzle. An empty ID is generated and an
// empty status defaults to pending.
func (s *Store) CreatePuzzle(ctx context.Context, p *model.Puzzle) error {
	if p.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}
		p.ID = id
	}
	if p.Status == "" {
		p.Status = model.PuzzlePending
	}
	var reviewedAt sql.NullInt64
	if p.ReviewedAt != nil {
		reviewedAt = sql.NullInt64{Int64: toMillis(*p.ReviewedAt), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO puzzles ("+puzzleColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		p.ID, p.Title, p.Brand, p.PieceCount, string(p.Status), p.SubmittedBy,
		toMillis(p.SubmittedAt), p.ReviewedBy, reviewedAt, p.RejectionReason)
	if err != nil {
		return fmt.Errorf("create puzzle: %w", err)
	}
	return nil
}

// GetPuzzle returns a puzzle by ID.
func (s *Store) GetPuzzle(ctx context.Context, id string) (*model.Puzzle, error) {
	var row puzzleRow
	if err := s.db.GetContext(ctx, &row, s.q("SELECT "+puzzleColumns+" FROM puzzles WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get puzzle: %w", err)
	}
	p := row.toModel()
	return &p, nil
}

// ListPuzzles returns up to limit puzzles, oldest submission first. An empty
// status lists every puzzle.
func (s *Store) ListPuzzles(ctx context.Context, status model.PuzzleStatus, limit int) ([]model.Puzzle, error) {
	query := "SELECT " + puzzleColumns + " FROM puzzles"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY submitted_at ASC, id ASC LIMIT ?"
	args = append(args, limit)

	var rows []puzzleRow
	if err := s.db.SelectContext(ctx, &rows, s.q(query), args...); err != nil {
		return nil, fmt.Errorf("list puzzles: %w", err)
	}
	puzzles := make([]model.Puzzle, len(rows))
	for i, r := range rows {
		puzzles[i] = r.toModel()
	}
	return puzzles, nil
}

// ReviewPuzzle moves a pending puzzle to status (approved or rejected).
// Returns ErrNotFound for an unknown ID and ErrConflict if the puzzle is no
// longer pending.
func (s *Store) ReviewPuzzle(ctx context.Context, id string, status model.PuzzleStatus, reviewer, reason string, at time.Time) (*model.Puzzle, error) {
	result, err := s.db.ExecContext(ctx, s.q(`UPDATE puzzles
		SET status = ?, reviewed_by = ?, reviewed_at = ?, rejection_reason = ?
		WHERE id = ? AND status = ?`),
		string(status), reviewer, toMillis(at), reason, id, string(model.PuzzlePending))
	if err != nil {
		return nil, fmt.Errorf("review puzzle: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("review puzzle rows affected: %w", err)
	}

	p, err := s.GetPuzzle(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return p, ErrConflict
	}
	return p, nil
}

// ---------------------------------------------------------------------------
// Feedback
// ---------------------------------------------------------------------------

type feedbackRow struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	Message   string `db:"message"`
	Status    string `db:"status"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

const feedbackColumns = "id, user_id, message, status, created_at, updated_at"

func (r feedbackRow) toModel() model.Feedback {
	return model.Feedback{
		ID:        r.ID,
		UserID:    r.UserID,
		Message:   r.Message,
		Status:    model.FeedbackStatus(r.Status),
		CreatedAt: fromMillis(r.CreatedAt),
		UpdatedAt: fromMillis(r.UpdatedAt),
	}
}

// CreateFeedback inserts a feedback message. An empty ID is generated and an
// empty status defaults to new.
func (s *Store) CreateFeedback(ctx context.Context, f *model.Feedback) error {
	if f.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}
		f.ID = id
	}
	if f.Status == "" {
		f.Status = model.FeedbackNew
	}
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = f.CreatedAt
	}
	_, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO feedback ("+feedbackColumns+") VALUES (?, ?, ?, ?, ?, ?)"),
		f.ID, f.UserID, f.Message, string(f.Status), toMillis(f.CreatedAt), toMillis(f.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// GetFeedback returns a feedback message by ID.
func (s *Store) GetFeedback(ctx context.Context, id string) (*model.Feedback, error) {
	var row feedbackRow
	if err := s.db.GetContext(ctx, &row, s.q("SELECT "+feedbackColumns+" FROM feedback WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	f := row.toModel()
	return &f, nil
}

// ListFeedback returns up to limit feedback messages, newest first. An empty
// status lists every message.
func (s *Store) ListFeedback(ctx context.Context, status model.FeedbackStatus, limit int) ([]model.Feedback, error) {
	query := "SELECT " + feedbackColumns + " FROM feedback"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	var rows []feedbackRow
	if err := s.db.SelectContext(ctx, &rows, s.q(query), args...); err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	items := make([]model.Feedback, len(rows))
	for i, r := range rows {
		items[i] = r.toModel()
	}
	return items, nil
}

// UpdateFeedbackStatus sets the status of a feedback message.
func (s *Store) UpdateFeedbackStatus(ctx context.Context, id string, status model.FeedbackStatus, at time.Time) (*model.Feedback, error) {
	result, err := s.db.ExecContext(ctx,
		s.q("UPDATE feedback SET status = ?, updated_at = ? WHERE id = ?"),
		string(status), toMillis(at), id)
	if err != nil {
		return nil, fmt.Errorf("update feedback: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update feedback rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetFeedback(ctx, id)
}

// ---------------------------------------------------------------------------
// Dashboard
// ---------------------------------------------------------------------------

// DashboardStats gathers the admin dashboard counts. Each count is its own
// query; the snapshot is not transactional.
func (s *Store) DashboardStats(ctx context.Context, now time.Time) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{GeneratedAt: now.UTC()}
	weekAgo := toMillis(now.Add(-7 * 24 * time.Hour))

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.PendingPuzzles, "SELECT COUNT(*) FROM puzzles WHERE status = ?", []any{string(model.PuzzlePending)}},
		{&stats.ApprovedPuzzles, "SELECT COUNT(*) FROM puzzles WHERE status = ?", []any{string(model.PuzzleApproved)}},
		{&stats.RejectedPuzzles, "SELECT COUNT(*) FROM puzzles WHERE status = ?", []any{string(model.PuzzleRejected)}},
		{&stats.TotalUsers, "SELECT COUNT(*) FROM users", nil},
		{&stats.NewUsersThisWeek, "SELECT COUNT(*) FROM users WHERE created_at >= ?", []any{weekAgo}},
		{&stats.TotalCompletions, "SELECT COUNT(*) FROM completions", nil},
		{&stats.OpenFeedback, "SELECT COUNT(*) FROM feedback WHERE status <> ?", []any{string(model.FeedbackResolved)}},
	}
	for _, c := range counts {
		if err := s.db.GetContext(ctx, c.dst, s.q(c.query), c.args...); err != nil {
			return nil, fmt.Errorf("dashboard stats: %w", err)
		}
	}

	active, err := s.CountActiveSessions(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	stats.ActiveAdminSessions = active
	return stats, nil
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
)

type activityRow struct {
	ID            string `db:"id"`
	SessionID     string `db:"session_id"`
	AdminUsername string `db:"admin_username"`
	Action        string `db:"action"`
	TargetType    string `db:"target_type"`
	TargetID      string `db:"target_id"`
	Metadata      string `db:"metadata"`
	OccurredAt    int64  `db:"occurred_at"`
}

func (r activityRow) toModel() (model.ActivityEntry, error) {
	action, err := model.ParseActivityAction(r.Action)
	if err != nil {
		return model.ActivityEntry{}, fmt.Errorf("activity %s: %w", r.ID, err)
	}
	target, err := model.ParseTargetType(r.TargetType)
	if err != nil {
		return model.ActivityEntry{}, fmt.Errorf("activity %s: %w", r.ID, err)
	}

	e := model.ActivityEntry{
		ID:            r.ID,
		SessionID:     r.SessionID,
		AdminUsername: r.AdminUsername,
		Action:        action,
		TargetType:    target,
		TargetID:      r.TargetID,
		OccurredAt:    fromMillis(r.OccurredAt),
	}
	if r.Metadata != "" && r.Metadata != "null" {
		// Metadata is written by AppendActivity; a row that fails to decode
		// is returned without it rather than failing the whole listing.
		_ = json.Unmarshal([]byte(r.Metadata), &e.Metadata)
	}
	return e, nil
}

// AppendActivity inserts an audit entry. An empty ID is filled with a
// time-ordered UUID.
func (s *Store) AppendActivity(ctx context.Context, e *model.ActivityEntry) error {
	if e.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate activity id: %w", err)
		}
		e.ID = id.String()
	}

	meta := "{}"
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal activity metadata: %w", err)
		}
		meta = string(b)
	}

	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO admin_activity
		(id, session_id, admin_username, action, target_type, target_id, metadata, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.SessionID, e.AdminUsername, string(e.Action), string(e.TargetType), e.TargetID,
		meta, toMillis(e.OccurredAt))
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// ListRecentActivity returns at most limit entries, most recent first.
// Entries sharing a timestamp are ordered by their time-ordered IDs. Rows
// with an unknown action or target type are skipped; the readable entries
// are then returned together with an error wrapping ErrInvalidRow.
func (s *Store) ListRecentActivity(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	var rows []activityRow
	err := s.db.SelectContext(ctx, &rows, s.q(`SELECT
		id, session_id, admin_username, action, target_type, target_id, metadata, occurred_at
		FROM admin_activity ORDER BY occurred_at DESC, id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	entries := make([]model.ActivityEntry, 0, len(rows))
	var bad []error
	for _, r := range rows {
		e, err := r.toModel()
		if err != nil {
			bad = append(bad, err)
			continue
		}
		entries = append(entries, e)
	}
	if len(bad) > 0 {
		return entries, fmt.Errorf("%w: %w", ErrInvalidRow, errors.Join(bad...))
	}
	return entries, nil
}

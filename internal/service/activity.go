package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/store"
)

// ActivityStore is the persistence side of the audit trail.
type ActivityStore interface {
	AppendActivity(ctx context.Context, e *model.ActivityEntry) error
	ListRecentActivity(ctx context.Context, limit int) ([]model.ActivityEntry, error)
}

// ActivityOptions bounds audit-trail reads and writes.
type ActivityOptions struct {
	DefaultLimit int
	MaxLimit     int
	WriteTimeout time.Duration
	Now          func() time.Time
}

// ActivityInput describes one admin action to record.
type ActivityInput struct {
	Actor      model.Actor
	Action     model.ActivityAction
	TargetType model.TargetType
	TargetID   string
	Metadata   map[string]any
}

// ActivityLogger appends admin actions to the audit trail. Writes are
// best-effort: a failed append is logged and never reported to the caller.
type ActivityLogger struct {
	store        ActivityStore
	log          zerolog.Logger
	defaultLimit int
	maxLimit     int
	writeTimeout time.Duration
	now          func() time.Time
}

// NewActivityLogger returns a logger writing to store. Zero options fall
// back to a default limit of 50, a cap of 500 and a 2s write timeout.
func NewActivityLogger(store ActivityStore, logger zerolog.Logger, opts ActivityOptions) *ActivityLogger {
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 500
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 50
	}
	if opts.DefaultLimit > opts.MaxLimit {
		opts.DefaultLimit = opts.MaxLimit
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 2 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ActivityLogger{
		store:        store,
		log:          logger.With().Str("component", "activity").Logger(),
		defaultLimit: opts.DefaultLimit,
		maxLimit:     opts.MaxLimit,
		writeTimeout: opts.WriteTimeout,
		now:          opts.Now,
	}
}

// Log records in. The write is detached from ctx cancellation so that an
// aborted request still leaves its audit entry behind, and is bounded by the
// configured write timeout.
func (l *ActivityLogger) Log(ctx context.Context, in ActivityInput) {
	l.record(ctx, in, time.Time{})
}

func (l *ActivityLogger) record(ctx context.Context, in ActivityInput, at time.Time) {
	if !in.Action.Valid() {
		l.log.Warn().Str("action", string(in.Action)).Msg("dropping activity entry with unknown action")
		return
	}
	if at.IsZero() {
		at = l.now()
	}

	entry := &model.ActivityEntry{
		SessionID:     in.Actor.SessionID,
		AdminUsername: in.Actor.AdminUsername,
		Action:        in.Action,
		TargetType:    in.TargetType,
		TargetID:      in.TargetID,
		Metadata:      in.Metadata,
		OccurredAt:    at.UTC().Truncate(time.Millisecond),
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.writeTimeout)
	defer cancel()

	if err := l.store.AppendActivity(wctx, entry); err != nil {
		l.log.Error().Err(err).
			Str("action", string(in.Action)).
			Str("admin", in.Actor.AdminUsername).
			Str("session_id", in.Actor.SessionID).
			Msg("failed to record admin activity")
	}
}

// Recent returns the newest entries, most recent first. limit <= 0 means the
// default limit; limits above the cap are clamped to it. Stored entries with
// an action or target type outside the known sets are logged and left out.
func (l *ActivityLogger) Recent(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	entries, err := l.store.ListRecentActivity(ctx, clampLimit(limit, l.defaultLimit, l.maxLimit))
	if errors.Is(err, store.ErrInvalidRow) {
		l.log.Warn().Err(err).Msg("skipped unreadable audit entries")
		err = nil
	}
	if err != nil {
		return nil, internalError(err)
	}
	return entries, nil
}

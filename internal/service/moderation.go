package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/store"
)

// CatalogStore is the slice of the catalog the moderation routes touch.
type CatalogStore interface {
	ListPuzzles(ctx context.Context, status model.PuzzleStatus, limit int) ([]model.Puzzle, error)
	ReviewPuzzle(ctx context.Context, id string, status model.PuzzleStatus, reviewer, reason string, at time.Time) (*model.Puzzle, error)
	ListFeedback(ctx context.Context, status model.FeedbackStatus, limit int) ([]model.Feedback, error)
	UpdateFeedbackStatus(ctx context.Context, id string, status model.FeedbackStatus, at time.Time) (*model.Feedback, error)
}

const maxRejectionReason = 1024

// ModerationOptions bounds the moderation listings.
type ModerationOptions struct {
	DefaultLimit int
	MaxLimit     int
	Now          func() time.Time
}

// ModerationService approves and rejects submitted puzzles and triages
// user feedback. Every successful action is written to the audit trail.
type ModerationService struct {
	store        CatalogStore
	activity     *ActivityLogger
	defaultLimit int
	maxLimit     int
	now          func() time.Time
}

// NewModerationService returns a service over the catalog tables that
// records its actions through activity. Zero options fall back to a default
// limit of 50 and a cap of 200.
func NewModerationService(store CatalogStore, activity *ActivityLogger, opts ModerationOptions) *ModerationService {
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 200
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 50
	}
	if opts.DefaultLimit > opts.MaxLimit {
		opts.DefaultLimit = opts.MaxLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ModerationService{
		store:        store,
		activity:     activity,
		defaultLimit: opts.DefaultLimit,
		maxLimit:     opts.MaxLimit,
		now:          opts.Now,
	}
}

// ListPuzzles lists puzzles in the given status ("" means pending, "all"
// means every status).
func (s *ModerationService) ListPuzzles(ctx context.Context, status string, limit int) ([]model.Puzzle, int, error) {
	var st model.PuzzleStatus
	switch status {
	case "":
		st = model.PuzzlePending
	case "all":
	default:
		parsed, err := model.ParsePuzzleStatus(status)
		if err != nil {
			return nil, 0, validationError(err.Error())
		}
		st = parsed
	}

	limit = clampLimit(limit, s.defaultLimit, s.maxLimit)
	puzzles, err := s.store.ListPuzzles(ctx, st, limit)
	if err != nil {
		return nil, 0, internalError(err)
	}
	return puzzles, limit, nil
}

// ApprovePuzzle moves a pending puzzle to approved.
func (s *ModerationService) ApprovePuzzle(ctx context.Context, actor model.Actor, id string) (*model.Puzzle, error) {
	return s.review(ctx, actor, id, model.PuzzleApproved, "")
}

// RejectPuzzle moves a pending puzzle to rejected. A reason is required.
func (s *ModerationService) RejectPuzzle(ctx context.Context, actor model.Actor, id, reason string) (*model.Puzzle, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationError("a rejection reason is required")
	}
	if len(reason) > maxRejectionReason {
		return nil, validationError("rejection reason is too long")
	}
	return s.review(ctx, actor, id, model.PuzzleRejected, reason)
}

func (s *ModerationService) review(ctx context.Context, actor model.Actor, id string, to model.PuzzleStatus, reason string) (*model.Puzzle, error) {
	p, err := s.store.ReviewPuzzle(ctx, id, to, actor.AdminUsername, reason, s.now().UTC())
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, notFoundError("puzzle not found")
	case errors.Is(err, store.ErrConflict):
		if p != nil {
			return nil, conflictError("puzzle is already " + string(p.Status))
		}
		return nil, conflictError("puzzle is no longer pending")
	case err != nil:
		return nil, internalError(err)
	}

	action := model.ActionApprovePuzzle
	meta := map[string]any{"title": p.Title}
	if to == model.PuzzleRejected {
		action = model.ActionRejectPuzzle
		meta["reason"] = reason
	}
	s.activity.Log(ctx, ActivityInput{
		Actor:      actor,
		Action:     action,
		TargetType: model.TargetPuzzle,
		TargetID:   p.ID,
		Metadata:   meta,
	})
	return p, nil
}

// ListFeedback lists feedback in the given status ("" means every status).
func (s *ModerationService) ListFeedback(ctx context.Context, status string, limit int) ([]model.Feedback, int, error) {
	var st model.FeedbackStatus
	if status != "" {
		parsed, err := model.ParseFeedbackStatus(status)
		if err != nil {
			return nil, 0, validationError(err.Error())
		}
		st = parsed
	}

	limit = clampLimit(limit, s.defaultLimit, s.maxLimit)
	items, err := s.store.ListFeedback(ctx, st, limit)
	if err != nil {
		return nil, 0, internalError(err)
	}
	return items, limit, nil
}

// UpdateFeedbackStatus sets the triage status of a feedback message.
func (s *ModerationService) UpdateFeedbackStatus(ctx context.Context, actor model.Actor, id, status string) (*model.Feedback, error) {
	st, err := model.ParseFeedbackStatus(status)
	if err != nil {
		return nil, validationError(err.Error())
	}

	f, err := s.store.UpdateFeedbackStatus(ctx, id, st, s.now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFoundError("feedback not found")
		}
		return nil, internalError(err)
	}

	s.activity.Log(ctx, ActivityInput{
		Actor:      actor,
		Action:     model.ActionUpdateFeedback,
		TargetType: model.TargetFeedback,
		TargetID:   f.ID,
		Metadata:   map[string]any{"status": string(st)},
	})
	return f, nil
}

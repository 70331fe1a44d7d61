package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/service"
)

// AdminHandler serves the authenticated admin panel API: dashboard, audit
// trail, session management and moderation.
type AdminHandler struct {
	sessions   *service.SessionManager
	moderation *service.ModerationService
	log        zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(sessions *service.SessionManager, moderation *service.ModerationService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{sessions: sessions, moderation: moderation, log: logger}
}

// ---------------------------------------------------------------------------
// Dashboard
// ---------------------------------------------------------------------------

// Activity returns the newest audit entries as a JSON array.
// GET /admin/activity?limit=N
func (h *AdminHandler) Activity(w http.ResponseWriter, r *http.Request) {
	entries, err := h.sessions.GetRecentActivity(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if entries == nil {
		entries = []model.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// Stats returns the dashboard counts.
// GET /admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sessions.GetDashboardStats(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

// ListSessions returns the caller's live sessions.
// GET /admin/sessions
func (h *AdminHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	sessions, err := h.sessions.ListSessions(r.Context(), actor.AdminUsername)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: sessions,
		Meta:     &model.ResponseMeta{Count: len(sessions)},
	})
}

// PurgeSessions deletes every expired session, for any admin.
// POST /admin/sessions/purge
func (h *AdminHandler) PurgeSessions(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	n, err := h.sessions.PurgeExpired(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"purged": n})
}

// ---------------------------------------------------------------------------
// Moderation
// ---------------------------------------------------------------------------

// ListPuzzles lists submitted puzzles, pending ones by default.
// GET /admin/puzzles?status=pending|approved|rejected|all&limit=N
func (h *AdminHandler) ListPuzzles(w http.ResponseWriter, r *http.Request) {
	puzzles, limit, err := h.moderation.ListPuzzles(r.Context(), queryString(r, "status"), queryInt(r, "limit", 0))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: puzzles,
		Meta:     &model.ResponseMeta{Count: len(puzzles), Limit: limit},
	})
}

// ApprovePuzzle approves a pending puzzle.
// POST /admin/puzzles/{id}/approve
func (h *AdminHandler) ApprovePuzzle(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	p, err := h.moderation.ApprovePuzzle(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// RejectPuzzle rejects a pending puzzle with a reason.
// POST /admin/puzzles/{id}/reject
func (h *AdminHandler) RejectPuzzle(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	var req rejectRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	p, err := h.moderation.RejectPuzzle(r.Context(), actor, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListFeedback lists user feedback, optionally filtered by status.
// GET /admin/feedback?status=new|reviewed|resolved&limit=N
func (h *AdminHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	items, limit, err := h.moderation.ListFeedback(r.Context(), queryString(r, "status"), queryInt(r, "limit", 0))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: items,
		Meta:     &model.ResponseMeta{Count: len(items), Limit: limit},
	})
}

type feedbackUpdateRequest struct {
	Status string `json:"status"`
}

// UpdateFeedback changes the triage status of a feedback message.
// PATCH /admin/feedback/{id}
func (h *AdminHandler) UpdateFeedback(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	var req feedbackUpdateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	f, err := h.moderation.UpdateFeedbackStatus(r.Context(), actor, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

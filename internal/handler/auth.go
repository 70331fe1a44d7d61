package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/server/middleware"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/service"
)

// AuthHandler serves the admin login, logout and session-check endpoints.
type AuthHandler struct {
	sessions *service.SessionManager
	cookie   middleware.CookieConfig
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(sessions *service.SessionManager, cookie middleware.CookieConfig, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, cookie: cookie, log: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success   bool      `json:"success"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// sessionSummary is the part of a session the validate endpoint exposes.
type sessionSummary struct {
	AdminUsername  string    `json:"adminUsername"`
	ExpiresAt      time.Time `json:"expiresAt"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
}

type validateResponse struct {
	Valid   bool            `json:"valid"`
	Session *sessionSummary `json:"session,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Login checks the submitted credentials and sets the session cookie.
// POST /admin/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	res, err := h.sessions.Login(r.Context(), service.LoginRequest{
		Username:  req.Username,
		Password:  req.Password,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	h.cookie.Set(w, res.Token, res.Session.ExpiresAt)
	writeJSON(w, http.StatusOK, loginResponse{Success: true, ExpiresAt: res.Session.ExpiresAt})
}

// Logout revokes the caller's session and clears the cookie.
// POST /admin/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac := middleware.AdminFromContext(r.Context())
	if ac == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	deleted, err := h.sessions.Logout(r.Context(), ac.Token)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	h.cookie.Clear(w)
	writeJSON(w, http.StatusOK, successResponse{Success: deleted})
}

// Validate reports whether the caller's cookie names a live session. It is
// mounted outside the session middleware so it can answer for invalid
// sessions itself.
// GET /admin/auth/validate
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.ValidateSession(r.Context(), h.cookie.Token(r))
	if err != nil {
		if service.KindOf(err) == service.KindInternal {
			writeServiceError(w, r, h.log, err)
			return
		}
		h.cookie.Clear(w)
		writeJSON(w, http.StatusUnauthorized, validateResponse{Valid: false, Error: service.PublicMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, validateResponse{
		Valid: true,
		Session: &sessionSummary{
			AdminUsername:  sess.AdminUsername,
			ExpiresAt:      sess.ExpiresAt,
			LastAccessedAt: sess.LastAccessedAt,
		},
	})
}

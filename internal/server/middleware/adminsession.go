package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/service"
)

type contextKeyAdmin string

// AdminContextKey is the context key for the authenticated admin.
const AdminContextKey contextKeyAdmin = "admin_context"

// SessionValidator resolves a session token to a live admin session.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*model.AdminSession, error)
}

// AdminContext is attached to every request that passed AdminSession.
type AdminContext struct {
	Actor   model.Actor
	Token   string
	Session *model.AdminSession
}

// CookieConfig describes the admin session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Set writes the session cookie, expiring together with the session.
func (c CookieConfig) Set(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires.UTC(),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear writes an already-expired cookie with the same name and path so the
// browser drops it.
func (c CookieConfig) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token returns the session token carried by r, or "".
func (c CookieConfig) Token(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// AdminSessionConfig controls which requests AdminSession guards and how it
// turns unauthenticated requests away.
type AdminSessionConfig struct {
	Prefix    string   // e.g. "/admin"
	LoginPath string   // where page requests are redirected
	Public    []string // exact paths under Prefix that need no session
	Cookie    CookieConfig
}

// AdminSession returns an HTTP middleware that requires a valid admin
// session for every path equal to or below cfg.Prefix. Other paths and the
// cfg.Public paths pass through untouched.
//
// Requests without a usable session are redirected to cfg.LoginPath when
// they come from a browser page load, and get a 401 JSON error otherwise.
// A cookie that failed validation is cleared in the response.
func AdminSession(v SessionValidator, cfg AdminSessionConfig, logger zerolog.Logger) func(http.Handler) http.Handler {
	public := make(map[string]bool, len(cfg.Public))
	for _, p := range cfg.Public {
		public[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !UnderPrefix(r.URL.Path, cfg.Prefix) || public[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token := cfg.Cookie.Token(r)
			if token == "" {
				deny(w, r, cfg.LoginPath, "Authentication required")
				return
			}

			sess, err := v.ValidateSession(r.Context(), token)
			if err != nil {
				if service.KindOf(err) == service.KindInternal {
					logger.Error().Err(err).
						Str("request_id", GetRequestID(r.Context())).
						Msg("session validation failed")
					writeJSONError(w, http.StatusInternalServerError, "internal server error")
					return
				}
				cfg.Cookie.Clear(w)
				deny(w, r, cfg.LoginPath, service.PublicMessage(err))
				return
			}

			ac := &AdminContext{
				Actor:   model.Actor{SessionID: sess.ID, AdminUsername: sess.AdminUsername},
				Token:   token,
				Session: sess,
			}
			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), ac)))
		})
	}
}

// WithAdmin returns a copy of ctx carrying ac.
func WithAdmin(ctx context.Context, ac *AdminContext) context.Context {
	return context.WithValue(ctx, AdminContextKey, ac)
}

// AdminFromContext extracts the authenticated admin from the context.
// Returns nil if the request did not pass AdminSession.
func AdminFromContext(ctx context.Context) *AdminContext {
	if ac, ok := ctx.Value(AdminContextKey).(*AdminContext); ok {
		return ac
	}
	return nil
}

// UnderPrefix reports whether path is prefix itself or lies below it.
// "/administrator" is not under "/admin".
func UnderPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// IsPageRequest reports whether r is a browser navigation rather than an
// API call.
func IsPageRequest(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func deny(w http.ResponseWriter, r *http.Request, loginPath, message string) {
	if IsPageRequest(r) && loginPath != "" {
		target := loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
		http.Redirect(w, r, target, http.StatusFound)
		return
	}
	writeJSONError(w, http.StatusUnauthorized, message)
}

type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	var body errorBody
	body.Error.Code = status
	body.Error.Message = message

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/config"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/handler"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/openapi"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/server/middleware"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/service"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/ui"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	MaxBodySize     int64 // bytes

	AdminPrefix    string
	LoginPath      string
	CookieName     string
	SecureCookie   bool
	LoginRateLimit int // attempts per IP per minute, 0 disables
	Version        string
}

// DefaultConfig returns a Config with sensible development defaults.
func DefaultConfig() Config {
	return ConfigFrom(config.Default())
}

// ConfigFrom derives the server settings from the application config.
func ConfigFrom(c config.Config) Config {
	return Config{
		Host:            c.Server.Host,
		Port:            c.Server.Port,
		ShutdownTimeout: c.Server.ShutdownTimeout,
		CORSOrigins:     c.Server.CORSOrigins,
		MaxBodySize:     c.Server.MaxBodySize,
		AdminPrefix:     c.Auth.AdminPrefix,
		LoginPath:       c.Auth.LoginPath,
		CookieName:      c.Auth.CookieName,
		SecureCookie:    c.IsProduction(),
		LoginRateLimit:  c.Auth.LoginRateLimit,
	}
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the HTTP layer dispatches to.
type Deps struct {
	Store      Pinger
	Sessions   *service.SessionManager
	Moderation *service.ModerationService
}

// Server is the top-level HTTP server for the admin service. It owns the
// Chi router and the session-guarded admin routes.
type Server struct {
	cfg        Config
	deps       Deps
	router     chi.Router
	httpServer *http.Server
	logger     zerolog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, deps Deps, logger zerolog.Logger) *Server {
	if cfg.AdminPrefix == "" {
		cfg.AdminPrefix = "/admin"
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = cfg.AdminPrefix + "/login"
	}
	s := &Server{cfg: cfg, deps: deps, logger: logger}
	s.setupRouter()
	return s
}

// Cookie returns the session cookie settings shared by the login handler
// and the session middleware.
func (s *Server) Cookie() middleware.CookieConfig {
	return middleware.CookieConfig{Name: s.cfg.CookieName, Secure: s.cfg.SecureCookie}
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()
	prefix := s.cfg.AdminPrefix
	cookie := s.Cookie()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))
	if s.cfg.MaxBodySize > 0 {
		r.Use(chimw.RequestSize(s.cfg.MaxBodySize))
	}

	// --- Session guard for everything under the admin prefix ---
	r.Use(middleware.AdminSession(s.deps.Sessions, middleware.AdminSessionConfig{
		Prefix:    prefix,
		LoginPath: s.cfg.LoginPath,
		Public:    []string{prefix + "/auth/login", prefix + "/auth/validate", s.cfg.LoginPath},
		Cookie:    cookie,
	}, s.logger))

	// --- Health checks (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	// --- OpenAPI document (no auth required) ---
	r.Get("/openapi.json", handler.NewOpenAPIHandler(openapi.Options{
		Prefix:     prefix,
		CookieName: s.cfg.CookieName,
		Version:    s.cfg.Version,
	}).ServeSpec)

	authHandler := handler.NewAuthHandler(s.deps.Sessions, cookie, s.logger)
	adminHandler := handler.NewAdminHandler(s.deps.Sessions, s.deps.Moderation, s.logger)

	r.Route(prefix, func(r chi.Router) {
		// Pages
		r.Get("/", ui.Dashboard)
		if loginRel, ok := relativeTo(s.cfg.LoginPath, prefix); ok {
			r.Get(loginRel, ui.LoginPage)
		}

		// Session endpoints
		r.Group(func(r chi.Router) {
			if s.cfg.LoginRateLimit > 0 {
				r.Use(middleware.LoginRateLimit(s.cfg.LoginRateLimit))
			}
			r.Post("/auth/login", authHandler.Login)
		})
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/validate", authHandler.Validate)

		// Dashboard
		r.Get("/activity", adminHandler.Activity)
		r.Get("/stats", adminHandler.Stats)
		r.Get("/sessions", adminHandler.ListSessions)
		r.Post("/sessions/purge", adminHandler.PurgeSessions)

		// Moderation
		r.Get("/puzzles", adminHandler.ListPuzzles)
		r.Post("/puzzles/{id}/approve", adminHandler.ApprovePuzzle)
		r.Post("/puzzles/{id}/reject", adminHandler.RejectPuzzle)
		r.Get("/feedback", adminHandler.ListFeedback)
		r.Patch("/feedback/{id}", adminHandler.UpdateFeedback)
	})

	// A login path outside the prefix is still served.
	if _, ok := relativeTo(s.cfg.LoginPath, prefix); !ok {
		r.Get(s.cfg.LoginPath, ui.LoginPage)
	}

	s.router = r
}

// relativeTo returns path relative to prefix when path lies below it.
func relativeTo(path, prefix string) (string, bool) {
	if !middleware.UnderPrefix(path, prefix) || path == prefix {
		return "", false
	}
	return path[len(prefix):], true
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the backing store is
// reachable, or 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := map[string]string{"store": "ok"}

	if s.deps.Store == nil {
		checks["store"] = "not configured"
		status = "degraded"
	} else if err := s.deps.Store.Ping(r.Context()); err != nil {
		s.logger.Warn().Err(err).Msg("readiness check failed")
		checks["store"] = "unreachable"
		status = "degraded"
	}

	if status != "ok" {
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"checks": checks,
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received or ctx is cancelled. It then performs a graceful shutdown,
// draining in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Listen for shutdown signals
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info().Msg("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info().Msg("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

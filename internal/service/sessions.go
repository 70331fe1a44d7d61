package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/store"
)

// SessionStore is the persistence side of admin sessions. Rows are keyed by
// the hash of the session token.
type SessionStore interface {
	CreateSession(ctx context.Context, tokenHash string, s *model.AdminSession) error
	GetSession(ctx context.Context, tokenHash string) (*model.AdminSession, error)
	TouchSession(ctx context.Context, tokenHash string, at time.Time) error
	DeleteSession(ctx context.Context, tokenHash string) (bool, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	ListSessions(ctx context.Context, username string, now time.Time) ([]model.AdminSession, error)
}

// StatsSource produces the admin dashboard counts.
type StatsSource interface {
	DashboardStats(ctx context.Context, now time.Time) (*model.DashboardStats, error)
}

// DefaultSessionLifetime is used when SessionOptions.Lifetime is zero.
const DefaultSessionLifetime = 24 * time.Hour

// SessionOptions configures a SessionManager.
type SessionOptions struct {
	Lifetime time.Duration
	Guard    LoginGuard
	Now      func() time.Time
}

// LoginRequest carries one login attempt.
type LoginRequest struct {
	Username  string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult is returned by a successful Login. Token is the only copy of
// the session token; it is not recoverable from the store.
type LoginResult struct {
	Token   string
	Session model.AdminSession
}

// SessionManager creates, validates and revokes admin sessions. Expiry is
// fixed at login: validation records lastAccessedAt but never extends
// expiresAt. Expired rows are purged by the validation that finds them.
type SessionManager struct {
	sessions SessionStore
	verifier *CredentialVerifier
	activity *ActivityLogger
	stats    StatsSource
	guard    LoginGuard
	lifetime time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewSessionManager wires a SessionManager. One instance is built at
// startup and shared by every request.
func NewSessionManager(sessions SessionStore, verifier *CredentialVerifier, activity *ActivityLogger, stats StatsSource, logger zerolog.Logger, opts SessionOptions) *SessionManager {
	if opts.Lifetime <= 0 {
		opts.Lifetime = DefaultSessionLifetime
	}
	if opts.Guard == nil {
		opts.Guard = NoopGuard{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SessionManager{
		sessions: sessions,
		verifier: verifier,
		activity: activity,
		stats:    stats,
		guard:    opts.Guard,
		lifetime: opts.Lifetime,
		log:      logger.With().Str("component", "sessions").Logger(),
		now:      opts.Now,
	}
}

// Lifetime returns the fixed session lifetime.
func (m *SessionManager) Lifetime() time.Duration { return m.lifetime }

// clock returns the current time at the store's millisecond precision, so
// values handed to callers match what a later read returns.
func (m *SessionManager) clock() time.Time {
	return m.now().UTC().Truncate(time.Millisecond)
}

// Login verifies the credentials and opens a new session. Wrong passwords
// and unknown usernames fail with the same ErrInvalidCredentials.
func (m *SessionManager) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, validationError("username and password are required")
	}

	if err := m.guard.Allow(ctx, req.Username, req.IPAddress); err != nil {
		return nil, err
	}

	ok, err := m.verifier.Verify(ctx, req.Username, req.Password)
	if err != nil {
		return nil, internalError(err)
	}
	if !ok {
		m.guard.Record(ctx, req.Username, req.IPAddress, false)
		m.log.Info().Str("admin", req.Username).Str("ip", req.IPAddress).Msg("admin login failed")
		return nil, ErrInvalidCredentials
	}

	token, err := newSessionToken()
	if err != nil {
		return nil, internalError(err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, internalError(err)
	}

	now := m.clock()
	sess := model.AdminSession{
		ID:             id.String(),
		AdminUsername:  req.Username,
		CreatedAt:      now,
		ExpiresAt:      now.Add(m.lifetime),
		LastAccessedAt: now,
		IPAddress:      req.IPAddress,
		UserAgent:      req.UserAgent,
	}
	if err := m.sessions.CreateSession(ctx, hashToken(token), &sess); err != nil {
		return nil, internalError(err)
	}
	m.guard.Record(ctx, req.Username, req.IPAddress, true)

	m.activity.record(ctx, ActivityInput{
		Actor:      model.Actor{SessionID: sess.ID, AdminUsername: sess.AdminUsername},
		Action:     model.ActionLogin,
		TargetType: model.TargetSession,
		TargetID:   sess.ID,
		Metadata:   clientMetadata(sess.IPAddress, sess.UserAgent),
	}, now)

	m.log.Info().Str("admin", sess.AdminUsername).Str("session_id", sess.ID).Msg("admin logged in")
	return &LoginResult{Token: token, Session: sess}, nil
}

// ValidateSession resolves token to its live session and records the access.
// It fails with ErrNoSession for an empty or malformed token,
// ErrSessionNotFound when no row matches, and ErrSessionExpired when the
// session has run out; the expired row is deleted on the way out.
func (m *SessionManager) ValidateSession(ctx context.Context, token string) (*model.AdminSession, error) {
	if !wellFormedToken(token) {
		return nil, ErrNoSession
	}
	hash := hashToken(token)

	sess, err := m.sessions.GetSession(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, internalError(err)
	}

	now := m.clock()
	if sess.Expired(now) {
		if _, err := m.sessions.DeleteSession(ctx, hash); err != nil {
			m.log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to purge expired session")
		}
		return nil, ErrSessionExpired
	}

	if err := m.sessions.TouchSession(ctx, hash, now); err != nil {
		m.log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to record session access")
	}
	if now.After(sess.LastAccessedAt) {
		sess.LastAccessedAt = now
	}
	return sess, nil
}

// Logout deletes the session behind token and reports whether one existed.
// Unknown, malformed and already-revoked tokens return false without error.
func (m *SessionManager) Logout(ctx context.Context, token string) (bool, error) {
	if !wellFormedToken(token) {
		return false, nil
	}
	hash := hashToken(token)

	sess, err := m.sessions.GetSession(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, internalError(err)
	}

	deleted, err := m.sessions.DeleteSession(ctx, hash)
	if err != nil {
		return false, internalError(err)
	}
	if deleted {
		m.activity.Log(ctx, ActivityInput{
			Actor:      model.Actor{SessionID: sess.ID, AdminUsername: sess.AdminUsername},
			Action:     model.ActionLogout,
			TargetType: model.TargetSession,
			TargetID:   sess.ID,
		})
		m.log.Info().Str("admin", sess.AdminUsername).Str("session_id", sess.ID).Msg("admin logged out")
	}
	return deleted, nil
}

// GetRecentActivity returns the newest audit entries, most recent first.
func (m *SessionManager) GetRecentActivity(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	return m.activity.Recent(ctx, limit)
}

// GetDashboardStats returns a best-effort snapshot of the dashboard counts.
func (m *SessionManager) GetDashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	stats, err := m.stats.DashboardStats(ctx, m.clock())
	if err != nil {
		return nil, internalError(err)
	}
	return stats, nil
}

// LogActivity records an admin action. It never fails the caller.
func (m *SessionManager) LogActivity(ctx context.Context, in ActivityInput) {
	m.activity.Log(ctx, in)
}

// ListSessions returns the live sessions of username, or of every admin
// when username is empty.
func (m *SessionManager) ListSessions(ctx context.Context, username string) ([]model.AdminSession, error) {
	sessions, err := m.sessions.ListSessions(ctx, username, m.clock())
	if err != nil {
		return nil, internalError(err)
	}
	return sessions, nil
}

// PurgeExpired deletes every expired session and returns how many were
// removed. actor, when set, is recorded as the initiator in the audit trail.
func (m *SessionManager) PurgeExpired(ctx context.Context, actor model.Actor) (int64, error) {
	n, err := m.sessions.DeleteExpiredSessions(ctx, m.clock())
	if err != nil {
		return 0, internalError(err)
	}
	if n > 0 && actor.AdminUsername != "" {
		m.activity.Log(ctx, ActivityInput{
			Actor:    actor,
			Action:   model.ActionPurgeSessions,
			Metadata: map[string]any{"purged": n},
		})
	}
	return n, nil
}

func clientMetadata(ip, userAgent string) map[string]any {
	meta := map[string]any{}
	if ip != "" {
		meta["ipAddress"] = ip
	}
	if userAgent != "" {
		meta["userAgent"] = userAgent
	}
	return meta
}

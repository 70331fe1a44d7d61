package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/service"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/store"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

const (
	testAdmin    = "moderator"
	testPassword = "supersecretpassword"
	testCookie   = "puzzlr_admin_session"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// testEnv holds all the shared state for integration tests.
type testEnv struct {
	server *Server
	store  *store.Store
	clock  *testClock
}

// newTestEnv creates a fresh test environment with an in-memory store, one
// admin credential, and a fully wired Server.
func newTestEnv(t *testing.T, mutate ...func(*Config)) *testEnv {
	t.Helper()

	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("store.OpenMemory: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	clock := &testClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	logger := zerolog.Nop()

	activity := service.NewActivityLogger(st, logger, service.ActivityOptions{Now: clock.Now})
	sessions := service.NewSessionManager(st, service.NewCredentialVerifier(st), activity, st, logger,
		service.SessionOptions{Lifetime: time.Hour, Now: clock.Now})
	moderation := service.NewModerationService(st, activity, service.ModerationOptions{Now: clock.Now})

	hash, err := service.HashPasswordWithCost(testPassword, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPasswordWithCost: %v", err)
	}
	if err := st.CreateCredential(context.Background(), &model.AdminCredential{
		Username: testAdmin, PasswordHash: hash, CreatedAt: clock.Now(),
	}); err != nil {
		t.Fatalf("CreateCredential: %v", err)
	}

	cfg := DefaultConfig()
	cfg.CookieName = testCookie
	for _, m := range mutate {
		m(&cfg)
	}
	srv := New(cfg, Deps{Store: st, Sessions: sessions, Moderation: moderation}, logger)

	return &testEnv{server: srv, store: st, clock: clock}
}

// do sends a request through the router, attaching the session cookie when
// token is non-empty.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, token string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	e.server.ServeHTTP(rr, req)
	return rr
}

// login signs in the test admin and returns the session token.
func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	rr := e.do(t, "POST", "/admin/auth/login", jsonBody(t, map[string]string{
		"username": testAdmin, "password": testPassword,
	}), "", nil)
	assertStatus(t, rr, http.StatusOK)

	c := sessionCookie(rr)
	if c == nil || c.Value == "" {
		t.Fatal("login did not set the session cookie")
	}
	return c.Value
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	return bytes.NewBuffer(b)
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected status %d, got %d; body: %s", want, rr.Code, rr.Body.String())
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v; body: %s", err, rr.Body.String())
	}
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == testCookie {
			return c
		}
	}
	return nil
}

func assertCookieCleared(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	c := sessionCookie(rr)
	if c == nil {
		t.Fatal("expected the session cookie to be cleared")
	}
	if c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("cookie not cleared: MaxAge=%d Value=%q", c.MaxAge, c.Value)
	}
}

// ---------------------------------------------------------------------------
// Health and documentation
// ---------------------------------------------------------------------------

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/healthz", nil, "", nil)
	assertStatus(t, rr, http.StatusOK)

	var body map[string]string
	decodeJSON(t, rr, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %q", body["status"])
	}
}

func TestReadyz(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/readyz", nil, "", nil)
	assertStatus(t, rr, http.StatusOK)

	env.store.Close()
	rr = env.do(t, "GET", "/readyz", nil, "", nil)
	assertStatus(t, rr, http.StatusServiceUnavailable)
}

func TestOpenAPIIsPublic(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/openapi.json", nil, "", nil)
	assertStatus(t, rr, http.StatusOK)

	var doc map[string]any
	decodeJSON(t, rr, &doc)
	if doc["openapi"] != "3.1.0" {
		t.Errorf("openapi = %v", doc["openapi"])
	}
}

// ---------------------------------------------------------------------------
// Login / validate / logout
// ---------------------------------------------------------------------------

func TestLoginSetsCookie(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "POST", "/admin/auth/login", jsonBody(t, map[string]string{
		"username": testAdmin, "password": testPassword,
	}), "", nil)
	assertStatus(t, rr, http.StatusOK)

	var body struct {
		Success   bool      `json:"success"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	decodeJSON(t, rr, &body)
	if !body.Success {
		t.Error("expected success=true")
	}
	if want := env.clock.Now().Add(time.Hour); !body.ExpiresAt.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", body.ExpiresAt, want)
	}

	c := sessionCookie(rr)
	if c == nil {
		t.Fatal("no session cookie")
	}
	if !c.HttpOnly || c.SameSite != http.SameSiteLaxMode || c.Path != "/" {
		t.Errorf("cookie attributes = %+v", c)
	}
	if c.Secure {
		t.Error("cookie must not be Secure outside production")
	}
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		body any
		want int
	}{
		{"wrong password", map[string]string{"username": testAdmin, "password": "nope"}, http.StatusUnauthorized},
		{"unknown admin", map[string]string{"username": "ghost", "password": testPassword}, http.StatusUnauthorized},
		{"missing password", map[string]string{"username": testAdmin}, http.StatusBadRequest},
		{"missing username", map[string]string{"password": testPassword}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "POST", "/admin/auth/login", jsonBody(t, tt.body), "", nil)
			assertStatus(t, rr, tt.want)
			if sessionCookie(rr) != nil {
				t.Error("failed login must not set a cookie")
			}
		})
	}

	t.Run("wrong password and unknown admin look the same", func(t *testing.T) {
		a := env.do(t, "POST", "/admin/auth/login", jsonBody(t, map[string]string{"username": testAdmin, "password": "nope"}), "", nil)
		b := env.do(t, "POST", "/admin/auth/login", jsonBody(t, map[string]string{"username": "ghost", "password": "nope"}), "", nil)
		if a.Body.String() != b.Body.String() {
			t.Errorf("responses differ:\n%s\n%s", a.Body.String(), b.Body.String())
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		rr := env.do(t, "POST", "/admin/auth/login", strings.NewReader("{"), "", nil)
		assertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestValidate(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	env.clock.Advance(10 * time.Minute)
	rr := env.do(t, "GET", "/admin/auth/validate", nil, token, nil)
	assertStatus(t, rr, http.StatusOK)

	var body struct {
		Valid   bool `json:"valid"`
		Session struct {
			AdminUsername  string    `json:"adminUsername"`
			LastAccessedAt time.Time `json:"lastAccessedAt"`
		} `json:"session"`
	}
	decodeJSON(t, rr, &body)
	if !body.Valid || body.Session.AdminUsername != testAdmin {
		t.Errorf("validate body = %+v", body)
	}
	if !body.Session.LastAccessedAt.Equal(env.clock.Now()) {
		t.Errorf("lastAccessedAt = %v, want %v", body.Session.LastAccessedAt, env.clock.Now())
	}

	t.Run("without cookie", func(t *testing.T) {
		rr := env.do(t, "GET", "/admin/auth/validate", nil, "", nil)
		assertStatus(t, rr, http.StatusUnauthorized)
		var body struct {
			Valid bool   `json:"valid"`
			Error string `json:"error"`
		}
		decodeJSON(t, rr, &body)
		if body.Valid || body.Error == "" {
			t.Errorf("body = %+v", body)
		}
		assertCookieCleared(t, rr)
	})
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rr := env.do(t, "POST", "/admin/auth/logout", nil, token, nil)
	assertStatus(t, rr, http.StatusOK)
	var body map[string]bool
	decodeJSON(t, rr, &body)
	if !body["success"] {
		t.Errorf("logout body = %v", body)
	}
	assertCookieCleared(t, rr)

	rr = env.do(t, "GET", "/admin/stats", nil, token, nil)
	assertStatus(t, rr, http.StatusUnauthorized)

	rr = env.do(t, "POST", "/admin/auth/logout", nil, "", nil)
	assertStatus(t, rr, http.StatusUnauthorized)
}

func TestExpiredSessionIsRejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	env.clock.Advance(time.Hour)
	rr := env.do(t, "GET", "/admin/stats", nil, token, nil)
	assertStatus(t, rr, http.StatusUnauthorized)
	assertCookieCleared(t, rr)

	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeJSON(t, rr, &body)
	if body.Error.Message != "session expired" {
		t.Errorf("message = %q", body.Error.Message)
	}

	// The expired row was deleted on the first rejection.
	rr = env.do(t, "GET", "/admin/stats", nil, token, nil)
	assertStatus(t, rr, http.StatusUnauthorized)
}

// ---------------------------------------------------------------------------
// Route guarding
// ---------------------------------------------------------------------------

func TestAdminRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)
	routes := []struct{ method, path string }{
		{"GET", "/admin/activity"},
		{"GET", "/admin/stats"},
		{"GET", "/admin/sessions"},
		{"POST", "/admin/sessions/purge"},
		{"GET", "/admin/puzzles"},
		{"POST", "/admin/puzzles/p1/approve"},
		{"POST", "/admin/puzzles/p1/reject"},
		{"GET", "/admin/feedback"},
		{"PATCH", "/admin/feedback/f1"},
		{"POST", "/admin/auth/logout"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rr := env.do(t, rt.method, rt.path, nil, "", nil)
			assertStatus(t, rr, http.StatusUnauthorized)
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}

	t.Run("garbage cookie", func(t *testing.T) {
		rr := env.do(t, "GET", "/admin/stats", nil, "not-a-token", nil)
		assertStatus(t, rr, http.StatusUnauthorized)
		assertCookieCleared(t, rr)
	})
}

func TestPageRequestRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/admin?tab=feedback", nil, "", map[string]string{"Accept": "text/html,application/xhtml+xml"})
	assertStatus(t, rr, http.StatusFound)

	want := "/admin/login?next=" + "%2Fadmin%3Ftab%3Dfeedback"
	if loc := rr.Header().Get("Location"); loc != want {
		t.Errorf("Location = %q, want %q", loc, want)
	}
}

func TestLoginPageIsPublic(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/admin/login", nil, "", map[string]string{"Accept": "text/html"})
	assertStatus(t, rr, http.StatusOK)
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestDashboardPageWithSession(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	rr := env.do(t, "GET", "/admin", nil, token, map[string]string{"Accept": "text/html"})
	assertStatus(t, rr, http.StatusOK)
}

func TestPathsOutsidePrefixAreNotGuarded(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/administrator", nil, "", nil)
	assertStatus(t, rr, http.StatusNotFound)
}

// ---------------------------------------------------------------------------
// Dashboard
// ---------------------------------------------------------------------------

func TestActivityFeed(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rr := env.do(t, "GET", "/admin/activity", nil, token, nil)
	assertStatus(t, rr, http.StatusOK)

	var entries []model.ActivityEntry
	decodeJSON(t, rr, &entries)
	if len(entries) != 1 || entries[0].Action != model.ActionLogin || entries[0].AdminUsername != testAdmin {
		t.Fatalf("entries = %+v", entries)
	}

	env.login(t)
	env.login(t)
	rr = env.do(t, "GET", "/admin/activity?limit=2", nil, token, nil)
	assertStatus(t, rr, http.StatusOK)
	entries = nil
	decodeJSON(t, rr, &entries)
	if len(entries) != 2 {
		t.Errorf("limit=2 returned %d entries", len(entries))
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, title := range []string{"Alpine Lake", "Night Market"} {
		if err := env.store.CreatePuzzle(ctx, &model.Puzzle{Title: title, PieceCount: 1000, SubmittedAt: env.clock.Now()}); err != nil {
			t.Fatalf("CreatePuzzle: %v", err)
		}
	}
	token := env.login(t)

	rr := env.do(t, "GET", "/admin/stats", nil, token, nil)
	assertStatus(t, rr, http.StatusOK)

	var stats model.DashboardStats
	decodeJSON(t, rr, &stats)
	if stats.PendingPuzzles != 2 || stats.ActiveAdminSessions != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSessionsListAndPurge(t *testing.T) {
	env := newTestEnv(t)
	old := env.login(t)
	env.clock.Advance(30 * time.Minute)
	token := env.login(t)

	rr := env.do(t, "GET", "/admin/sessions", nil, token, nil)
	assertStatus(t, rr, http.StatusOK)
	var list struct {
		Resource []model.AdminSession `json:"resource"`
		Meta     model.ResponseMeta   `json:"meta"`
	}
	decodeJSON(t, rr, &list)
	if list.Meta.Count != 2 {
		t.Fatalf("expected 2 live sessions, got %d", list.Meta.Count)
	}

	// The first session runs out; purge removes it without a lookup.
	env.clock.Advance(31 * time.Minute)
	rr = env.do(t, "POST", "/admin/sessions/purge", nil, token, nil)
	assertStatus(t, rr, http.StatusOK)
	var purged map[string]int64
	decodeJSON(t, rr, &purged)
	if purged["purged"] != 1 {
		t.Errorf("purged = %v", purged)
	}

	rr = env.do(t, "GET", "/admin/stats", nil, old, nil)
	assertStatus(t, rr, http.StatusUnauthorized)
}

// ---------------------------------------------------------------------------
// Moderation
// ---------------------------------------------------------------------------

func TestPuzzleModeration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := &model.Puzzle{Title: "Harbour Lights", PieceCount: 500, SubmittedAt: env.clock.Now()}
	if err := env.store.CreatePuzzle(ctx, p); err != nil {
		t.Fatalf("CreatePuzzle: %v", err)
	}
	q := &model.Puzzle{Title: "Spice Route", PieceCount: 750, SubmittedAt: env.clock.Now()}
	if err := env.store.CreatePuzzle(ctx, q); err != nil {
		t.Fatalf("CreatePuzzle: %v", err)
	}
	token := env.login(t)

	rr := env.do(t, "GET", "/admin/puzzles", nil, token, nil)
	assertStatus(t, rr, http.StatusOK)
	var list struct {
		Resource []model.Puzzle     `json:"resource"`
		Meta     model.ResponseMeta `json:"meta"`
	}
	decodeJSON(t, rr, &list)
	if list.Meta.Count != 2 || list.Meta.Limit != 50 {
		t.Errorf("meta = %+v", list.Meta)
	}

	rr = env.do(t, "POST", "/admin/puzzles/"+p.ID+"/approve", nil, token, nil)
	assertStatus(t, rr, http.StatusOK)
	var approved model.Puzzle
	decodeJSON(t, rr, &approved)
	if approved.Status != model.PuzzleApproved || approved.ReviewedBy != testAdmin {
		t.Errorf("approved = %+v", approved)
	}

	rr = env.do(t, "POST", "/admin/puzzles/"+p.ID+"/approve", nil, token, nil)
	assertStatus(t, rr, http.StatusConflict)

	rr = env.do(t, "POST", "/admin/puzzles/missing/approve", nil, token, nil)
	assertStatus(t, rr, http.StatusNotFound)

	rr = env.do(t, "POST", "/admin/puzzles/"+q.ID+"/reject", jsonBody(t, map[string]string{"reason": "  "}), token, nil)
	assertStatus(t, rr, http.StatusBadRequest)

	rr = env.do(t, "POST", "/admin/puzzles/"+q.ID+"/reject", jsonBody(t, map[string]string{"reason": "duplicate listing"}), token, nil)
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "GET", "/admin/activity", nil, token, nil)
	var entries []model.ActivityEntry
	decodeJSON(t, rr, &entries)
	if len(entries) != 3 {
		t.Fatalf("expected login, approve and reject entries, got %+v", entries)
	}
	if entries[0].Action != model.ActionRejectPuzzle || entries[1].Action != model.ActionApprovePuzzle {
		t.Errorf("actions = %s, %s", entries[0].Action, entries[1].Action)
	}
	if entries[1].TargetID != p.ID || entries[1].TargetType != model.TargetPuzzle {
		t.Errorf("approve entry = %+v", entries[1])
	}
}

func TestFeedbackTriage(t *testing.T) {
	env := newTestEnv(t)
	f := &model.Feedback{Message: "Piece count is wrong", CreatedAt: env.clock.Now()}
	if err := env.store.CreateFeedback(context.Background(), f); err != nil {
		t.Fatalf("CreateFeedback: %v", err)
	}
	token := env.login(t)

	rr := env.do(t, "PATCH", "/admin/feedback/"+f.ID, jsonBody(t, map[string]string{"status": "archived"}), token, nil)
	assertStatus(t, rr, http.StatusBadRequest)

	rr = env.do(t, "PATCH", "/admin/feedback/"+f.ID, jsonBody(t, map[string]string{"status": "resolved"}), token, nil)
	assertStatus(t, rr, http.StatusOK)
	var updated model.Feedback
	decodeJSON(t, rr, &updated)
	if updated.Status != model.FeedbackResolved {
		t.Errorf("status = %s", updated.Status)
	}

	rr = env.do(t, "GET", "/admin/feedback?status=new", nil, token, nil)
	assertStatus(t, rr, http.StatusOK)
	var list struct {
		Meta model.ResponseMeta `json:"meta"`
	}
	decodeJSON(t, rr, &list)
	if list.Meta.Count != 0 {
		t.Errorf("expected no new feedback, got %d", list.Meta.Count)
	}

	rr = env.do(t, "PATCH", "/admin/feedback/missing", jsonBody(t, map[string]string{"status": "reviewed"}), token, nil)
	assertStatus(t, rr, http.StatusNotFound)
}

// ---------------------------------------------------------------------------
// Login rate limit
// ---------------------------------------------------------------------------

func TestLoginRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.LoginRateLimit = 2 })

	for i := 0; i < 2; i++ {
		rr := env.do(t, "POST", "/admin/auth/login", jsonBody(t, map[string]string{"username": testAdmin, "password": "nope"}), "", nil)
		assertStatus(t, rr, http.StatusUnauthorized)
	}
	rr := env.do(t, "POST", "/admin/auth/login", jsonBody(t, map[string]string{"username": testAdmin, "password": testPassword}), "", nil)
	assertStatus(t, rr, http.StatusTooManyRequests)

	// Other admin routes are not limited.
	rr = env.do(t, "GET", "/healthz", nil, "", nil)
	assertStatus(t, rr, http.StatusOK)
}

func TestConfigFromProductionSecuresCookie(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.SecureCookie = true })
	rr := env.do(t, "POST", "/admin/auth/login", jsonBody(t, map[string]string{
		"username": testAdmin, "password": testPassword,
	}), "", nil)
	assertStatus(t, rr, http.StatusOK)
	if c := sessionCookie(rr); c == nil || !c.Secure {
		t.Errorf("expected a Secure cookie, got %+v", c)
	}
}

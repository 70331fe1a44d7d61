package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/store"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	store    *store.Store
	clock    *fakeClock
	activity *ActivityLogger
	mgr      *SessionManager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, nil, SessionOptions{})
}

func newHarnessWith(t *testing.T, activityStore ActivityStore, opts SessionOptions) *harness {
	t.Helper()
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	clock := newFakeClock()
	if activityStore == nil {
		activityStore = st
	}
	activity := NewActivityLogger(activityStore, zerolog.Nop(), ActivityOptions{Now: clock.Now})
	opts.Now = clock.Now
	mgr := NewSessionManager(st, NewCredentialVerifier(st), activity, st, zerolog.Nop(), opts)

	h := &harness{store: st, clock: clock, activity: activity, mgr: mgr}
	h.addAdmin(t, "admin", "correct")
	return h
}

func (h *harness) addAdmin(t *testing.T, username, password string) {
	t.Helper()
	hash, err := HashPasswordWithCost(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPasswordWithCost: %v", err)
	}
	err = h.store.CreateCredential(context.Background(), &model.AdminCredential{
		Username: username, PasswordHash: hash, CreatedAt: h.clock.Now(),
	})
	if err != nil {
		t.Fatalf("CreateCredential: %v", err)
	}
}

func (h *harness) login(t *testing.T) *LoginResult {
	t.Helper()
	res, err := h.mgr.Login(context.Background(), LoginRequest{
		Username: "admin", Password: "correct", IPAddress: "198.51.100.4", UserAgent: "test-agent",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return res
}

func TestLoginThenValidate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.login(t)
	if len(res.Token) != 43 || !wellFormedToken(res.Token) {
		t.Fatalf("token %q is not a 256-bit base64url token", res.Token)
	}
	if want := res.Session.CreatedAt.Add(24 * time.Hour); !res.Session.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want createdAt+24h = %v", res.Session.ExpiresAt, want)
	}

	sess, err := h.mgr.ValidateSession(ctx, res.Token)
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if sess.ID != res.Session.ID || sess.AdminUsername != "admin" {
		t.Errorf("validated session = %+v", sess)
	}
	if sess.IPAddress != "198.51.100.4" || sess.UserAgent != "test-agent" {
		t.Errorf("client fields = %q, %q", sess.IPAddress, sess.UserAgent)
	}

	entries, err := h.mgr.GetRecentActivity(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecentActivity: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d activity entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Action != model.ActionLogin || e.SessionID != res.Session.ID || e.AdminUsername != "admin" {
		t.Errorf("login entry = %+v", e)
	}
	if !e.OccurredAt.Equal(res.Session.CreatedAt) {
		t.Errorf("OccurredAt = %v, want %v", e.OccurredAt, res.Session.CreatedAt)
	}
}

func TestTokensAreUnique(t *testing.T) {
	h := newHarness(t)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		tok := h.login(t).Token
		if seen[tok] {
			t.Fatalf("duplicate token after %d logins", i)
		}
		seen[tok] = true
	}
}

func TestLoginInvalidCredentialsIndistinguishable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, errWrong := h.mgr.Login(ctx, LoginRequest{Username: "admin", Password: "wrong"})
	_, errUnknown := h.mgr.Login(ctx, LoginRequest{Username: "nobody", Password: "correct"})
	_, errCase := h.mgr.Login(ctx, LoginRequest{Username: "ADMIN", Password: "correct"})

	for name, err := range map[string]error{"wrong password": errWrong, "unknown user": errUnknown, "case mismatch": errCase} {
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%s: err = %v, want ErrInvalidCredentials", name, err)
		}
	}
	if errWrong.Error() != errUnknown.Error() {
		t.Errorf("messages differ: %q vs %q", errWrong, errUnknown)
	}

	entries, _ := h.mgr.GetRecentActivity(ctx, 0)
	if len(entries) != 0 {
		t.Errorf("failed logins wrote %d activity entries", len(entries))
	}
}

func TestLoginRequiresFields(t *testing.T) {
	h := newHarness(t)
	for _, req := range []LoginRequest{
		{Username: "", Password: "x"},
		{Username: "admin", Password: ""},
		{Username: "   ", Password: "x"},
	} {
		_, err := h.mgr.Login(context.Background(), req)
		if KindOf(err) != KindValidation {
			t.Errorf("Login(%+v) kind = %v, want validation", req, KindOf(err))
		}
	}
}

func TestValidateKeepsExpiryAndAdvancesLastAccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.login(t)

	prev := res.Session.LastAccessedAt
	for i := 0; i < 5; i++ {
		h.clock.Advance(time.Minute)
		sess, err := h.mgr.ValidateSession(ctx, res.Token)
		if err != nil {
			t.Fatalf("ValidateSession #%d: %v", i, err)
		}
		if sess.LastAccessedAt.Before(prev) {
			t.Fatalf("LastAccessedAt went backwards: %v -> %v", prev, sess.LastAccessedAt)
		}
		if !sess.ExpiresAt.Equal(res.Session.ExpiresAt) {
			t.Fatalf("ExpiresAt moved: %v -> %v", res.Session.ExpiresAt, sess.ExpiresAt)
		}
		prev = sess.LastAccessedAt
	}

	stored, err := h.store.GetSession(ctx, hashToken(res.Token))
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if !stored.LastAccessedAt.Equal(h.clock.Now()) {
		t.Errorf("stored LastAccessedAt = %v, want %v", stored.LastAccessedAt, h.clock.Now())
	}
}

func TestValidateExpiredThenNotFound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.login(t)

	// Exactly at expiresAt the session is already expired.
	h.clock.Advance(24 * time.Hour)

	if _, err := h.mgr.ValidateSession(ctx, res.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("first validate err = %v, want ErrSessionExpired", err)
	}
	if _, err := h.mgr.ValidateSession(ctx, res.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("second validate err = %v, want ErrSessionNotFound", err)
	}
}

func TestValidateJustBeforeExpiry(t *testing.T) {
	h := newHarness(t)
	res := h.login(t)
	h.clock.Advance(24*time.Hour - time.Millisecond)
	if _, err := h.mgr.ValidateSession(context.Background(), res.Token); err != nil {
		t.Fatalf("ValidateSession 1ms before expiry: %v", err)
	}
}

func TestValidateMalformedToken(t *testing.T) {
	h := newHarness(t)
	for _, tok := range []string{"", "short", strings.Repeat("!", 43), strings.Repeat("a", 44)} {
		if _, err := h.mgr.ValidateSession(context.Background(), tok); !errors.Is(err, ErrNoSession) {
			t.Errorf("ValidateSession(%q) err = %v, want ErrNoSession", tok, err)
		}
	}

	unknown, err := newSessionToken()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.mgr.ValidateSession(context.Background(), unknown); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("unknown token err = %v, want ErrSessionNotFound", err)
	}
}

func TestConcurrentValidateOfExpiredSession(t *testing.T) {
	h := newHarness(t)
	res := h.login(t)
	h.clock.Advance(25 * time.Hour)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.mgr.ValidateSession(context.Background(), res.Token)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, ErrSessionExpired) && !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("validate #%d err = %v, want expired or not found", i, err)
		}
	}
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.login(t)

	ok, err := h.mgr.Logout(ctx, res.Token)
	if err != nil || !ok {
		t.Fatalf("Logout = %v, %v; want true, nil", ok, err)
	}
	if _, err := h.mgr.ValidateSession(ctx, res.Token); err == nil {
		t.Fatal("ValidateSession succeeded after logout")
	}

	ok, err = h.mgr.Logout(ctx, res.Token)
	if err != nil || ok {
		t.Fatalf("second Logout = %v, %v; want false, nil", ok, err)
	}
	for _, tok := range []string{"", "garbage"} {
		ok, err = h.mgr.Logout(ctx, tok)
		if err != nil || ok {
			t.Errorf("Logout(%q) = %v, %v; want false, nil", tok, ok, err)
		}
	}

	entries, _ := h.mgr.GetRecentActivity(ctx, 0)
	if len(entries) != 2 || entries[0].Action != model.ActionLogout || entries[1].Action != model.ActionLogin {
		t.Fatalf("activity = %+v, want [logout login]", entries)
	}
	if entries[0].SessionID != res.Session.ID {
		t.Errorf("logout sessionId = %q, want %q", entries[0].SessionID, res.Session.ID)
	}
}

func TestConcurrentLoginsPerAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a, b := h.login(t), h.login(t)

	if _, err := h.mgr.Logout(ctx, a.Token); err != nil {
		t.Fatal(err)
	}
	if _, err := h.mgr.ValidateSession(ctx, b.Token); err != nil {
		t.Errorf("second session invalidated by first logout: %v", err)
	}

	sessions, err := h.mgr.ListSessions(ctx, "admin")
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != b.Session.ID {
		t.Errorf("ListSessions = %+v", sessions)
	}
}

func TestRecentActivityLimits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 520; i++ {
		h.clock.Advance(time.Millisecond)
		h.mgr.LogActivity(ctx, ActivityInput{
			Actor:      model.Actor{SessionID: "s", AdminUsername: "admin"},
			Action:     model.ActionApprovePuzzle,
			TargetType: model.TargetPuzzle,
			TargetID:   fmt.Sprintf("p%d", i),
		})
	}

	tests := []struct {
		limit int
		want  int
	}{
		{limit: 0, want: 50},
		{limit: -3, want: 50},
		{limit: 10, want: 10},
		{limit: 500, want: 500},
		{limit: 10000, want: 500},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("limit=%d", tc.limit), func(t *testing.T) {
			got, err := h.mgr.GetRecentActivity(ctx, tc.limit)
			if err != nil {
				t.Fatalf("GetRecentActivity: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("got %d entries, want %d", len(got), tc.want)
			}
			if got[0].TargetID != "p519" {
				t.Errorf("newest entry = %s, want p519", got[0].TargetID)
			}
			for i := 1; i < len(got); i++ {
				if got[i].OccurredAt.After(got[i-1].OccurredAt) {
					t.Fatalf("entries out of order at %d", i)
				}
			}
		})
	}
}

type failingActivityStore struct{}

func (failingActivityStore) AppendActivity(context.Context, *model.ActivityEntry) error {
	return errors.New("disk full")
}

func (failingActivityStore) ListRecentActivity(context.Context, int) ([]model.ActivityEntry, error) {
	return nil, errors.New("disk full")
}

func TestActivityFailureDoesNotFailLogin(t *testing.T) {
	var buf bytes.Buffer
	h := newHarnessWith(t, failingActivityStore{}, SessionOptions{})
	h.activity.log = zerolog.New(&buf)

	res := h.login(t)
	if _, err := h.mgr.ValidateSession(context.Background(), res.Token); err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if !strings.Contains(buf.String(), "failed to record admin activity") {
		t.Errorf("expected the failure to be logged, got %q", buf.String())
	}

	if _, err := h.mgr.GetRecentActivity(context.Background(), 10); KindOf(err) != KindInternal {
		t.Errorf("GetRecentActivity kind = %v, want internal", KindOf(err))
	}
}

func TestActivityWriteSurvivesCancelledRequest(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h.mgr.LogActivity(ctx, ActivityInput{
		Actor:  model.Actor{AdminUsername: "admin"},
		Action: model.ActionUpdateFeedback,
	})

	entries, err := h.mgr.GetRecentActivity(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetRecentActivity: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
}

func TestActivityRejectsUnknownAction(t *testing.T) {
	h := newHarness(t)
	h.mgr.LogActivity(context.Background(), ActivityInput{Action: "drop_tables"})
	entries, _ := h.mgr.GetRecentActivity(context.Background(), 10)
	if len(entries) != 0 {
		t.Errorf("unknown action recorded: %+v", entries)
	}
}

func TestRecentActivitySkipsUnknownStoredActions(t *testing.T) {
	var logs bytes.Buffer
	h := newHarness(t)
	h.activity.log = zerolog.New(&logs)
	ctx := context.Background()

	h.login(t)
	// Written straight to the store, bypassing the logger's own check.
	err := h.store.AppendActivity(ctx, &model.ActivityEntry{
		AdminUsername: "admin",
		Action:        model.ActivityAction("drop_tables"),
		OccurredAt:    h.clock.Now().Add(time.Second),
	})
	if err != nil {
		t.Fatalf("AppendActivity: %v", err)
	}

	entries, err := h.mgr.GetRecentActivity(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecentActivity: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != model.ActionLogin {
		t.Errorf("entries = %+v, want only the login", entries)
	}
	if !strings.Contains(logs.String(), "drop_tables") {
		t.Errorf("expected the skipped row to be logged, got %q", logs.String())
	}
}

type recordingGuard struct {
	mu       sync.Mutex
	refuse   bool
	outcomes []bool
}

func (g *recordingGuard) Allow(context.Context, string, string) error {
	if g.refuse {
		return ErrLoginThrottled
	}
	return nil
}

func (g *recordingGuard) Record(_ context.Context, _, _ string, success bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outcomes = append(g.outcomes, success)
}

func TestLoginGuard(t *testing.T) {
	g := &recordingGuard{}
	h := newHarnessWith(t, nil, SessionOptions{Guard: g})
	ctx := context.Background()

	h.mgr.Login(ctx, LoginRequest{Username: "admin", Password: "nope"})
	h.login(t)
	if len(g.outcomes) != 2 || g.outcomes[0] || !g.outcomes[1] {
		t.Errorf("guard outcomes = %v, want [false true]", g.outcomes)
	}

	g.refuse = true
	_, err := h.mgr.Login(ctx, LoginRequest{Username: "admin", Password: "correct"})
	if !errors.Is(err, ErrLoginThrottled) || KindOf(err).HTTPStatus() != 429 {
		t.Errorf("throttled login err = %v", err)
	}
}

func TestPurgeExpired(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	old := h.login(t)
	h.clock.Advance(23 * time.Hour)
	fresh := h.login(t)
	h.clock.Advance(2 * time.Hour)

	n, err := h.mgr.PurgeExpired(ctx, model.Actor{SessionID: fresh.Session.ID, AdminUsername: "admin"})
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d, want 1", n)
	}
	if _, err := h.mgr.ValidateSession(ctx, old.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("old session err = %v, want ErrSessionNotFound", err)
	}

	entries, _ := h.mgr.GetRecentActivity(ctx, 1)
	if len(entries) != 1 || entries[0].Action != model.ActionPurgeSessions {
		t.Errorf("latest activity = %+v, want purge_sessions", entries)
	}
}

func TestDashboardStats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.login(t)
	if err := h.store.CreatePuzzle(ctx, &model.Puzzle{Title: "Koi Pond", SubmittedAt: h.clock.Now()}); err != nil {
		t.Fatal(err)
	}

	stats, err := h.mgr.GetDashboardStats(ctx)
	if err != nil {
		t.Fatalf("GetDashboardStats: %v", err)
	}
	if stats.PendingPuzzles != 1 || stats.ActiveAdminSessions != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestVerify(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	v := NewCredentialVerifier(h.store)
	v.dummyCost = bcrypt.MinCost

	// bcrypt only reads the first 72 bytes; a longer input must not match a
	// hash of its prefix.
	long := strings.Repeat("a", 72)
	h.addAdmin(t, "longpw", long)

	tests := []struct {
		user, pass string
		want       bool
	}{
		{"admin", "correct", true},
		{"admin", "Correct", false},
		{"admin", "", false},
		{"ghost", "correct", false},
		{"longpw", long, true},
		{"longpw", long + "WRONGSUFFIX", false},
		{"longpw", long + "a", false},
		{"ghost", long + "WRONGSUFFIX", false},
	}
	for _, tc := range tests {
		got, err := v.Verify(ctx, tc.user, tc.pass)
		if err != nil {
			t.Errorf("Verify(%q, %q): %v", tc.user, tc.pass, err)
		}
		if got != tc.want {
			t.Errorf("Verify(%q, %q) = %v, want %v", tc.user, tc.pass, got, tc.want)
		}
	}

	if err := h.store.CreateCredential(ctx, &model.AdminCredential{Username: "broken", PasswordHash: "not-bcrypt"}); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Verify(ctx, "broken", "x"); err == nil {
		t.Error("expected an error for an unusable stored hash")
	}
}

func TestHashPassword(t *testing.T) {
	if _, err := HashPasswordWithCost("", bcrypt.MinCost); KindOf(err) != KindValidation {
		t.Errorf("empty password kind = %v, want validation", KindOf(err))
	}
	if _, err := HashPasswordWithCost(strings.Repeat("x", 73), bcrypt.MinCost); KindOf(err) != KindValidation {
		t.Errorf("73-byte password kind = %v, want validation", KindOf(err))
	}
	h, err := HashPasswordWithCost("hunter2", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(h), []byte("hunter2")) != nil {
		t.Error("hash does not verify")
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err    error
		kind   Kind
		status int
	}{
		{validationError("bad"), KindValidation, 400},
		{ErrInvalidCredentials, KindAuthentication, 401},
		{ErrSessionExpired, KindAuthentication, 401},
		{notFoundError("gone"), KindNotFound, 404},
		{conflictError("busy"), KindConflict, 409},
		{ErrLoginThrottled, KindThrottled, 429},
		{internalError(errors.New("db down")), KindInternal, 500},
		{errors.New("plain"), KindInternal, 500},
		{fmt.Errorf("wrapped: %w", ErrNoSession), KindAuthentication, 401},
	}
	for _, tc := range tests {
		if got := KindOf(tc.err); got != tc.kind {
			t.Errorf("KindOf(%v) = %v, want %v", tc.err, got, tc.kind)
		}
		if got := KindOf(tc.err).HTTPStatus(); got != tc.status {
			t.Errorf("status(%v) = %d, want %d", tc.err, got, tc.status)
		}
	}

	if msg := PublicMessage(internalError(errors.New("password=hunter2"))); strings.Contains(msg, "hunter2") {
		t.Errorf("internal detail leaked: %q", msg)
	}
}

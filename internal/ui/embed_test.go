package ui

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoginPage(t *testing.T) {
	w := httptest.NewRecorder()
	LoginPage(w, httptest.NewRequest("GET", "/admin/login?next=%2Fadmin", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), `id="login"`) {
		t.Error("login form missing from page")
	}
}

func TestDashboardHead(t *testing.T) {
	w := httptest.NewRecorder()
	Dashboard(w, httptest.NewRequest("HEAD", "/admin", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("HEAD wrote %d body bytes", w.Body.Len())
	}
}

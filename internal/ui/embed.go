package ui

import (
	"embed"
	"net/http"
)

// Pages embeds the server-rendered admin pages. They are plain HTML that
// talk to the admin JSON API with fetch and the session cookie.
//
//go:embed pages/*.html
var Pages embed.FS

// LoginPage serves the admin sign-in form. After a successful login the
// browser is sent to the ?next= target the session middleware attached.
func LoginPage(w http.ResponseWriter, r *http.Request) {
	serve(w, r, "pages/login.html")
}

// Dashboard serves the admin landing page. It must be mounted behind the
// session middleware.
func Dashboard(w http.ResponseWriter, r *http.Request) {
	serve(w, r, "pages/dashboard.html")
}

func serve(w http.ResponseWriter, r *http.Request, name string) {
	body, err := Pages.ReadFile(name)
	if err != nil {
		http.Error(w, "page not available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(body)
	}
}

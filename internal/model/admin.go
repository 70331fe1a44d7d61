package model

import "time"

// AdminCredential is one admin principal allowed to sign in to the admin
// panel. Passwords are stored as bcrypt hashes.
type AdminCredential struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // bcrypt hash, never expose
	CreatedAt    time.Time `json:"createdAt"`
}

// AdminSession is one authenticated admin login. The opaque token that
// identifies it is handed to the client once and never stored in clear.
type AdminSession struct {
	ID             string    `json:"id"`
	AdminUsername  string    `json:"adminUsername"`
	CreatedAt      time.Time `json:"createdAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
	IPAddress      string    `json:"ipAddress,omitempty"`
	UserAgent      string    `json:"userAgent,omitempty"`
}

// Expired reports whether the session is no longer valid at now.
func (s *AdminSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Actor identifies the admin behind a request, for authorization checks and
// audit attribution.
type Actor struct {
	SessionID     string `json:"sessionId"`
	AdminUsername string `json:"adminUsername"`
}

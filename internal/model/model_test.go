package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseActivityAction(t *testing.T) {
	for _, a := range []ActivityAction{ActionLogin, ActionLogout, ActionApprovePuzzle, ActionRejectPuzzle, ActionUpdateFeedback, ActionPurgeSessions} {
		got, err := ParseActivityAction(string(a))
		if err != nil || got != a {
			t.Errorf("ParseActivityAction(%q) = %q, %v", a, got, err)
		}
		if !a.Valid() {
			t.Errorf("%q.Valid() = false", a)
		}
	}
	for _, s := range []string{"", "LOGIN", "grant_superuser"} {
		if _, err := ParseActivityAction(s); err == nil {
			t.Errorf("ParseActivityAction(%q): expected error", s)
		}
	}
}

func TestParseTargetType(t *testing.T) {
	for _, tt := range []TargetType{TargetNone, TargetSession, TargetPuzzle, TargetFeedback} {
		got, err := ParseTargetType(string(tt))
		if err != nil || got != tt {
			t.Errorf("ParseTargetType(%q) = %q, %v", tt, got, err)
		}
	}
	if _, err := ParseTargetType("planet"); err == nil || !strings.Contains(err.Error(), "planet") {
		t.Errorf("ParseTargetType(planet) error = %v", err)
	}
}

func TestParseCatalogStatuses(t *testing.T) {
	if _, err := ParsePuzzleStatus("approved"); err != nil {
		t.Errorf("ParsePuzzleStatus(approved): %v", err)
	}
	if _, err := ParsePuzzleStatus("deleted"); err == nil {
		t.Error("ParsePuzzleStatus(deleted): expected error")
	}
	if _, err := ParseFeedbackStatus("resolved"); err != nil {
		t.Errorf("ParseFeedbackStatus(resolved): %v", err)
	}
	if _, err := ParseFeedbackStatus("spam"); err == nil {
		t.Error("ParseFeedbackStatus(spam): expected error")
	}
}

func TestAdminCredentialJSONOmitsHash(t *testing.T) {
	c := AdminCredential{Username: "alice", PasswordHash: "$2a$10$secret", CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), "secret") {
		t.Errorf("password hash serialized: %s", b)
	}
}

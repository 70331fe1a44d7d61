package model

import (
	"fmt"
	"time"
)

// ActivityAction is the closed set of privileged actions recorded in the
// admin audit trail. Values persist as plain strings.
type ActivityAction string

const (
	ActionLogin          ActivityAction = "login"
	ActionLogout         ActivityAction = "logout"
	ActionApprovePuzzle  ActivityAction = "approve_puzzle"
	ActionRejectPuzzle   ActivityAction = "reject_puzzle"
	ActionUpdateFeedback ActivityAction = "update_feedback"
	ActionPurgeSessions  ActivityAction = "purge_sessions"
)

var activityActions = map[ActivityAction]bool{
	ActionLogin:          true,
	ActionLogout:         true,
	ActionApprovePuzzle:  true,
	ActionRejectPuzzle:   true,
	ActionUpdateFeedback: true,
	ActionPurgeSessions:  true,
}

// ParseActivityAction validates s against the known actions.
func ParseActivityAction(s string) (ActivityAction, error) {
	a := ActivityAction(s)
	if !activityActions[a] {
		return "", fmt.Errorf("unknown activity action %q", s)
	}
	return a, nil
}

// Valid reports whether a is one of the known actions.
func (a ActivityAction) Valid() bool {
	return activityActions[a]
}

// TargetType names the kind of entity an activity entry refers to.
type TargetType string

const (
	TargetNone     TargetType = ""
	TargetSession  TargetType = "session"
	TargetPuzzle   TargetType = "puzzle"
	TargetFeedback TargetType = "feedback"
)

// ParseTargetType validates s against the known target types. The empty
// string is accepted and means the entry has no target.
func ParseTargetType(s string) (TargetType, error) {
	switch t := TargetType(s); t {
	case TargetNone, TargetSession, TargetPuzzle, TargetFeedback:
		return t, nil
	}
	return "", fmt.Errorf("unknown target type %q", s)
}

// ActivityEntry is an immutable audit record of one admin action.
type ActivityEntry struct {
	ID            string         `json:"id"`
	SessionID     string         `json:"sessionId"`
	AdminUsername string         `json:"adminUsername"`
	Action        ActivityAction `json:"action"`
	TargetType    TargetType     `json:"targetType,omitempty"`
	TargetID      string         `json:"targetId,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	OccurredAt    time.Time      `json:"occurredAt"`
}

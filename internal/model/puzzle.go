package model

import (
	"fmt"
	"time"
)

// PuzzleStatus is the moderation state of a user-submitted puzzle.
type PuzzleStatus string

const (
	PuzzlePending  PuzzleStatus = "pending"
	PuzzleApproved PuzzleStatus = "approved"
	PuzzleRejected PuzzleStatus = "rejected"
)

// ParsePuzzleStatus validates s against the known puzzle states.
func ParsePuzzleStatus(s string) (PuzzleStatus, error) {
	switch p := PuzzleStatus(s); p {
	case PuzzlePending, PuzzleApproved, PuzzleRejected:
		return p, nil
	}
	return "", fmt.Errorf("unknown puzzle status %q", s)
}

// Puzzle is a catalog entry as seen by moderators.
type Puzzle struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Brand           string       `json:"brand,omitempty"`
	PieceCount      int          `json:"pieceCount"`
	Status          PuzzleStatus `json:"status"`
	SubmittedBy     string       `json:"submittedBy,omitempty"`
	SubmittedAt     time.Time    `json:"submittedAt"`
	ReviewedBy      string       `json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time   `json:"reviewedAt,omitempty"`
	RejectionReason string       `json:"rejectionReason,omitempty"`
}

// FeedbackStatus tracks how far a piece of user feedback has been handled.
type FeedbackStatus string

const (
	FeedbackNew      FeedbackStatus = "new"
	FeedbackReviewed FeedbackStatus = "reviewed"
	FeedbackResolved FeedbackStatus = "resolved"
)

// ParseFeedbackStatus validates s against the known feedback states.
func ParseFeedbackStatus(s string) (FeedbackStatus, error) {
	switch f := FeedbackStatus(s); f {
	case FeedbackNew, FeedbackReviewed, FeedbackResolved:
		return f, nil
	}
	return "", fmt.Errorf("unknown feedback status %q", s)
}

// Feedback is a message left by a user for the moderators.
type Feedback struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId,omitempty"`
	Message   string         `json:"message"`
	Status    FeedbackStatus `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// User is the slice of an end-user account the admin panel reads.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// DashboardStats is a best-effort snapshot of the counts shown on the admin
// dashboard. The counts are read independently and need not be mutually
// consistent.
type DashboardStats struct {
	PendingPuzzles      int64     `json:"pendingPuzzles"`
	ApprovedPuzzles     int64     `json:"approvedPuzzles"`
	RejectedPuzzles     int64     `json:"rejectedPuzzles"`
	TotalUsers          int64     `json:"totalUsers"`
	NewUsersThisWeek    int64     `json:"newUsersThisWeek"`
	TotalCompletions    int64     `json:"totalCompletions"`
	OpenFeedback        int64     `json:"openFeedback"`
	ActiveAdminSessions int64     `json:"activeAdminSessions"`
	GeneratedAt         time.Time `json:"generatedAt"`
}

package service

import "context"

// LoginGuard is the hook for brute-force protection around Login. Allow is
// called before credentials are checked and may refuse the attempt (return
// ErrLoginThrottled or another *Error); Record is told the outcome.
type LoginGuard interface {
	Allow(ctx context.Context, username, ipAddress string) error
	Record(ctx context.Context, username, ipAddress string, success bool)
}

// NoopGuard allows every attempt.
type NoopGuard struct{}

func (NoopGuard) Allow(context.Context, string, string) error  { return nil }
func (NoopGuard) Record(context.Context, string, string, bool) {}

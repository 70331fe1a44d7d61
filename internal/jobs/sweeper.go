package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
)

// Purger deletes expired admin sessions and reports how many went.
type Purger interface {
	PurgeExpired(ctx context.Context, actor model.Actor) (int64, error)
}

// Sweeper periodically deletes expired admin sessions. Lookups already
// purge expired rows lazily; the sweeper only keeps abandoned ones from
// piling up.
type Sweeper struct {
	cron    *cron.Cron
	purger  Purger
	timeout time.Duration
	log     zerolog.Logger
}

// NewSweeper creates a Sweeper. Schedules use the six-field cron format
// with a leading seconds field.
func NewSweeper(purger Purger, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		cron:    cron.New(cron.WithSeconds()),
		purger:  purger,
		timeout: 30 * time.Second,
		log:     log,
	}
}

// Start schedules the sweep and starts the cron runner. An empty schedule
// leaves the sweeper disabled.
func (s *Sweeper) Start(schedule string) error {
	if schedule == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(schedule, s.Sweep); err != nil {
		return fmt.Errorf("invalid sessions.sweep_schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	s.log.Info().Str("schedule", schedule).Msg("session sweeper started")
	return nil
}

// Stop halts the scheduler and waits up to five seconds for a running
// sweep to finish.
func (s *Sweeper) Stop() {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("session sweep still running at shutdown")
	}
}

// Sweep runs one purge. It is what the schedule invokes.
func (s *Sweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.purger.PurgeExpired(ctx, model.Actor{})
	if err != nil {
		s.log.Error().Err(err).Msg("session sweep failed")
		return
	}
	if n > 0 {
		s.log.Info().Int64("purged", n).Msg("expired admin sessions purged")
	}
}

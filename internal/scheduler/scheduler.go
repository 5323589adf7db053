// Package scheduler runs a job on a cron schedule in a fixed timezone.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work. Errors are logged, not fatal.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner holding at most one entry.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location

	mu      sync.Mutex
	entryID cron.EntryID
	ctx     context.Context
}

// New creates a Scheduler in the given timezone. An empty timezone means UTC.
func New(timezone string) (*Scheduler, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", timezone, err)
	}

	logger := slogLogger{}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	return &Scheduler{cron: c, location: loc, ctx: context.Background()}, nil
}

// Schedule installs job under a standard five-field cron expression or a
// descriptor such as "@hourly" or "@every 6h". A previous entry is replaced.
func (s *Scheduler) Schedule(spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}

	id, err := s.cron.AddFunc(spec, func() {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()

		if err := job(ctx); err != nil {
			slog.Error("Scheduled job failed", "schedule", spec, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	s.entryID = id
	slog.Info("Job scheduled", "schedule", spec, "timezone", s.location.String())
	return nil
}

// Next reports when the scheduled job runs next. The zero time means
// nothing is scheduled or the runner has not started.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the runner and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Run starts the runner and blocks until ctx is cancelled. Jobs receive ctx.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.Start()
	if next := s.Next(); !next.IsZero() {
		slog.Info("Scheduler running", "next", next.Format(time.RFC3339))
	}
	<-ctx.Done()
	s.Stop()
	return ctx.Err()
}

// slogLogger routes cron's own logging through slog.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

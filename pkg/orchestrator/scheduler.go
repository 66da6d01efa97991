package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/snapvault-io/snapvault/pkg/snapshot"
)

// Scheduler runs retention cycles on a cron schedule.
type Scheduler struct {
	orchestrator *Orchestrator
	schedule     string
	dryRun       bool
	cron         *cron.Cron
	mu           sync.Mutex
	logger       *slog.Logger
	running      bool
}

// NewScheduler creates a scheduler that runs cycles per the cron
// expression (standard five-field syntax, e.g. "0 3 * * *" for daily
// at 3 AM).
func NewScheduler(orchestrator *Orchestrator, schedule string, dryRun bool) *Scheduler {
	return &Scheduler{
		orchestrator: orchestrator,
		schedule:     schedule,
		dryRun:       dryRun,
		cron:         cron.New(),
		logger:       slog.Default().With("component", "orchestrator.scheduler"),
	}
}

// Start begins scheduled cycles. If the schedule is empty the scheduler
// does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("cycle schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule retention cycles: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("cycle scheduler started",
		"schedule", s.schedule,
		"dry_run", s.dryRun,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runCycle executes one scheduled cycle.
func (s *Scheduler) runCycle(ctx context.Context) {
	s.logger.Info("starting scheduled retention cycle")

	summary, err := s.orchestrator.Run(ctx, s.dryRun)
	if err != nil {
		var concurrency *snapshot.ConcurrencyError
		if errors.As(err, &concurrency) {
			// Another cycle is in flight; this tick simply yields.
			s.logger.Warn("scheduled cycle skipped", "error", err)
			return
		}
		s.logger.Error("scheduled cycle failed", "error", err)
		return
	}

	s.logger.Info("scheduled cycle finished",
		"cycle_id", summary.CycleID,
		"state", string(summary.State),
	)
}

// Stop stops the scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("cycle scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled cycle time, or nil when nothing
// is scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}

package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper removes expired rate limit buckets.
type Sweeper interface {
	Sweep(now time.Time) int
}

// Cleaner removes usage counters from past periods.
type Cleaner interface {
	Cleanup(ctx context.Context) (int, error)
}

// Config contains the job schedules. An empty schedule disables its job.
//
// Common expressions:
//   - "@hourly"      - Every hour
//   - "0 3 * * *"    - Daily at 3 AM
//   - "*/15 * * * *" - Every 15 minutes
type Config struct {
	SweepSchedule   string
	CleanupSchedule string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Scheduler runs the sweep and cleanup jobs on their schedules.
type Scheduler struct {
	config  Config
	sweeper Sweeper
	cleaner Cleaner
	now     func() time.Time

	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// NewScheduler creates a scheduler. Either job target may be nil, which
// disables that job regardless of its schedule.
func NewScheduler(config Config, sweeper Sweeper, cleaner Cleaner) *Scheduler {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		config:  config,
		sweeper: sweeper,
		cleaner: cleaner,
		now:     time.Now,
		cron:    cron.New(),
		logger:  logger.With("component", "limits.janitor"),
	}
}

// Validate checks both schedules without starting anything.
func (c Config) Validate() error {
	for name, spec := range map[string]string{
		"sweep":   c.SweepSchedule,
		"cleanup": c.CleanupSchedule,
	} {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid %s schedule %q: %w", name, spec, err)
		}
	}
	return nil
}

// Start schedules the configured jobs and stops them when ctx is done.
// With no job configured it logs and returns without running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.config.Validate(); err != nil {
		return err
	}

	jobs := 0
	if s.config.SweepSchedule != "" && s.sweeper != nil {
		if _, err := s.cron.AddFunc(s.config.SweepSchedule, func() { s.RunSweep() }); err != nil {
			return fmt.Errorf("failed to schedule sweep: %w", err)
		}
		jobs++
	}
	if s.config.CleanupSchedule != "" && s.cleaner != nil {
		if _, err := s.cron.AddFunc(s.config.CleanupSchedule, func() { s.RunCleanup(ctx) }); err != nil {
			return fmt.Errorf("failed to schedule cleanup: %w", err)
		}
		jobs++
	}

	if jobs == 0 {
		s.logger.Info("no janitor jobs configured, skipping scheduler")
		return nil
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("janitor started",
		"sweep_schedule", s.config.SweepSchedule,
		"cleanup_schedule", s.config.CleanupSchedule,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunSweep executes one sweep and returns how many buckets it removed.
func (s *Scheduler) RunSweep() int {
	if s.sweeper == nil {
		return 0
	}

	removed := s.sweeper.Sweep(s.now())
	if removed > 0 {
		s.logger.Info("rate limit sweep completed", "removed", removed)
	} else {
		s.logger.Debug("rate limit sweep completed, nothing expired")
	}
	return removed
}

// RunCleanup executes one usage cleanup and returns how many counters it
// removed.
func (s *Scheduler) RunCleanup(ctx context.Context) (int, error) {
	if s.cleaner == nil {
		return 0, nil
	}

	deleted, err := s.cleaner.Cleanup(ctx)
	if err != nil {
		s.logger.Error("usage cleanup failed", "error", err)
		return 0, err
	}

	if deleted > 0 {
		s.logger.Info("usage cleanup completed", "deleted_count", deleted)
	} else {
		s.logger.Debug("usage cleanup completed, no counters deleted")
	}
	return deleted, nil
}

// Stop stops the scheduler and waits for any running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("janitor stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the earliest next run across the scheduled jobs.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next *time.Time
	for _, e := range s.cron.Entries() {
		if next == nil || e.Next.Before(*next) {
			t := e.Next
			next = &t
		}
	}
	return next
}

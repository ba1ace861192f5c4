package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Pruner deletes persisted station readings received before cutoff.
type Pruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler periodically removes station readings older than the retention window.
type Scheduler struct {
	scheduler *gocron.Scheduler
	pruner    Pruner
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a new Scheduler.
func New(pruner Pruner, retention, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		pruner:    pruner,
		retention: retention,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

// Start schedules the retention job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.pruner == nil || s.retention <= 0 {
		s.logger.Info("scheduler: retention disabled; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = time.Hour
	}

	if _, err := s.scheduler.Every(interval).Do(s.prune); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	n, err := s.pruner.PruneBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("scheduler: prune failed", "cutoff", cutoff, "error", err)
		return
	}
	s.logger.Info("scheduler: pruned station readings", "deleted", n, "cutoff", cutoff)
}

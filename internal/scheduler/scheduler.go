package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a periodic task run by the scheduler.
type Job func(ctx context.Context) error

// Scheduler runs housekeeping jobs on cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
	jobs   int
}

func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Add registers a named job. Schedules accept standard cron specs and
// descriptors such as "@every 5m".
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := job(s.ctx); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.jobs++
	s.logger.Info("scheduled job registered", "job", name, "schedule", spec)
	return nil
}

func (s *Scheduler) Start() {
	if s.jobs == 0 {
		s.logger.Warn("no jobs registered, scheduler not started")
		return
	}
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", s.jobs)
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}

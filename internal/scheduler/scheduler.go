package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"forecastmail/internal/logger"
)

// Default ceiling for one run; generous enough for the provider calls,
// icon fetches, and SMTP delivery in sequence.
const defaultRunTimeout = 2 * time.Minute

// Runner is the pipeline entry point the scheduler invokes.
type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler fires the report pipeline on a fixed interval. Jobs run in
// singleton mode so a slow run can never overlap the next firing.
type Scheduler struct {
	scheduler    *gocron.Scheduler
	runner       Runner
	interval     time.Duration
	runOnStartup bool
	runTimeout   time.Duration
}

// New creates a Scheduler for the given runner and interval.
func New(runner Runner, interval time.Duration, runOnStartup bool) *Scheduler {
	return &Scheduler{
		scheduler:    gocron.NewScheduler(time.UTC),
		runner:       runner,
		interval:     interval,
		runOnStartup: runOnStartup,
		runTimeout:   defaultRunTimeout,
	}
}

// Start schedules the recurring job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	job := s.scheduler.Every(s.interval).SingletonMode()

	if s.runOnStartup {
		job = job.StartImmediately()
	} else {
		job = job.WaitForSchedule()
	}

	_, err := job.Do(func() {
		logger.Info("Scheduler firing forecast run")

		ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()

		if err := s.runner.Run(ctx); err != nil {
			logger.Error("Forecast run failed: %v", err)
			return
		}

		logger.Info("Forecast run completed")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	logger.Info("Scheduler started, interval %s", s.interval)

	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

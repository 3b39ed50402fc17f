package scheduler

import (
	"context"
	"time"

	"stoker/internal/errors"
	"stoker/internal/logging"
	"stoker/internal/warmup"

	"github.com/juju/clock"
)

// DefaultCooldown suppresses wakes after a successful run so clock drift or
// restarts near the trigger time cannot double-fire.
const DefaultCooldown = time.Hour

// Runner executes one warmup pass; implemented by warmup.Pipeline.
type Runner interface {
	Run(ctx context.Context) (*warmup.PipelineRun, error)
}

// Config holds scheduler configuration.
type Config struct {
	Schedule      *Schedule
	Cooldown      time.Duration      // default DefaultCooldown
	Retry         errors.RetryConfig // zero value selects the default schedule
	NotifyTimeout time.Duration      // default 10s
	Clock         clock.Clock        // default wall clock; injectable for tests
}

// Scheduler wakes once per day, runs the pipeline with retries, and arms the
// next wake. A failed day never blocks the following one.
type Scheduler struct {
	schedule      *Schedule
	runner        Runner
	notifier      Notifier
	clock         clock.Clock
	cooldown      time.Duration
	retry         errors.RetryConfig
	notifyTimeout time.Duration
	logger        logging.Logger
}

// New creates a Scheduler.
func New(cfg Config, runner Runner, notifier Notifier, logger logging.Logger) *Scheduler {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = errors.DefaultRetryConfig()
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 10 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Scheduler{
		schedule:      cfg.Schedule,
		runner:        runner,
		notifier:      notifier,
		clock:         cfg.Clock,
		cooldown:      cfg.Cooldown,
		retry:         cfg.Retry,
		notifyTimeout: cfg.NotifyTimeout,
		logger:        logging.OrNop(logger),
	}
}

// Run blocks until ctx is cancelled, firing the pipeline at each daily
// trigger. Exactly one run is in flight at a time: the next wake is armed
// only after the current run (and its cooldown) completes.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		now := s.clock.Now()
		trigger := s.schedule.NextTrigger(now)
		s.logger.Info("Next trigger at %s, refresh estimate %s",
			trigger.Format(time.RFC3339),
			s.schedule.RefreshEstimate(trigger).Format(time.RFC3339))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(trigger.Sub(now)):
		}

		run, err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			// Fail-forward: report, then arm the next day as usual.
			s.logger.Error("Warmup run failed: %v", err)
			s.notify(ctx, "warmup failed: "+err.Error())
			continue
		}

		s.notify(ctx, "warmup: "+warmup.Summarize(run))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(s.cooldown):
		}
	}
}

// RunNow executes a single pipeline pass with the retry schedule, outside the
// daily loop. Used by the one-shot CLI path.
func (s *Scheduler) RunNow(ctx context.Context) (*warmup.PipelineRun, error) {
	return s.runOnce(ctx)
}

func (s *Scheduler) runOnce(ctx context.Context) (*warmup.PipelineRun, error) {
	return errors.RetryWithResult(ctx, s.retry, func(ctx context.Context) (*warmup.PipelineRun, error) {
		return s.runner.Run(ctx)
	}, s.logger)
}

// notify delivers the run summary on a best-effort basis. Failures are
// logged and swallowed.
func (s *Scheduler) notify(ctx context.Context, text string) {
	notifyCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()
	if err := s.notifier.Send(notifyCtx, text); err != nil {
		s.logger.Warn("Notification failed: %v", err)
	}
}

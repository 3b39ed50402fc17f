package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stoker/internal/codeassist"
	stokererrors "stoker/internal/errors"
	"stoker/internal/warmup"

	"github.com/juju/clock/testclock"
)

type runnerFunc func(ctx context.Context) (*warmup.PipelineRun, error)

func (f runnerFunc) Run(ctx context.Context) (*warmup.PipelineRun, error) { return f(ctx) }

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) Send(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, text)
	return nil
}

func (n *recordingNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

func successfulRun() *warmup.PipelineRun {
	return &warmup.PipelineRun{
		Endpoint: "ep",
		Outcome:  warmup.RunSuccess,
		Results: []codeassist.TriggerResult{
			{Pool: "claude", Outcome: codeassist.OutcomeSuccess},
		},
	}
}

// fastRetry keeps backoff real-time but negligible so tests stay quick.
func fastRetry() stokererrors.RetryConfig {
	return stokererrors.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func advance(t *testing.T, clk *testclock.Clock, d time.Duration) {
	t.Helper()
	if err := clk.WaitAdvance(d, 3*time.Second, 1); err != nil {
		t.Fatalf("advance %v: %v", d, err)
	}
}

func TestSchedulerFiresDailyWithCooldown(t *testing.T) {
	sched := mustSchedule(t, 7, 0, time.UTC)
	clk := testclock.NewClock(time.Date(2026, 8, 27, 6, 0, 0, 0, time.UTC))

	var runs atomic.Int32
	runner := runnerFunc(func(ctx context.Context) (*warmup.PipelineRun, error) {
		runs.Add(1)
		return successfulRun(), nil
	})
	notifier := &recordingNotifier{}

	s := New(Config{Schedule: sched, Clock: clk, Retry: fastRetry()}, runner, notifier, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// 06:00 -> 07:00: first trigger.
	advance(t, clk, time.Hour)
	waitFor(t, func() bool { return runs.Load() == 1 }, "first run never fired")
	waitFor(t, func() bool { return len(notifier.messages()) == 1 }, "no success notification")

	// Cooldown hour, then the remaining 23h to the next day's trigger.
	advance(t, clk, time.Hour)
	advance(t, clk, 23*time.Hour)
	waitFor(t, func() bool { return runs.Load() == 2 }, "second run never fired")

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("Run returned %v", err)
	}

	msgs := notifier.messages()
	if msgs[0] != "warmup: claude triggered" {
		t.Fatalf("unexpected notification: %q", msgs[0])
	}
}

func TestSchedulerRetriesAndRecovers(t *testing.T) {
	sched := mustSchedule(t, 7, 0, time.UTC)
	clk := testclock.NewClock(time.Date(2026, 8, 27, 6, 59, 0, 0, time.UTC))

	var calls atomic.Int32
	runner := runnerFunc(func(ctx context.Context) (*warmup.PipelineRun, error) {
		if calls.Add(1) < 3 {
			return nil, stokererrors.ErrAllEndpointsFailed
		}
		return successfulRun(), nil
	})
	notifier := &recordingNotifier{}

	s := New(Config{Schedule: sched, Clock: clk, Retry: fastRetry()}, runner, notifier, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	advance(t, clk, time.Minute)
	waitFor(t, func() bool { return len(notifier.messages()) == 1 }, "run never completed")

	if calls.Load() != 3 {
		t.Fatalf("expected success on third attempt, got %d calls", calls.Load())
	}
	if msg := notifier.messages()[0]; msg != "warmup: claude triggered" {
		t.Fatalf("unexpected notification: %q", msg)
	}
}

func TestSchedulerFailsForwardToNextDay(t *testing.T) {
	sched := mustSchedule(t, 7, 0, time.UTC)
	clk := testclock.NewClock(time.Date(2026, 8, 27, 6, 0, 0, 0, time.UTC))

	var calls atomic.Int32
	runner := runnerFunc(func(ctx context.Context) (*warmup.PipelineRun, error) {
		calls.Add(1)
		return nil, stokererrors.ErrNoWorkingEndpoint
	})
	notifier := &recordingNotifier{}

	s := New(Config{Schedule: sched, Clock: clk, Retry: fastRetry()}, runner, notifier, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	advance(t, clk, time.Hour)
	waitFor(t, func() bool { return len(notifier.messages()) == 1 }, "failure never reported")

	// Attempts are bounded: the retry layer, not the scheduler, owns retries.
	if calls.Load() != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls.Load())
	}

	// No cooldown after failure; the next wake is tomorrow's trigger.
	advance(t, clk, 24*time.Hour)
	waitFor(t, func() bool { return calls.Load() == 6 }, "next-day run never fired")
	waitFor(t, func() bool { return len(notifier.messages()) == 2 }, "second failure never reported")
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	sched := mustSchedule(t, 7, 0, time.UTC)
	clk := testclock.NewClock(time.Date(2026, 8, 27, 6, 0, 0, 0, time.UTC))

	s := New(Config{Schedule: sched, Clock: clk}, runnerFunc(func(ctx context.Context) (*warmup.PipelineRun, error) {
		t.Error("runner must not fire before trigger")
		return nil, nil
	}), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Wait until the scheduler is parked on the trigger timer, then cancel.
	if err := clk.WaitAdvance(time.Minute, 3*time.Second, 1); err != nil {
		t.Fatalf("scheduler never armed: %v", err)
	}
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestRunNowBypassesSchedule(t *testing.T) {
	sched := mustSchedule(t, 7, 0, time.UTC)

	var calls atomic.Int32
	runner := runnerFunc(func(ctx context.Context) (*warmup.PipelineRun, error) {
		calls.Add(1)
		return successfulRun(), nil
	})

	s := New(Config{Schedule: sched, Retry: fastRetry()}, runner, nil, nil)
	run, err := s.RunNow(context.Background())
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if run.Outcome != warmup.RunSuccess || calls.Load() != 1 {
		t.Fatalf("unexpected result: %+v after %d calls", run, calls.Load())
	}
}

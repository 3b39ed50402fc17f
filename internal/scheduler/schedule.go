// Package scheduler drives the daily warmup loop: wake at the configured
// local time, run the pipeline with retries, and arm the next wake.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// QuotaCycle is the provider's rolling-window length. The refresh estimate
// shown to users is trigger time plus this.
const QuotaCycle = 5 * time.Hour

// Schedule computes daily trigger times in a fixed location.
type Schedule struct {
	spec  cron.Schedule
	loc   *time.Location
	cycle time.Duration
	hour  int
	min   int
}

// NewSchedule builds a daily schedule for the given wall-clock time.
// cycle <= 0 selects the default quota cycle.
func NewSchedule(hour, min int, loc *time.Location, cycle time.Duration) (*Schedule, error) {
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return nil, fmt.Errorf("invalid trigger time %02d:%02d", hour, min)
	}
	if loc == nil {
		loc = time.Local
	}
	if cycle <= 0 {
		cycle = QuotaCycle
	}
	spec, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", min, hour))
	if err != nil {
		return nil, fmt.Errorf("build schedule: %w", err)
	}
	return &Schedule{spec: spec, loc: loc, cycle: cycle, hour: hour, min: min}, nil
}

// NextTrigger returns the first trigger strictly after now. A wake landing
// exactly on the trigger time rolls to the next day.
func (s *Schedule) NextTrigger(now time.Time) time.Time {
	return s.spec.Next(now.In(s.loc))
}

// RefreshEstimate is when the rolling window started at trigger would end.
// Informational only; nothing waits on it.
func (s *Schedule) RefreshEstimate(trigger time.Time) time.Time {
	return trigger.Add(s.cycle)
}

// String renders the schedule for status output, e.g. "07:00 (Asia/Shanghai)".
func (s *Schedule) String() string {
	return fmt.Sprintf("%02d:%02d (%s)", s.hour, s.min, s.loc)
}

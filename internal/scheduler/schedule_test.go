package scheduler

import (
	"testing"
	"time"
)

func mustSchedule(t *testing.T, hour, min int, loc *time.Location) *Schedule {
	t.Helper()
	s, err := NewSchedule(hour, min, loc, 0)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	return s
}

func TestNextTriggerLaterToday(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	s := mustSchedule(t, 14, 0, loc)

	now := time.Date(2026, 8, 27, 10, 0, 0, 0, loc)
	trigger := s.NextTrigger(now)

	want := time.Date(2026, 8, 27, 14, 0, 0, 0, loc)
	if !trigger.Equal(want) {
		t.Fatalf("trigger = %v, want %v", trigger, want)
	}
	if est := s.RefreshEstimate(trigger); !est.Equal(time.Date(2026, 8, 27, 19, 0, 0, 0, loc)) {
		t.Fatalf("refresh estimate = %v", est)
	}
}

func TestNextTriggerRollsToTomorrow(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	s := mustSchedule(t, 14, 0, loc)

	now := time.Date(2026, 8, 27, 15, 0, 0, 0, loc)
	trigger := s.NextTrigger(now)

	want := time.Date(2026, 8, 28, 14, 0, 0, 0, loc)
	if !trigger.Equal(want) {
		t.Fatalf("trigger = %v, want %v", trigger, want)
	}
}

func TestNextTriggerExactBoundaryRollsOver(t *testing.T) {
	s := mustSchedule(t, 7, 0, time.UTC)

	now := time.Date(2026, 8, 27, 7, 0, 0, 0, time.UTC)
	trigger := s.NextTrigger(now)

	// A wake landing exactly on the trigger time belongs to the run that just
	// fired; the next trigger is strictly after now.
	want := time.Date(2026, 8, 28, 7, 0, 0, 0, time.UTC)
	if !trigger.Equal(want) {
		t.Fatalf("trigger = %v, want %v", trigger, want)
	}
}

func TestNextTriggerAlwaysWithin24Hours(t *testing.T) {
	s := mustSchedule(t, 7, 30, time.UTC)

	for hour := 0; hour < 24; hour++ {
		now := time.Date(2026, 8, 27, hour, 13, 0, 0, time.UTC)
		trigger := s.NextTrigger(now)
		gap := trigger.Sub(now)
		if gap <= 0 || gap > 24*time.Hour {
			t.Fatalf("now=%v: gap %v out of range", now, gap)
		}
	}
}

func TestRefreshEstimateCrossesMidnight(t *testing.T) {
	s := mustSchedule(t, 22, 0, time.UTC)

	trigger := time.Date(2026, 8, 27, 22, 0, 0, 0, time.UTC)
	est := s.RefreshEstimate(trigger)

	want := time.Date(2026, 8, 28, 3, 0, 0, 0, time.UTC)
	if !est.Equal(want) {
		t.Fatalf("refresh estimate = %v, want %v", est, want)
	}
}

func TestNewScheduleRejectsInvalidTime(t *testing.T) {
	for _, tc := range []struct{ hour, min int }{
		{24, 0},
		{-1, 0},
		{7, 60},
		{7, -1},
	} {
		if _, err := NewSchedule(tc.hour, tc.min, time.UTC, 0); err == nil {
			t.Fatalf("expected error for %02d:%02d", tc.hour, tc.min)
		}
	}
}

func TestScheduleString(t *testing.T) {
	s := mustSchedule(t, 7, 5, time.UTC)
	if got := s.String(); got != "07:05 (UTC)" {
		t.Fatalf("String = %q", got)
	}
}

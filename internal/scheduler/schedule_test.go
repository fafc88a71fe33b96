package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rodrigocabraln/bank-scraper/internal/log"
	"github.com/rodrigocabraln/bank-scraper/internal/snapshot"
)

func mustTimes(t *testing.T, raw string) []TimeOfDay {
	t.Helper()
	times, err := ParseTimes(raw)
	if err != nil {
		t.Fatal(err)
	}
	return times
}

func TestParseTimes(t *testing.T) {
	times := mustTimes(t, "07:00, 20:30")
	if len(times) != 2 {
		t.Fatalf("expected 2 times, got %d", len(times))
	}
	if times[0].String() != "07:00" || times[1].String() != "20:30" {
		t.Fatalf("parsed %v", times)
	}

	for _, bad := range []string{"25:00", "12:60", "7", "ab:cd"} {
		if _, err := ParseTimes(bad); err == nil {
			t.Fatalf("%q should not parse", bad)
		}
	}
}

func TestNextTrigger(t *testing.T) {
	times := mustTimes(t, "07:00,20:00")
	day := func(hour, min int) time.Time {
		return time.Date(2026, 8, 26, hour, min, 0, 0, time.UTC)
	}

	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{day(6, 0), day(7, 0)},
		{day(7, 0), day(20, 0)},  // exactly at a trigger moves to the next one
		{day(12, 30), day(20, 0)},
		{day(21, 0), day(7, 0).AddDate(0, 0, 1)},
	}
	for _, tc := range cases {
		got, ok := NextTrigger(tc.now, times)
		if !ok {
			t.Fatalf("NextTrigger(%v) reported no trigger", tc.now)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("NextTrigger(%v) = %v, want %v", tc.now, got, tc.want)
		}
	}

	if _, ok := NextTrigger(day(6, 0), nil); ok {
		t.Fatal("no configured times must yield no trigger")
	}
}

func TestSchedulerRunFailsWithoutTimes(t *testing.T) {
	state := snapshot.NewStateFile(filepath.Join(t.TempDir(), "last_run.txt"))
	s := New(nil, 0, state, time.UTC, func(ctx context.Context) error {
		t.Fatal("job must not run without trigger times")
		return nil
	}, log.Discard())

	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected an error for an empty schedule")
	}
}

func TestNeedsCatchUp(t *testing.T) {
	times := mustTimes(t, "07:00,20:00")
	now := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		lastRun time.Time
		now     time.Time
		want    bool
	}{
		{"yesterday, past a trigger", now.AddDate(0, 0, -1), now, true},
		{"yesterday, before all triggers", now.AddDate(0, 0, -1), time.Date(2026, 8, 26, 6, 0, 0, 0, time.UTC), false},
		{"today", time.Date(2026, 8, 26, 7, 5, 0, 0, time.UTC), now, false},
		{"never ran", time.Time{}, now, false},
		{"a week ago", now.AddDate(0, 0, -7), now, true},
	}
	for _, tc := range cases {
		if got := NeedsCatchUp(tc.lastRun, tc.now, times); got != tc.want {
			t.Fatalf("%s: NeedsCatchUp = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSchedulerCatchUpRun(t *testing.T) {
	state := snapshot.NewStateFile(filepath.Join(t.TempDir(), "last_run.txt"))
	if err := state.Record(time.Now().AddDate(0, 0, -1)); err != nil {
		t.Fatal(err)
	}

	ran := make(chan struct{}, 1)
	s := New(mustTimes(t, "00:00"), 0, state, time.UTC, func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	}, log.Discard())
	// Stop the loop at its first post-catch-up sleep.
	s.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	if err := s.Run(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	select {
	case <-ran:
	default:
		t.Fatal("catch-up run did not execute")
	}
}

func TestSchedulerNoCatchUpWhenRunToday(t *testing.T) {
	state := snapshot.NewStateFile(filepath.Join(t.TempDir(), "last_run.txt"))
	if err := state.Record(time.Now()); err != nil {
		t.Fatal(err)
	}

	var runs int
	s := New(mustTimes(t, "00:00"), 0, state, time.UTC, func(ctx context.Context) error {
		runs++
		return nil
	}, log.Discard())
	s.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	_ = s.Run(context.Background())
	if runs != 0 {
		t.Fatalf("expected no catch-up run, got %d", runs)
	}
}

func TestSchedulerRecordsLastRunOnlyOnSuccess(t *testing.T) {
	state := snapshot.NewStateFile(filepath.Join(t.TempDir(), "last_run.txt"))

	s := New(mustTimes(t, "00:00"), 0, state, time.UTC, func(ctx context.Context) error {
		return errors.New("persist failed")
	}, log.Discard())
	s.runOnce(context.Background())
	if _, ok := state.LastRun(); ok {
		t.Fatal("failed run must not advance last_successful_run")
	}

	s.job = func(ctx context.Context) error { return nil }
	s.runOnce(context.Background())
	if _, ok := state.LastRun(); !ok {
		t.Fatal("successful run must record last_successful_run")
	}
}

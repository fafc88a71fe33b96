// Package scheduler triggers scrape runs at configured wall-clock times,
// adds randomized jitter, and recovers runs missed while the process was
// down.
package scheduler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock trigger time (HH:MM).
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" in 24-hour notation.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// ParseTimes parses a comma-separated list of HH:MM values.
func ParseTimes(raw string) ([]TimeOfDay, error) {
	var times []TimeOfDay
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := ParseTimeOfDay(part)
		if err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// on anchors the time-of-day on the date of ref, keeping ref's location.
func (t TimeOfDay) on(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour, t.Minute, 0, 0, ref.Location())
}

// NextTrigger returns the nearest configured time strictly after now,
// rolling over to tomorrow when every time today has passed. With no
// configured times it returns the zero time and false.
func NextTrigger(now time.Time, times []TimeOfDay) (time.Time, bool) {
	if len(times) == 0 {
		return time.Time{}, false
	}
	var candidates []time.Time
	for _, t := range times {
		at := t.on(now)
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
		candidates = append(candidates, at)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Before(candidates[j]) })
	return candidates[0], true
}

// NeedsCatchUp reports whether a scheduled run was missed while the process
// was down: the last successful run dates from before today and at least one
// configured time has already passed.
func NeedsCatchUp(lastRun, now time.Time, times []TimeOfDay) bool {
	if lastRun.IsZero() {
		return false
	}
	lastDate := lastRun.In(now.Location()).Format("2006-01-02")
	nowDate := now.Format("2006-01-02")
	if lastDate >= nowDate {
		return false
	}
	for _, t := range times {
		if now.After(t.on(now)) {
			return true
		}
	}
	return false
}

package scheduler

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rodrigocabraln/bank-scraper/internal/log"
	"github.com/rodrigocabraln/bank-scraper/internal/snapshot"
)

// Job performs one full aggregation cycle: scrape, persist, publish. It is
// supplied by main so the scheduler stays decoupled from the pipeline.
type Job func(ctx context.Context) error

// Scheduler drives the run loop. One cycle at a time: a run must fully
// complete or fail before the next sleep interval is computed.
type Scheduler struct {
	times     []TimeOfDay
	jitterMax time.Duration
	state     *snapshot.StateFile
	job       Job
	loc       *time.Location
	logger    *log.Logger

	// now and sleep are swappable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(times []TimeOfDay, jitterMax time.Duration, state *snapshot.StateFile, loc *time.Location, job Job, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Scheduler{
		times:     times,
		jitterMax: jitterMax,
		state:     state,
		job:       job,
		loc:       loc,
		logger:    logger.WithComponent(log.ComponentScheduler),
		now:       func() time.Time { return time.Now().In(loc) },
		sleep:     sleepCtx,
	}
}

// Run blocks until ctx is cancelled. On startup it recovers a run missed
// during downtime, then waits for the nearest configured trigger, applies
// jitter, and executes the job. Job failures are logged and the loop
// continues at the next cycle.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.times) == 0 {
		return errors.New("scheduler: no trigger times configured")
	}

	s.logger.Info("Scheduler started",
		"times", timesString(s.times),
		"jitter_max", s.jitterMax)

	if last, ok := s.state.LastRun(); ok && NeedsCatchUp(last, s.now(), s.times) {
		s.logger.Warn("Missed run detected, executing catch-up", "last_run", last)
		s.runOnce(ctx)
	}

	for {
		next, ok := NextTrigger(s.now(), s.times)
		if !ok {
			return errors.New("scheduler: no trigger times configured")
		}
		s.logger.Info("Sleeping until next trigger", log.FieldNextRun, next)
		if err := s.sleep(ctx, next.Sub(s.now())); err != nil {
			return err
		}

		jitter := time.Duration(0)
		if s.jitterMax > 0 {
			jitter = time.Duration(rand.Int63n(int64(s.jitterMax) + 1))
		}
		s.logger.Info("Trigger reached, applying jitter", log.FieldDelay, jitter.Round(time.Second))
		if err := s.sleep(ctx, jitter); err != nil {
			return err
		}

		s.runOnce(ctx)
	}
}

// runOnce executes the job and records the last-run marker only when the
// whole cycle, persistence included, succeeded.
func (s *Scheduler) runOnce(ctx context.Context) {
	start := s.now()
	if err := s.job(ctx); err != nil {
		s.logger.Error("Scheduled run failed", log.FieldError, err)
		return
	}
	if err := s.state.Record(start); err != nil {
		s.logger.Error("Recording last run failed", log.FieldError, err)
		return
	}
	s.logger.Info("Scheduled run complete", log.FieldDuration, s.now().Sub(start).Milliseconds())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func timesString(times []TimeOfDay) string {
	out := ""
	for i, t := range times {
		if i > 0 {
			out += ","
		}
		out += t.String()
	}
	return out
}

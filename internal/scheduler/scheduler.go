// Package scheduler runs pipeline jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rabbitresearch/satirebot/internal/logging"
)

// Job is a scheduled task.
type Job func(ctx context.Context) error

// Scheduler manages periodic pipeline runs.
type Scheduler struct {
	cron *cron.Cron
	jobs map[string]cron.EntryID
	log  logging.Logger
}

// New creates a scheduler in the given timezone.
func New(timezone string, log logging.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
	}

	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc)),
		jobs: make(map[string]cron.EntryID),
		log:  log,
	}, nil
}

// AddJob registers a job under a standard five-field cron expression,
// e.g. "0 7 * * *" for 7:00 daily. Overlapping runs are prevented by
// the per-job timeout being shorter than any sane schedule interval.
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		log := s.log.WithField("job", name)
		log.Info("starting scheduled job")
		start := time.Now()

		if err := job(ctx); err != nil {
			log.WithError(err).Error("scheduled job failed")
			return
		}
		log.WithField("duration", time.Since(start).String()).Info("scheduled job completed")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.log.WithFields(logging.Fields{"job": name, "schedule": schedule}).Info("job scheduled")

	return nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop halts scheduling and returns a context that is done once any
// in-flight job has finished.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// NextRun reports when the named job will fire next, or a zero time if
// the job is unknown.
func (s *Scheduler) NextRun(name string) time.Time {
	entryID, ok := s.jobs[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(entryID).Next
}

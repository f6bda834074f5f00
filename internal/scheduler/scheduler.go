// Package scheduler runs the recurring background jobs, currently just the
// daily snapshot materialization.
package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/service"
)

// Scheduler owns the cron runner.
type Scheduler struct {
	cron     *cron.Cron
	snapshot *service.SnapshotService
	logger   *log.Logger
}

// New creates a Scheduler around the snapshot service.
func New(snapshot *service.SnapshotService, logger *log.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		snapshot: snapshot,
		logger:   logger,
	}
}

// Start registers the daily snapshot job on the given cron schedule and
// starts the runner. An empty schedule disables the job.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		s.logger.Printf("snapshot scheduler disabled")
		return nil
	}

	_, err := s.cron.AddFunc(schedule, func() {
		created, err := s.snapshot.CreateDailySnapshots(time.Now().UTC())
		if err != nil {
			s.logger.Printf("scheduled snapshot run failed: %v", err)
			return
		}
		s.logger.Printf("scheduled snapshot run created %d snapshots", created)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Printf("snapshot scheduler started with schedule %q", schedule)
	return nil
}

// Stop halts the cron runner and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

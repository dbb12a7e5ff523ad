// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/robfig/cron/v3"
)

// Job is a unit of maintenance work.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron   *cron.Cron
	logger logging.Logger
}

func New(logger logging.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		logger: logger.With("module", "scheduler"),
	}
}

// Add registers job under a standard five field cron spec. Job failures are
// logged and the schedule continues.
func (s *Scheduler) Add(ctx context.Context, name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := job(ctx); err != nil {
			s.logger.Error(ctx, "scheduled job failed", "job", name, "error", err)
			return
		}
		s.logger.Debug(ctx, "scheduled job done", "job", name)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
}

// Entries reports how many jobs are scheduled.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

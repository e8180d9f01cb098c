// Package worker contains the background jobs of NestMate Hub and the
// cron scheduler that runs them: the expired-proposal sweep and the
// match cache warmup.
package worker

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/nestmate-hub/nestmate-hub/pkg/logger"
)

// Job is one schedulable unit of background work.
type Job interface {
	Run(ctx context.Context) error
}

// Schedule binds a job to a cron spec, e.g. "@every 5m".
type Schedule struct {
	Spec string
	Name string
	Job  Job
}

// Worker wraps robfig/cron and runs the registered jobs.
type Worker struct {
	cron      *cron.Cron
	schedules []Schedule
	logger    *logger.Logger
}

// NewWorker creates a Worker with the given schedules.
func NewWorker(schedules []Schedule, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.Default()
	}
	return &Worker{
		cron:      cron.New(),
		schedules: schedules,
		logger:    log.With(logger.String("component", "worker")),
	}
}

// Start registers every schedule and starts the cron loop. Each job also
// runs once immediately so a fresh deployment does not wait for the
// first tick.
func (w *Worker) Start(ctx context.Context) error {
	for _, s := range w.schedules {
		s := s
		_, err := w.cron.AddFunc(s.Spec, func() {
			w.runJob(ctx, s)
		})
		if err != nil {
			return fmt.Errorf("worker: registering job %q: %w", s.Name, err)
		}
		go w.runJob(ctx, s)
	}

	w.cron.Start()
	w.logger.Info("worker started", logger.Int("jobs", len(w.schedules)))
	return nil
}

// Stop shuts down the scheduler and waits for running jobs.
func (w *Worker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	w.logger.Info("worker stopped")
}

func (w *Worker) runJob(ctx context.Context, s Schedule) {
	if err := s.Job.Run(ctx); err != nil {
		w.logger.Error("job run failed",
			logger.String("job", s.Name),
			logger.Err(err),
		)
	}
}

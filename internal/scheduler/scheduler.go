package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"
)

// Job is one ingestion batch.
type Job interface {
	Run(ctx context.Context) error
}

// Scheduler re-runs the ingestion batch on a cron schedule. A run never
// overlaps the previous one.
type Scheduler struct {
	ctx       context.Context
	scheduler *gocron.Scheduler
	job       Job
	expr      string
	timeout   time.Duration
}

// New creates a Scheduler for a standard five-field cron expression. Every
// run derives its context from ctx, so cancelling ctx aborts a run in flight.
// A zero timeout lets a run take as long as the remote service needs.
func New(ctx context.Context, expr string, timeout time.Duration, job Job) *Scheduler {
	s := gocron.NewScheduler(time.Local)
	s.SingletonModeAll()
	return &Scheduler{
		ctx:       ctx,
		scheduler: s,
		job:       job,
		expr:      expr,
		timeout:   timeout,
	}
}

// Start schedules the job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Cron(s.expr).Do(s.run); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	log.WithField("cron", s.expr).Info("scheduler: ingestion scheduled")
	return nil
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) run() {
	if s.ctx.Err() != nil {
		log.Info("scheduler: skipping ingestion, shutting down")
		return
	}

	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log.Info("scheduler: running ingestion job")
	if err := s.job.Run(ctx); err != nil {
		log.WithError(err).Error("scheduler: ingestion failed")
		return
	}
	log.Info("scheduler: completed ingestion job")
}

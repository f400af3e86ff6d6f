package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zepzep/zepzep-backend/pkg/logger"
	"github.com/zepzep/zepzep-backend/pkg/metrics"
)

const defaultInterval = 24 * time.Hour

var (
	errNoLogger = errors.New("cron: logger required")
	errNoLock   = errors.New("cron: lock required")
)

// ServiceParams wires a Service. Registry and Metrics may be nil; Interval
// defaults to a day.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs every registered job once per interval while holding the lock.
type Service struct {
	ServiceParams
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errNoLogger
	case params.Lock == nil:
		return nil, errNoLock
	}
	if params.Registry == nil {
		params.Registry = &Registry{}
	}
	if params.Interval <= 0 {
		params.Interval = defaultInterval
	}
	return &Service{ServiceParams: params}, nil
}

// Run executes a cycle immediately and then on every tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		if err := s.RunOnce(ctx); err != nil {
			s.Logger.Error(ctx, "cron.cycle.failed", err)
		}
		select {
		case <-ctx.Done():
			s.Logger.Info(ctx, "cron.stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce runs a single cycle. A cycle whose lock is held elsewhere is
// skipped without error. Job failures are logged and counted, not returned.
func (s *Service) RunOnce(ctx context.Context) error {
	lease, err := s.Lock.TryAcquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if lease == nil {
		s.Logger.Info(ctx, "cron.cycle.skipped_locked")
		s.Metrics.IncSkipped()
		return nil
	}
	defer s.release(ctx, lease)

	jobs := s.Registry.Jobs()
	cycleCtx := s.Logger.WithField(ctx, "jobs", len(jobs))
	s.Logger.Info(cycleCtx, "cron.cycle.start")
	var failed int
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		if s.runJob(ctx, job) != nil {
			failed++
		}
	}
	s.Logger.Info(s.Logger.WithField(cycleCtx, "failed", failed), "cron.cycle.complete")
	return nil
}

func (s *Service) release(ctx context.Context, lease Lease) {
	err := lease.Release(context.WithoutCancel(ctx))
	switch {
	case errors.Is(err, ErrLeaseLost):
		s.Logger.Warn(ctx, "cron.lock.lease_lost")
	case err != nil:
		s.Logger.Error(ctx, "cron.lock.release_failed", err)
	}
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx := s.Logger.WithField(ctx, "job", job.Name())
	started := time.Now()
	err := job.Run(jobCtx)
	took := time.Since(started)
	s.Metrics.ObserveRun(job.Name(), took, err)

	jobCtx = s.Logger.WithField(jobCtx, "duration_ms", took.Milliseconds())
	if err != nil {
		s.Logger.Error(jobCtx, "cron.job.failed", err)
		return err
	}
	s.Logger.Info(jobCtx, "cron.job.completed")
	return nil
}

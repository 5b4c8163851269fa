package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"powerposition/internal/metrics"
	"powerposition/internal/retry"
	"powerposition/logger"
)

const component = "scheduler"

type SchedulerConfig struct {
	Interval time.Duration
	Retry    retry.Policy
}

// Scheduler runs an extraction immediately and then once per interval.
// Cycles never overlap: the wait starts after the previous cycle ends.
type Scheduler struct {
	cfg       SchedulerConfig
	extractor Extraction
	recorder  metrics.Recorder
	log       *logger.Entry
}

func NewScheduler(cfg SchedulerConfig, extractor Extraction, recorder metrics.Recorder, log *logger.Log) *Scheduler {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &Scheduler{
		cfg:       cfg,
		extractor: extractor,
		recorder:  recorder,
		log:       log.WithComponent(component),
	}
}

// Run blocks until ctx is cancelled. Failed cycles are logged and the
// schedule carries on.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.WithFields(logger.Fields{
		"interval":     s.cfg.Interval.String(),
		"max_attempts": s.cfg.Retry.MaxAttempts,
		"retry_delay":  s.cfg.Retry.Delay.String(),
	}).Info("scheduler started")

	for {
		if ctx.Err() != nil {
			break
		}
		_ = s.RunCycle(ctx)

		timer := time.NewTimer(s.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}

	s.log.Info("scheduler stopped")
	return nil
}

// RunCycle executes one retried extraction and reports its outcome.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	cycleID := uuid.NewString()
	ctx = withCycleID(ctx, cycleID)
	log := s.log.WithFields(logger.Fields{"cycle_id": cycleID})
	log.Info("running extract")

	start := time.Now()
	result, err := retry.Do(ctx, s.cfg.Retry, s.extractor.Extract, func(attempt int, err error) {
		log.WithError(err).WithFields(logger.Fields{
			"attempt":      attempt,
			"max_attempts": s.cfg.Retry.MaxAttempts,
		}).Warn("extract attempt failed")
		s.recorder.Emit(ctx, component, metrics.AttemptFailed, 1, nil)
	})
	duration := time.Since(start)

	s.recorder.Emit(ctx, component, metrics.CycleDurationMs, float64(duration.Milliseconds()), logger.Fields{"unit": "milliseconds"})

	switch {
	case err == nil:
		logger.LogPerformanceEntry(log, component, "extract_cycle", duration, logger.Fields{
			"path":      result.Path,
			"positions": result.Positions,
		})
		s.recorder.Emit(ctx, component, metrics.CycleSucceeded, 1, nil)
		s.recorder.Emit(ctx, component, metrics.PositionsWritten, float64(result.Positions), nil)
		return nil
	case ctx.Err() != nil:
		log.WithError(err).Info("extract cancelled")
		return err
	default:
		log.WithError(err).Error("error while running extract")
		s.recorder.Emit(ctx, component, metrics.CycleFailed, 1, nil)
		return err
	}
}

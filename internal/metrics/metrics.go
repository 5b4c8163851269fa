// Package metrics records pipeline counters and timings. Every metric is
// logged at debug level and, when configured, published to CloudWatch.
package metrics

import (
	"context"

	"powerposition/logger"
)

const (
	CycleSucceeded   = "cycle_succeeded"
	CycleFailed      = "cycle_failed"
	AttemptFailed    = "attempt_failed"
	PositionsWritten = "positions_written"
	CycleDurationMs  = "cycle_duration_ms"
)

// Recorder is what the pipeline needs from a metrics backend.
type Recorder interface {
	Emit(ctx context.Context, component, metric string, value float64, fields logger.Fields)
}

// Noop discards every metric.
type Noop struct{}

func (Noop) Emit(context.Context, string, string, float64, logger.Fields) {}

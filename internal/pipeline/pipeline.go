// Package pipeline runs the position extract: a scheduler that repeats a
// retried extraction cycle until the process is stopped.
package pipeline

import (
	"context"
	"time"

	"powerposition/models"
)

// ReportSink persists the positions of one extraction.
type ReportSink interface {
	Write(ctx context.Context, referenceDate, generatedAt time.Time, positions []models.Position) (string, error)
}

// Extraction is a single attempt of the extract.
type Extraction interface {
	Extract(ctx context.Context, attempt int) (Result, error)
}

// Result describes a successful extraction.
type Result struct {
	ReferenceDate time.Time
	Path          string
	Trades        int
	Positions     int
}

type cycleKey struct{}

func withCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleKey{}, id)
}

// CycleID returns the id of the cycle running under ctx, if any.
func CycleID(ctx context.Context) string {
	id, _ := ctx.Value(cycleKey{}).(string)
	return id
}

// ReferenceDate is the UTC calendar day after now.
func ReferenceDate(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

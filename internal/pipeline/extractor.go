package pipeline

import (
	"context"
	"fmt"
	"time"

	"powerposition/logger"
	"powerposition/processor"
	"powerposition/reader"
)

// Extractor fetches next day's trades, aggregates them per UTC hour and
// writes the report.
type Extractor struct {
	source   reader.TradeSource
	sink     ReportSink
	timeZone string
	log      *logger.Entry

	now      func() time.Time
	loadZone func(name string) (processor.ZoneResolver, error)
}

func NewExtractor(source reader.TradeSource, sink ReportSink, timeZone string, log *logger.Log) *Extractor {
	return &Extractor{
		source:   source,
		sink:     sink,
		timeZone: timeZone,
		log:      log.WithComponent("extractor"),
		now:      time.Now,
		loadZone: func(name string) (processor.ZoneResolver, error) {
			return processor.LoadZone(name)
		},
	}
}

// Extract performs one attempt. The zone is resolved on every attempt so a
// bad identifier surfaces as an attempt failure rather than a crash.
func (e *Extractor) Extract(ctx context.Context, attempt int) (Result, error) {
	generatedAt := e.now().UTC()
	ref := ReferenceDate(generatedAt)
	log := e.log.WithFields(logger.Fields{
		"cycle_id":       CycleID(ctx),
		"attempt":        attempt,
		"reference_date": ref.Format("2006-01-02"),
	})
	log.Info("run extract")

	zone, err := e.loadZone(e.timeZone)
	if err != nil {
		return Result{}, err
	}

	trades, err := e.source.FetchTrades(ctx, ref)
	if err != nil {
		return Result{}, fmt.Errorf("fetch trades: %w", err)
	}

	log.WithFields(logger.Fields{"trades": len(trades), "time_zone": zone.Name()}).Info("aggregating positions per hour")
	positions, err := processor.Aggregate(trades, zone)
	if err != nil {
		return Result{}, err
	}

	log.WithFields(logger.Fields{"positions": len(positions)}).Info("writing report")
	path, err := e.sink.Write(ctx, ref, generatedAt, positions)
	if err != nil {
		return Result{}, fmt.Errorf("write report: %w", err)
	}

	log.WithFields(logger.Fields{"path": path}).Info("extract generated successfully")
	return Result{ReferenceDate: ref, Path: path, Trades: len(trades), Positions: len(positions)}, nil
}

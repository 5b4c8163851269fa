package reader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"powerposition/config"
	"powerposition/logger"
	"powerposition/models"
)

// ErrSourceUnavailable marks a transient failure of the trade source.
var ErrSourceUnavailable = errors.New("trade source unavailable")

// TradeSource returns every trade for a local calendar day.
type TradeSource interface {
	FetchTrades(ctx context.Context, date time.Time) ([]models.Trade, error)
}

const dateLayout = "2006-01-02"

// New picks the implementation named by cfg.Type.
func New(cfg config.SourceConfig, log *logger.Log) (TradeSource, error) {
	switch cfg.Type {
	case config.SourceHTTP:
		return NewHTTPSource(cfg.HTTP, log)
	case config.SourceSimulated, "":
		return NewSimulatedSource(cfg.Simulated, log), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}

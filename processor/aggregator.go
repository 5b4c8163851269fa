package processor

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"powerposition/models"
)

// Aggregate converts every trade period into its UTC hour and sums the
// volumes per instant. The result is strictly ascending by instant.
//
// Malformed trades are rejected rather than partially aggregated.
func Aggregate(trades []models.Trade, zone ZoneResolver) ([]models.Position, error) {
	if zone == nil {
		return nil, fmt.Errorf("aggregate: %w: no zone resolver", ErrUnknownTimeZone)
	}

	totals := make(map[time.Time]decimal.Decimal)
	for _, trade := range trades {
		if err := trade.Validate(); err != nil {
			return nil, fmt.Errorf("aggregate: %w", err)
		}
		for _, p := range trade.Periods {
			instant, err := zone.Resolve(trade.Date, p.Period-1)
			if err != nil {
				return nil, fmt.Errorf("aggregate: trade %q period %d: %w", trade.TradeID, p.Period, err)
			}
			// time.Time keys compare location too; normalise to UTC
			instant = instant.UTC()
			totals[instant] = totals[instant].Add(decimal.NewFromFloat(p.Volume))
		}
	}

	positions := make([]models.Position, 0, len(totals))
	for instant, volume := range totals {
		positions = append(positions, models.Position{Instant: instant, Volume: volume})
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Instant.Before(positions[j].Instant)
	})
	return positions, nil
}

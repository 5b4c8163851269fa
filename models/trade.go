package models

import (
	"errors"
	"fmt"
	"time"
)

// PeriodsPerDay is the number of hourly periods every trade carries.
const PeriodsPerDay = 24

// ErrMalformedTrade is returned when a trade breaks the 24-period contract.
var ErrMalformedTrade = errors.New("malformed trade")

// Period is a 1-indexed local hour slot of a trade. Period 1 covers local
// hour [00:00, 01:00) of the trade date.
type Period struct {
	Period int     `json:"period"`
	Volume float64 `json:"volume"`
}

// Trade is a power contract for a single local calendar day.
type Trade struct {
	TradeID string    `json:"trade_id"`
	Date    time.Time `json:"date"`
	Periods []Period  `json:"periods"`
}

// Validate checks that the trade has exactly one period for every index 1..24.
func (t Trade) Validate() error {
	if len(t.Periods) != PeriodsPerDay {
		return fmt.Errorf("%w: trade %q has %d periods, want %d", ErrMalformedTrade, t.TradeID, len(t.Periods), PeriodsPerDay)
	}
	var seen [PeriodsPerDay + 1]bool
	for _, p := range t.Periods {
		if p.Period < 1 || p.Period > PeriodsPerDay {
			return fmt.Errorf("%w: trade %q has period index %d out of range", ErrMalformedTrade, t.TradeID, p.Period)
		}
		if seen[p.Period] {
			return fmt.Errorf("%w: trade %q has duplicate period %d", ErrMalformedTrade, t.TradeID, p.Period)
		}
		seen[p.Period] = true
	}
	return nil
}

// TotalVolume sums the period volumes of all trades.
func TotalVolume(trades []Trade) float64 {
	var total float64
	for _, t := range trades {
		for _, p := range t.Periods {
			total += p.Volume
		}
	}
	return total
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the net volume of every period whose local hour starts at
// Instant once converted to UTC.
type Position struct {
	Instant time.Time       `json:"instant"`
	Volume  decimal.Decimal `json:"volume"`
}

// SumPositions returns the total volume across positions.
func SumPositions(positions []Position) decimal.Decimal {
	total := decimal.Zero
	for _, p := range positions {
		total = total.Add(p.Volume)
	}
	return total
}

package reader

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"powerposition/config"
	"powerposition/logger"
	"powerposition/models"
)

// SimulatedSource produces random trades locally. It stands in for the
// vendor trade service when no endpoint is configured.
type SimulatedSource struct {
	maxTrades   int
	failureRate float64
	log         *logger.Entry

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulatedSource seeds from the clock.
func NewSimulatedSource(cfg config.SimulatedConfig, log *logger.Log) *SimulatedSource {
	return NewSimulatedSourceWithSeed(cfg, time.Now().UnixNano(), log)
}

// NewSimulatedSourceWithSeed gives reproducible output for a fixed seed.
func NewSimulatedSourceWithSeed(cfg config.SimulatedConfig, seed int64, log *logger.Log) *SimulatedSource {
	maxTrades := cfg.MaxTrades
	if maxTrades < 1 {
		maxTrades = 1
	}
	return &SimulatedSource{
		maxTrades:   maxTrades,
		failureRate: math.Max(0, math.Min(1, cfg.FailureRate)),
		log:         log.WithComponent("simulated_source"),
		rnd:         rand.New(rand.NewSource(seed)),
	}
}

func (s *SimulatedSource) FetchTrades(ctx context.Context, date time.Time) ([]models.Trade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failureRate > 0 && s.rnd.Float64() < s.failureRate {
		return nil, fmt.Errorf("%w: simulated outage", ErrSourceUnavailable)
	}

	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	count := 1 + s.rnd.Intn(s.maxTrades)
	trades := make([]models.Trade, 0, count)
	for i := 0; i < count; i++ {
		periods := make([]models.Period, models.PeriodsPerDay)
		for p := range periods {
			// whole MWh between -500 and 500
			periods[p] = models.Period{Period: p + 1, Volume: float64(s.rnd.Intn(1001) - 500)}
		}
		trades = append(trades, models.Trade{TradeID: uuid.NewString(), Date: day, Periods: periods})
	}

	s.log.WithFields(logger.Fields{"date": day.Format(dateLayout), "trades": count}).Debug("generated simulated trades")
	return trades, nil
}

package provider

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/stratlab/stratlab/internal/core"
)

// SyntheticConfig holds tuning parameters for the synthetic provider.
type SyntheticConfig struct {
	Seed       int64
	StartPrice float64
	Volatility float64 // Daily return standard deviation, e.g. 0.02
	Drift      float64 // Daily mean return, e.g. 0.0002
	BaseVolume int64
}

// Synthetic generates a seeded random-walk bar series, a stand-in for a
// real market-data feed. Identical seed, symbol, and date range always
// produce an identical series.
type Synthetic struct {
	cfg SyntheticConfig
}

// NewSynthetic creates a synthetic provider with defaults applied.
func NewSynthetic(cfg SyntheticConfig) *Synthetic {
	if cfg.StartPrice <= 0 {
		cfg.StartPrice = 100
	}
	if cfg.Volatility <= 0 {
		cfg.Volatility = 0.02
	}
	if cfg.BaseVolume <= 0 {
		cfg.BaseVolume = 100_000
	}
	return &Synthetic{cfg: cfg}
}

// GetBars generates bars for every trading day in [start, end].
func (s *Synthetic) GetBars(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(s.cfg.Seed ^ symbolSeed(symbol)))

	var bars []core.Bar
	price := s.cfg.StartPrice

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}

		open := price
		ret := s.cfg.Drift + s.cfg.Volatility*rng.NormFloat64()
		close := open * (1 + ret)
		if close < 0.01 {
			close = 0.01
		}

		hi := math.Max(open, close) * (1 + 0.005*rng.Float64())
		lo := math.Min(open, close) * (1 - 0.005*rng.Float64())
		volume := s.cfg.BaseVolume + rng.Int63n(s.cfg.BaseVolume)

		bars = append(bars, core.Bar{
			Date:   time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
			Open:   open,
			High:   hi,
			Low:    lo,
			Close:  close,
			Volume: volume,
		})
		price = close
	}

	return bars, nil
}

func symbolSeed(symbol string) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return int64(h.Sum64())
}

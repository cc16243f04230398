package engine

import (
	"fmt"
	"time"

	"github.com/stratlab/stratlab/internal/core"
	"github.com/stratlab/stratlab/internal/rule"
)

// Request describes one backtest invocation: one strategy, one symbol,
// one date range.
type Request struct {
	Symbol         string
	Start          time.Time
	End            time.Time
	Strategy       core.StrategyConfig
	InitialCapital float64
}

// Validate checks the request shape and ranges before any simulation.
// Unknown rule ids are rejected here so the loop never sees them.
func (r Request) Validate(rules *rule.Registry) error {
	if r.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("start and end dates are required")
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("start date %s is after end date %s",
			r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	}
	if r.InitialCapital <= 0 {
		return fmt.Errorf("initial_capital must be > 0, got %v", r.InitialCapital)
	}
	if r.Strategy.PositionSize <= 0 {
		return fmt.Errorf("position_size must be > 0, got %v", r.Strategy.PositionSize)
	}
	if r.Strategy.StopLossPct < 0 {
		return fmt.Errorf("stop_loss_pct cannot be negative, got %v", r.Strategy.StopLossPct)
	}
	if r.Strategy.TakeProfitPct < 0 {
		return fmt.Errorf("take_profit_pct cannot be negative, got %v", r.Strategy.TakeProfitPct)
	}
	if d := r.Strategy.Direction; d != "" && d != core.DirectionLong && d != core.DirectionShort {
		return fmt.Errorf("direction must be %q or %q, got %q", core.DirectionLong, core.DirectionShort, d)
	}
	for _, id := range r.Strategy.EntryRules {
		if !rules.Has(id) {
			return fmt.Errorf("unknown entry rule %q", id)
		}
	}
	for _, id := range r.Strategy.ExitRules {
		if !rules.Has(id) {
			return fmt.Errorf("unknown exit rule %q", id)
		}
	}
	return nil
}

// equityState tracks running capital and drawdown for a single run.
// Each run allocates its own; nothing is shared across invocations.
type equityState struct {
	capital        float64
	peakCapital    float64
	maxDrawdownPct float64
}

func newEquityState(initialCapital float64) *equityState {
	return &equityState{
		capital:     initialCapital,
		peakCapital: initialCapital,
	}
}

// applyTrade books a closed trade's pnl and updates the monotonic peak
// and max drawdown.
func (e *equityState) applyTrade(pnl float64) {
	e.capital += pnl
	if e.capital > e.peakCapital {
		e.peakCapital = e.capital
	}
	if e.peakCapital > 0 {
		dd := (e.peakCapital - e.capital) / e.peakCapital * 100
		if dd > e.maxDrawdownPct {
			e.maxDrawdownPct = dd
		}
	}
}

package core

import (
	"fmt"
	"math"
	"time"
)

// Direction is the side of a position.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Bar is one OHLCV observation for a single trading day.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Validate checks the bar for malformed values: NaN or negative prices,
// negative volume, or a high/low that does not envelope open and close.
func (b Bar) Validate() error {
	for _, p := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("non-finite price in bar at %s", b.Date.Format("2006-01-02"))
		}
		if p < 0 {
			return fmt.Errorf("negative price in bar at %s", b.Date.Format("2006-01-02"))
		}
	}
	if b.Volume < 0 {
		return fmt.Errorf("negative volume in bar at %s", b.Date.Format("2006-01-02"))
	}
	if b.Low > math.Min(b.Open, b.Close) || b.High < math.Max(b.Open, b.Close) {
		return fmt.Errorf("high/low does not envelope open/close in bar at %s", b.Date.Format("2006-01-02"))
	}
	return nil
}

// StrategyConfig is the declarative description of a trading strategy.
type StrategyConfig struct {
	Name          string    `json:"name"`
	Direction     Direction `json:"direction,omitempty"`
	EntryRules    []string  `json:"entry_rules"`
	ExitRules     []string  `json:"exit_rules"`
	StopLossPct   float64   `json:"stop_loss_pct,omitempty"`
	TakeProfitPct float64   `json:"take_profit_pct,omitempty"`
	PositionSize  float64   `json:"position_size"`
}

// Side returns the configured direction, defaulting to long.
func (s StrategyConfig) Side() Direction {
	if s.Direction == DirectionShort {
		return DirectionShort
	}
	return DirectionLong
}

// Position is a transient open position. At most one exists per run.
type Position struct {
	Direction      Direction
	EntryPrice     float64
	EntryDate      time.Time
	CapitalAtEntry float64
}

// UnrealizedPct returns the unrealized gain (positive) or loss (negative)
// percent of the position at the given price.
func (p Position) UnrealizedPct(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	pct := (price - p.EntryPrice) / p.EntryPrice * 100
	if p.Direction == DirectionShort {
		pct = -pct
	}
	return pct
}

// Trade is an immutable record of a completed round trip.
type Trade struct {
	EntryDate  time.Time `json:"entry_date"`
	ExitDate   time.Time `json:"exit_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Direction  Direction `json:"direction"`
	PnL        float64   `json:"pnl"`
	PnLPercent float64   `json:"pnl_percent"`
}

// IsWin returns true if the trade was profitable.
func (t Trade) IsWin() bool {
	return t.PnL > 0
}

// IsLoss returns true if the trade lost money. Break-even trades are
// neither wins nor losses.
func (t Trade) IsLoss() bool {
	return t.PnL < 0
}

// SummaryStats holds performance statistics derived from a trade list.
// It is recomputed fully from the trades each run, never mutated in place.
type SummaryStats struct {
	TotalTrades     int     `json:"total_trades"`
	WinningTrades   int     `json:"winning_trades"`
	LosingTrades    int     `json:"losing_trades"`
	BreakEvenTrades int     `json:"break_even_trades"`
	WinRate         float64 `json:"win_rate"`
	AverageWin      float64 `json:"average_win"`
	AverageLoss     float64 `json:"average_loss"`
	ProfitFactor    float64 `json:"profit_factor"`
	TotalPnL        float64 `json:"total_pnl"`
	TotalPnLPercent float64 `json:"total_pnl_percent"`
	MaxDrawdownPct  float64 `json:"max_drawdown_pct"`
	SharpeRatio     float64 `json:"sharpe_ratio"`
}

// BacktestResult is the complete output of one engine invocation.
// It is owned by the caller and immutable once returned.
type BacktestResult struct {
	RunID          string       `json:"run_id"`
	Symbol         string       `json:"symbol"`
	Strategy       string       `json:"strategy"`
	StartDate      time.Time    `json:"start_date"`
	EndDate        time.Time    `json:"end_date"`
	InitialCapital float64      `json:"initial_capital"`
	Trades         []Trade      `json:"trades"`
	Summary        SummaryStats `json:"summary"`
}

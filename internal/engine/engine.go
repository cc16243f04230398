// Package engine implements the bar-by-bar backtest simulation loop and
// the summary statistics derived from its trades.
package engine

import (
	"context"
	"fmt"

	"github.com/stratlab/stratlab/internal/core"
	"github.com/stratlab/stratlab/internal/provider"
	"github.com/stratlab/stratlab/internal/rule"
	"go.uber.org/zap"
)

// DefaultMaxBars caps the series length accepted per run.
const DefaultMaxBars = 50_000

// Engine replays a bar series against a strategy and produces a
// BacktestResult. It holds only immutable collaborators and is safe for
// concurrent use; every run allocates its own position and equity state.
type Engine struct {
	provider provider.BarSeriesProvider
	rules    *rule.Registry
	logger   *zap.Logger
	maxBars  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxBars overrides the per-run bar count cap.
func WithMaxBars(n int) Option {
	return func(e *Engine) { e.maxBars = n }
}

// New creates an Engine with the given provider and rule registry.
func New(p provider.BarSeriesProvider, rules *rule.Registry, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		provider: p,
		rules:    rules,
		logger:   logger,
		maxBars:  DefaultMaxBars,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one backtest. All I/O (fetching bars) happens before the
// simulation loop; the loop itself is synchronous and deterministic.
func (e *Engine) Run(ctx context.Context, req Request) (*core.BacktestResult, error) {
	if err := req.Validate(e.rules); err != nil {
		return nil, core.WrapError(core.ErrValidation, err)
	}

	bars, err := e.provider.GetBars(ctx, req.Symbol, req.Start, req.End)
	if err != nil {
		return nil, core.WrapError(core.ErrProviderUnavailable, err)
	}
	if e.maxBars > 0 && len(bars) > e.maxBars {
		return nil, core.WrapError(core.ErrValidation,
			fmt.Errorf("series has %d bars, cap is %d", len(bars), e.maxBars))
	}

	trades, maxDrawdownPct, err := e.simulate(bars, req)
	if err != nil {
		return nil, err
	}

	summary := ComputeSummary(trades, req.InitialCapital, maxDrawdownPct)

	e.logger.Debug("backtest complete",
		zap.String("symbol", req.Symbol),
		zap.String("strategy", req.Strategy.Name),
		zap.Int("bars", len(bars)),
		zap.Int("trades", len(trades)),
	)

	return &core.BacktestResult{
		Symbol:         req.Symbol,
		Strategy:       req.Strategy.Name,
		StartDate:      req.Start,
		EndDate:        req.End,
		InitialCapital: req.InitialCapital,
		Trades:         trades,
		Summary:        summary,
	}, nil
}

// simulate walks the bar series as a two-state machine: Flat and
// InPosition. Fills are at the evaluation bar's close. The final bar
// force-liquidates any open position. There is no cancellation point
// inside the loop; the bar cap bounds its length instead.
func (e *Engine) simulate(bars []core.Bar, req Request) ([]core.Trade, float64, error) {
	trades := make([]core.Trade, 0)
	equity := newEquityState(req.InitialCapital)

	var pos *core.Position
	last := len(bars) - 1

	for i, bar := range bars {
		if err := bar.Validate(); err != nil {
			return nil, 0, core.WrapError(core.ErrDataIntegrity, err)
		}
		if i > 0 && !bar.Date.After(bars[i-1].Date) {
			return nil, 0, core.WrapError(core.ErrDataIntegrity,
				fmt.Errorf("bar dates not strictly increasing at %s", bar.Date.Format("2006-01-02")))
		}

		window := historyWindow(bars, i)

		if pos == nil {
			// A position opened on the final bar could never round-trip.
			if i < last && e.rules.ShouldEnter(req.Strategy.EntryRules, bar, window) {
				pos = &core.Position{
					Direction:      req.Strategy.Side(),
					EntryPrice:     bar.Close,
					EntryDate:      bar.Date,
					CapitalAtEntry: equity.capital,
				}
			}
			continue
		}

		if i == last || e.rules.ShouldExit(req.Strategy, bar, window, *pos) {
			trade := closePosition(*pos, bar, req.Strategy.PositionSize)
			trades = append(trades, trade)
			equity.applyTrade(trade.PnL)
			pos = nil
		}
	}

	return trades, equity.maxDrawdownPct, nil
}

// historyWindow returns the trailing window ending at bar i, bounded so
// predicates can never look ahead and never scan the whole series.
func historyWindow(bars []core.Bar, i int) []core.Bar {
	start := i + 1 - rule.MaxLookback
	if start < 0 {
		start = 0
	}
	return bars[start : i+1]
}

func closePosition(pos core.Position, bar core.Bar, positionSize float64) core.Trade {
	pnl := positionSize * (bar.Close - pos.EntryPrice)
	if pos.Direction == core.DirectionShort {
		pnl = -pnl
	}

	var pnlPercent float64
	if pos.CapitalAtEntry != 0 {
		pnlPercent = pnl / pos.CapitalAtEntry * 100
	}

	return core.Trade{
		EntryDate:  pos.EntryDate,
		ExitDate:   bar.Date,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  bar.Close,
		Direction:  pos.Direction,
		PnL:        pnl,
		PnLPercent: pnlPercent,
	}
}

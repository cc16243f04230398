package engine

import (
	"math"

	"github.com/stratlab/stratlab/internal/core"
)

// tradingDaysPerYear annualizes the Sharpe ratio.
const tradingDaysPerYear = 252

// ComputeSummary derives performance statistics from a finished trade
// list. maxDrawdownPct comes from the equity state accumulated during
// simulation; it depends on trade ordering, not just magnitudes, so it is
// not recomputed here. Every field is a finite number: degenerate inputs
// (no trades, empty buckets, zero deviation) yield explicit zeros, never
// NaN or Inf.
func ComputeSummary(trades []core.Trade, initialCapital, maxDrawdownPct float64) core.SummaryStats {
	stats := core.SummaryStats{
		TotalTrades:    len(trades),
		MaxDrawdownPct: maxDrawdownPct,
	}
	if len(trades) == 0 {
		return stats
	}

	var winSum, lossSum, totalPnL float64
	for _, t := range trades {
		totalPnL += t.PnL
		switch {
		case t.IsWin():
			stats.WinningTrades++
			winSum += t.PnL
		case t.IsLoss():
			stats.LosingTrades++
			lossSum += t.PnL
		default:
			stats.BreakEvenTrades++
		}
	}

	stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades) * 100

	if stats.WinningTrades > 0 {
		stats.AverageWin = winSum / float64(stats.WinningTrades)
	}
	if stats.LosingTrades > 0 {
		stats.AverageLoss = lossSum / float64(stats.LosingTrades)
	}

	// Profit factor is 0 whenever the loss bucket is empty, regardless of
	// wins, so Inf never reaches a report.
	if stats.AverageLoss != 0 {
		stats.ProfitFactor = stats.AverageWin / math.Abs(stats.AverageLoss)
	}

	stats.TotalPnL = totalPnL
	if initialCapital != 0 {
		stats.TotalPnLPercent = totalPnL / initialCapital * 100
	}

	stats.SharpeRatio = sharpeRatio(trades)

	return stats
}

// sharpeRatio computes mean(pnlPercent) / populationStdDev(pnlPercent),
// annualized by sqrt(252). Zero with fewer than 2 trades or zero
// deviation.
func sharpeRatio(trades []core.Trade) float64 {
	if len(trades) < 2 {
		return 0
	}

	var sum float64
	for _, t := range trades {
		sum += t.PnLPercent
	}
	mean := sum / float64(len(trades))

	var variance float64
	for _, t := range trades {
		d := t.PnLPercent - mean
		variance += d * d
	}
	stdDev := math.Sqrt(variance / float64(len(trades)))

	if stdDev == 0 {
		return 0
	}
	return mean / stdDev * math.Sqrt(tradingDaysPerYear)
}

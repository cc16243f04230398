package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stratlab/stratlab/internal/app"
	"github.com/stratlab/stratlab/internal/core"
	"github.com/stratlab/stratlab/internal/engine"
	"github.com/stratlab/stratlab/internal/logger"
)

var (
	backtestSymbol     string
	backtestFrom       string
	backtestTo         string
	backtestEntryRules []string
	backtestExitRules  []string
	backtestDirection  string
	backtestStopLoss   float64
	backtestTakeProfit float64
	backtestSize       float64
	backtestCapital    float64
	backtestUser       string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [strategy-name]",
	Short: "Run a backtest and print its statistics",
	Long:  "Run a rule-based strategy against historical bars and show per-trade and summary statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "Symbol to backtest (required)")
	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "Start date YYYY-MM-DD (required)")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "End date YYYY-MM-DD (required)")
	backtestCmd.Flags().StringSliceVar(&backtestEntryRules, "entry", nil, "Entry rule ids, all must fire (required)")
	backtestCmd.Flags().StringSliceVar(&backtestExitRules, "exit", nil, "Exit rule ids, any may fire")
	backtestCmd.Flags().StringVar(&backtestDirection, "direction", "long", "Trade direction: long or short")
	backtestCmd.Flags().Float64Var(&backtestStopLoss, "stop-loss", 0, "Stop loss percent, 0 disables")
	backtestCmd.Flags().Float64Var(&backtestTakeProfit, "take-profit", 0, "Take profit percent, 0 disables")
	backtestCmd.Flags().Float64Var(&backtestSize, "size", 1, "Position size in units")
	backtestCmd.Flags().Float64Var(&backtestCapital, "capital", 10000, "Initial capital")
	backtestCmd.Flags().StringVar(&backtestUser, "user", "cli", "User id the result is stored under")

	backtestCmd.MarkFlagRequired("symbol")
	backtestCmd.MarkFlagRequired("from")
	backtestCmd.MarkFlagRequired("to")
	backtestCmd.MarkFlagRequired("entry")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	fromDate, err := time.Parse("2006-01-02", backtestFrom)
	if err != nil {
		return fmt.Errorf("invalid from date format (expected YYYY-MM-DD): %w", err)
	}
	toDate, err := time.Parse("2006-01-02", backtestTo)
	if err != nil {
		return fmt.Errorf("invalid to date format (expected YYYY-MM-DD): %w", err)
	}

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("building app: %w", err)
	}
	defer a.Close()

	req := engine.Request{
		Symbol: backtestSymbol,
		Start:  fromDate,
		End:    toDate,
		Strategy: core.StrategyConfig{
			Name:          args[0],
			Direction:     core.Direction(backtestDirection),
			EntryRules:    backtestEntryRules,
			ExitRules:     backtestExitRules,
			StopLossPct:   backtestStopLoss,
			TakeProfitPct: backtestTakeProfit,
			PositionSize:  backtestSize,
		},
		InitialCapital: backtestCapital,
	}

	result, err := a.Engine().Run(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("running backtest: %w", err)
	}
	result = a.Assembler().Assemble(context.Background(), backtestUser, result)

	printResult(result)
	return nil
}

func printResult(r *core.BacktestResult) {
	fmt.Println("=== StratLab Backtest ===")
	fmt.Printf("Run:      %s\n", r.RunID)
	fmt.Printf("Strategy: %s\n", r.Strategy)
	fmt.Printf("Symbol:   %s\n", r.Symbol)
	fmt.Printf("Period:   %s to %s\n",
		r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"))
	fmt.Println()

	s := r.Summary
	fmt.Printf("Trades:        %d (%d won, %d lost, %d even)\n",
		s.TotalTrades, s.WinningTrades, s.LosingTrades, s.BreakEvenTrades)
	fmt.Printf("Win rate:      %.1f%%\n", s.WinRate)
	fmt.Printf("Total PnL:     %.2f (%.2f%%)\n", s.TotalPnL, s.TotalPnLPercent)
	fmt.Printf("Avg win/loss:  %.2f / %.2f\n", s.AverageWin, s.AverageLoss)
	fmt.Printf("Profit factor: %.2f\n", s.ProfitFactor)
	fmt.Printf("Max drawdown:  %.2f%%\n", s.MaxDrawdownPct)
	fmt.Printf("Sharpe ratio:  %.2f\n", s.SharpeRatio)

	if len(r.Trades) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Trades:")
	for _, tr := range r.Trades {
		fmt.Printf("  %s %s  %s -> %s  %.2f -> %.2f  pnl %.2f (%.2f%%)\n",
			strings.ToUpper(string(tr.Direction)), r.Symbol,
			tr.EntryDate.Format("2006-01-02"), tr.ExitDate.Format("2006-01-02"),
			tr.EntryPrice, tr.ExitPrice, tr.PnL, tr.PnLPercent)
	}
}

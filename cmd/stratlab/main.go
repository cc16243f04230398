package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "stratlab",
	Short: "StratLab - rule-based strategy backtesting",
	Long: `StratLab runs trading-strategy backtests against historical bar data.
Strategies are composed from a catalog of entry and exit rules and
evaluated bar by bar with per-trade and summary statistics.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

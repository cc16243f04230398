package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stratlab/stratlab/internal/app"
	"github.com/stratlab/stratlab/internal/config"
	"github.com/stratlab/stratlab/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the StratLab server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func loadConfig(log *zap.Logger) (*config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}
	log.Warn("no config file specified, using defaults")
	return config.Defaults(), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	log.Info("starting StratLab server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("building app: %w", err)
	}
	defer a.Close()

	// Start server in goroutine
	go func() {
		if err := a.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down StratLab server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return a.Shutdown(ctx)
}

package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/stratlab/stratlab/internal/api"
	"github.com/stratlab/stratlab/internal/config"
	"github.com/stratlab/stratlab/internal/engine"
	"github.com/stratlab/stratlab/internal/metrics"
	"github.com/stratlab/stratlab/internal/provider"
	"github.com/stratlab/stratlab/internal/rule"
	"github.com/stratlab/stratlab/internal/storage/archive"
	"github.com/stratlab/stratlab/internal/store"
)

// App wires configuration into a running StratLab instance: provider,
// rule registry, engine, result store and HTTP server.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	rules     *rule.Registry
	provider  provider.BarSeriesProvider
	store     store.ResultStore
	metrics   *metrics.Registry
	engine    *engine.Engine
	assembler *engine.Assembler
	server    *api.Server

	closers []func() error
}

// New builds an App from validated configuration.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		rules:  rule.NewRegistry(),
	}

	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewRegistry()
	}

	a.provider = buildProvider(cfg, a.metrics)

	st, closer, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}
	a.store = st
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	a.engine = engine.New(a.provider, a.rules, logger,
		engine.WithMaxBars(cfg.Engine.MaxBars))

	a.assembler = engine.NewAssembler(a.store, logger)
	if a.metrics != nil {
		a.assembler.WithRecorder(a.metrics)
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	srv, err := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		MetricsPath: metricsPath,
	}, api.Dependencies{
		Engine:    a.engine,
		Assembler: a.assembler,
		Store:     a.store,
		Rules:     a.rules,
		Metrics:   a.metrics,
	}, logger)
	if err != nil {
		return nil, err
	}
	a.server = srv

	return a, nil
}

func buildProvider(cfg *config.Config, m *metrics.Registry) provider.BarSeriesProvider {
	var p provider.BarSeriesProvider = provider.NewSynthetic(provider.SyntheticConfig{
		Seed:       cfg.Provider.Seed,
		StartPrice: cfg.Provider.StartPrice,
		Volatility: cfg.Provider.Volatility,
		Drift:      cfg.Provider.Drift,
		BaseVolume: cfg.Provider.BaseVolume,
	})
	if cfg.Provider.Cache.Enabled {
		p = provider.NewCache(p, cfg.Provider.Cache.MaxEntries, cfg.Provider.Cache.TTL)
	}
	if m != nil {
		p = provider.NewInstrumented(p, m)
	}
	return p
}

func buildStore(cfg *config.Config) (store.ResultStore, func() error, error) {
	switch cfg.Storage.Type {
	case "memory":
		return store.NewMemoryStore(), nil, nil
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return s, s.Close, nil
	case "archive":
		backend, err := buildArchive(cfg)
		if err != nil {
			return nil, nil, err
		}
		return store.NewArchiveStore(backend), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}

func buildArchive(cfg *config.Config) (archive.Storage, error) {
	switch cfg.Storage.Archive.Type {
	case "localfs":
		return archive.NewLocalFS(cfg.Storage.Archive.Path)
	case "s3":
		s3 := cfg.Storage.Archive.S3
		return archive.NewS3(archive.S3Config{
			Bucket:    s3.Bucket,
			Endpoint:  s3.Endpoint,
			Region:    s3.Region,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			Prefix:    s3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Storage.Archive.Type)
	}
}

// Start runs the HTTP server until it is shut down.
func (a *App) Start() error {
	a.logger.Info("stratlab starting",
		zap.String("provider", a.cfg.Provider.Type),
		zap.String("storage", a.cfg.Storage.Type),
	)
	return a.server.Start()
}

// Shutdown gracefully stops the HTTP server.
func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// Close releases resources held by the app, such as store handles.
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Engine returns the backtest engine, used by the CLI run path.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Assembler returns the report assembler, used by the CLI run path.
func (a *App) Assembler() *engine.Assembler {
	return a.assembler
}

// Rules returns the rule registry.
func (a *App) Rules() *rule.Registry {
	return a.rules
}

// Store returns the configured result store.
func (a *App) Store() store.ResultStore {
	return a.store
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/stratlab/stratlab/internal/core"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Provider ProviderConfig `mapstructure:"provider"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

// EngineConfig bounds the simulation loop.
type EngineConfig struct {
	MaxBars int `mapstructure:"max_bars"`
}

// ProviderConfig selects and tunes the bar series provider.
type ProviderConfig struct {
	Type       string      `mapstructure:"type"` // "synthetic"
	Seed       int64       `mapstructure:"seed"`
	StartPrice float64     `mapstructure:"start_price"`
	Volatility float64     `mapstructure:"volatility"`
	Drift      float64     `mapstructure:"drift"`
	BaseVolume int64       `mapstructure:"base_volume"`
	Cache      CacheConfig `mapstructure:"cache"`
}

// CacheConfig bounds the injected bar cache.
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	MaxEntries int           `mapstructure:"max_entries"`
	TTL        time.Duration `mapstructure:"ttl"`
}

// StorageConfig selects the result persistence backend.
type StorageConfig struct {
	Type    string        `mapstructure:"type"` // "memory", "sqlite" or "archive"
	SQLite  SQLiteConfig  `mapstructure:"sqlite"`
	Archive ArchiveConfig `mapstructure:"archive"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Engine: EngineConfig{
			MaxBars: 50_000,
		},
		Provider: ProviderConfig{
			Type:       "synthetic",
			Seed:       1,
			StartPrice: 100,
			Volatility: 0.02,
			BaseVolume: 100_000,
			Cache: CacheConfig{
				Enabled:    true,
				MaxEntries: 128,
				TTL:        15 * time.Minute,
			},
		},
		Storage: StorageConfig{
			Type:   "sqlite",
			SQLite: SQLiteConfig{Path: "stratlab.db"},
			Archive: ArchiveConfig{
				Type: "localfs",
				Path: "archive",
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.Engine.MaxBars < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("engine.max_bars must be positive, got %d", c.Engine.MaxBars))
	}

	switch c.Provider.Type {
	case "synthetic":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown provider type %q", c.Provider.Type))
	}
	if c.Provider.Cache.Enabled {
		if c.Provider.Cache.MaxEntries < 1 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("provider.cache.max_entries must be positive, got %d", c.Provider.Cache.MaxEntries))
		}
		if c.Provider.Cache.TTL <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("provider.cache.ttl must be positive, got %s", c.Provider.Cache.TTL))
		}
	}

	switch c.Storage.Type {
	case "memory":
	case "sqlite":
		if c.Storage.SQLite.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage.sqlite.path required when storage type is sqlite"))
		}
	case "archive":
		switch c.Storage.Archive.Type {
		case "localfs":
			if c.Storage.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("storage.archive.path required for localfs archive"))
			}
		case "s3":
			if c.Storage.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("storage.archive.s3.bucket required for s3 archive"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown archive type %q", c.Storage.Archive.Type))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}

	return nil
}

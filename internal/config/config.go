package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/localpulse/listings-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Provider  ProviderConfig  `yaml:"provider" mapstructure:"provider"`
	Publish   PublishConfig   `yaml:"publish" mapstructure:"publish"`
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"` // "postgres" or "sqlite"
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string            `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ProviderConfig configures the listings provider API.
type ProviderConfig struct {
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// PublishConfig configures the publish orchestration.
type PublishConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ReconcileConfig configures the reconciliation sweep.
type ReconcileConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	MaxRetries  int `yaml:"max_retries" mapstructure:"max_retries"`
}

// ServerConfig configures the sync API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LISTINGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "listings.db")
	v.SetDefault("provider.base_url", "https://api.places.example.com/v1")
	v.SetDefault("provider.rate_limit_rps", 10.0)
	v.SetDefault("publish.timeout_secs", 30)
	v.SetDefault("reconcile.concurrency", 8)
	v.SetDefault("reconcile.max_retries", 3)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

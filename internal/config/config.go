package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	RedisURL  string `env:"REDIS_URL"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	MonitorConfigFile string `env:"MONITOR_CONFIG_FILE" default:"monitor.yaml"`

	BufferSize    int           `env:"PIPELINE_BUFFER_SIZE" default:"10000"`
	BatchSize     int           `env:"PIPELINE_BATCH_SIZE" default:"100"`
	Workers       int           `env:"PIPELINE_WORKERS" default:"0"`
	BatchFlush    time.Duration `env:"PIPELINE_BATCH_FLUSH" default:"200ms"`
	StatsInterval time.Duration `env:"PIPELINE_STATS_INTERVAL" default:"60s"`
	ModelTimeout  time.Duration `env:"SENTIMENT_MODEL_TIMEOUT" default:"5s"`
	ResultTTL     time.Duration `env:"STORE_RESULT_TTL" default:"24h"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.BufferSize <= 0 {
		return fmt.Errorf("PIPELINE_BUFFER_SIZE must be positive, got %d", cfg.BufferSize)
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("PIPELINE_BATCH_SIZE must be positive, got %d", cfg.BatchSize)
	}
	if cfg.BatchSize > cfg.BufferSize {
		return fmt.Errorf("PIPELINE_BATCH_SIZE (%d) must not exceed PIPELINE_BUFFER_SIZE (%d)", cfg.BatchSize, cfg.BufferSize)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("PIPELINE_WORKERS must not be negative, got %d", cfg.Workers)
	}
	if cfg.ModelTimeout <= 0 {
		return fmt.Errorf("SENTIMENT_MODEL_TIMEOUT must be positive, got %s", cfg.ModelTimeout)
	}
	return nil
}

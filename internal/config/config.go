package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv          string        `env:"APP_ENV" default:"development"`
	APIEndpoint     string        `env:"CONF_API_ENDPOINT" default:"http://0.0.0.0:8080"`
	StoragePath     string        `env:"CONF_STORAGE_PATH" default:"kotlinconf.db"`
	SyncInterval    time.Duration `env:"CONF_SYNC_INTERVAL" default:"60s"`
	RequestTimeout  time.Duration `env:"CONF_REQUEST_TIMEOUT" default:"10s"`
	Timezone        string        `env:"CONF_TIMEZONE" default:"Europe/Copenhagen"`
	FrozenTime      string        `env:"CONF_FROZEN_TIME"`
	ReminderLead    time.Duration `env:"CONF_REMINDER_LEAD" default:"10m"`
	LogLevel        string        `env:"LOG_LEVEL" default:"info"`
	LogFormat       string        `env:"LOG_FORMAT" default:"text"`
	DiagnosticsPort string        `env:"PORT" default:"8081"`

	location *time.Location
	frozenAt time.Time
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
	if cfg.APIEndpoint == "" {
		return fmt.Errorf("CONF_API_ENDPOINT is required")
	}

	if cfg.SyncInterval < time.Second {
		return fmt.Errorf("CONF_SYNC_INTERVAL must be at least 1s, got %s", cfg.SyncInterval)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("CONF_TIMEZONE must be a valid IANA zone: %w", err)
	}
	cfg.location = loc

	if cfg.FrozenTime != "" {
		at, err := time.Parse(time.RFC3339, cfg.FrozenTime)
		if err != nil {
			return fmt.Errorf("CONF_FROZEN_TIME must be RFC3339: %w", err)
		}
		cfg.frozenAt = at
	}

	return nil
}

// Location returns the conference timezone.
func (c *Config) Location() *time.Location {
	return c.location
}

// FrozenAt returns the pinned reference time, zero when the engine should use
// the wall clock. Pinning exists so the app can be demoed against a recorded
// conference schedule.
func (c *Config) FrozenAt() time.Time {
	return c.frozenAt
}

package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/pkg/errors"
)

// Config holds the client-side settings for the dashboard. Everything comes
// from the environment; DataDir falls back to a per-user config directory.
type Config struct {
	AppName     string        `env:"FOOTFALL_APP_NAME" envDefault:"PeopleCounting"`
	APIBaseURL  string        `env:"FOOTFALL_API_URL" envDefault:"https://dashboard.peoplecounting.local/api"`
	DataDir     string        `env:"FOOTFALL_DATA_DIR"`
	HTTPTimeout time.Duration `env:"FOOTFALL_HTTP_TIMEOUT" envDefault:"30s"`
	LogLevel    string        `env:"FOOTFALL_LOG_LEVEL" envDefault:"info"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Wrap(err, "[config.Load] env.Parse")
	}
	if cfg.DataDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, errors.Wrap(err, "[config.Load] os.UserConfigDir")
		}
		cfg.DataDir = filepath.Join(base, "footfall")
	}
	return &cfg, nil
}

// SessionFile is the path of the persisted session.
func (c *Config) SessionFile() string {
	return filepath.Join(c.DataDir, "session.json")
}

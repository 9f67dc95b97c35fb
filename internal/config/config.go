package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration, read from the environment.
type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:"0.0.0.0"`
	ServerPort    int    `env:"SERVER_PORT" envDefault:"8080"`
	Debug         bool   `env:"DEBUG" envDefault:"false"`

	// DataDir is where dataset locators resolve unless they are URLs.
	DataDir   string `env:"DATA_DIR" envDefault:"./data"`
	PrefsFile string `env:"PREFS_FILE" envDefault:"./data/prefs.json"`

	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerAddress, c.ServerPort)
}

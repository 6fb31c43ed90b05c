package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// DefaultDotenvFile is read by Load when no files are given
const DefaultDotenvFile = ".env"

// Config holds all configuration for the certificate gateway
type Config struct {
	// Server configuration
	Port     int    `env:"PORT" envDefault:"6120"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Replace raw database errors with a classified kind and correlation id
	RedactErrors bool `env:"REDACT_ERRORS" envDefault:"false"`

	// Prometheus listener, disabled when 0
	MetricsPort int `env:"METRICS_PORT" envDefault:"0"`

	// Database configuration
	Database DatabaseConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// DatabaseConfig holds MySQL connection configuration
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"3306"`
	User     string `env:"DB_USER" envDefault:"root"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" envDefault:"osteo"`

	// Connection pool settings
	MaxConns       int           `env:"DB_MAX_CONNS" envDefault:"10"`
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"10s"`
	StatsInterval  time.Duration `env:"POOL_STATS_INTERVAL" envDefault:"0s"`

	// Location used for calendar-day windows and driver time conversion.
	// Must match the zone the date column is written in.
	Timezone string `env:"DB_TIMEZONE" envDefault:"Local"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load reads configuration from environment variables. Variables found in
// the given dotenv files (or .env when none are given) are applied first,
// without overriding variables already set in the process environment.
func Load(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{DefaultDotenvFile}
	}
	for _, file := range dotenvFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Port)
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.MetricsPort)
	}
	if c.MetricsPort != 0 && c.MetricsPort == c.Port {
		return fmt.Errorf("metrics port must differ from HTTP port %d", c.Port)
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("database pool size must be at least 1")
	}
	if c.Database.StatsInterval < 0 {
		return fmt.Errorf("pool stats interval must not be negative")
	}
	if _, err := c.Database.Location(); err != nil {
		return err
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// MetricsEnabled reports whether the Prometheus listener should run
func (c *Config) MetricsEnabled() bool {
	return c.MetricsPort > 0
}

// Location resolves the configured timezone
func (d DatabaseConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid database timezone %q: %w", d.Timezone, err)
	}
	return loc, nil
}

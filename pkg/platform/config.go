// Package platform holds the station configuration.
package platform

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/trash2cash/station-platform/pkg/reward"
)

// Config holds the complete station configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Session  SessionConfig  `yaml:"session"`
	Rewards  RewardsConfig  `yaml:"rewards"`
	Sensor   SensorConfig   `yaml:"sensor"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Name    string    `yaml:"name"`
	Version string    `yaml:"version"`
	Address string    `yaml:"address"`
	TLS     TLSConfig `yaml:"tls"`
}

// TLSConfig configures TLS.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// DatabaseConfig configures the PostgreSQL backend. An empty DSN selects
// the in-memory stores, which is the mode kiosk demos run in.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// AuthConfig configures JWT issuance for mobile clients.
type AuthConfig struct {
	Issuer     string        `yaml:"issuer"`
	SigningKey string        `yaml:"signing_key"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
}

// SessionConfig configures the QR session engine.
type SessionConfig struct {
	TTL               time.Duration `yaml:"ttl"`
	Grace             time.Duration `yaml:"grace"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	RequestBurst      int           `yaml:"request_burst"`
}

// RewardsConfig overrides per-kilogram material rates in rupiah.
// Materials not listed keep their default rate.
type RewardsConfig struct {
	Rates map[string]int64 `yaml:"rates"`
}

// SensorConfig configures the simulated material sensor.
type SensorConfig struct {
	Seed int64 `yaml:"seed"`
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig loads configuration from a file.
// The path is expected to come from command line arguments, controlled by the operator.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "station-platform"
	}
	if cfg.Server.Version == "" {
		cfg.Server.Version = "1.0.0"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "trash2cash"
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 5 * time.Minute
	}
	if cfg.Session.Grace == 0 {
		cfg.Session.Grace = 10 * time.Minute
	}
	if cfg.Session.CleanupInterval == 0 {
		cfg.Session.CleanupInterval = time.Minute
	}
}

// Rates merges configured overrides over the default material rates.
func (c *Config) Rates() map[reward.Material]int64 {
	rates := make(map[reward.Material]int64, len(reward.DefaultRates))
	for m, r := range reward.DefaultRates {
		rates[m] = r
	}
	for m, r := range c.Rewards.Rates {
		rates[reward.Material(m)] = r
	}
	return rates
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Auth.SigningKey == "" {
		errs = append(errs, "auth.signing_key is required")
	}
	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" {
			errs = append(errs, "server.tls.cert_file is required when TLS is enabled")
		}
		if c.Server.TLS.KeyFile == "" {
			errs = append(errs, "server.tls.key_file is required when TLS is enabled")
		}
	}
	for m, r := range c.Rewards.Rates {
		if !reward.Material(m).Valid() {
			errs = append(errs, fmt.Sprintf("rewards.rates: unknown material %q", m))
		}
		if r < 0 {
			errs = append(errs, fmt.Sprintf("rewards.rates.%s must not be negative", m))
		}
	}
	if c.Session.RequestsPerMinute < 0 {
		errs = append(errs, "session.requests_per_minute must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

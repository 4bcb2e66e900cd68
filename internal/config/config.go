// Package config loads process configuration from an optional YAML file and
// the environment. Environment variables always win over file values.
package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// DefaultWebhookSecret is the local-development fallback for the shared
// webhook secret. Never safe for production; a warning is logged when it is
// in use.
const DefaultWebhookSecret = "dev-secret"

// Config holds all process-wide settings. Loaded once at startup.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `env:"REPOPULSE_LISTEN" yaml:"listen"`

	// DatabasePath is the SQLite database file path.
	DatabasePath string `env:"REPOPULSE_DB_PATH" yaml:"database_path"`

	// WebhookSecret is the shared secret for HMAC-SHA256 signature
	// verification of inbound webhook deliveries.
	WebhookSecret string `env:"GITHUB_WEBHOOK_SECRET" yaml:"webhook_secret"`

	// LogLevel is one of DEBUG, INFO, WARN, ERROR.
	LogLevel string `env:"REPOPULSE_LOG_LEVEL" yaml:"log_level"`
}

// Default returns the local-development configuration.
func Default() Config {
	return Config{
		Listen:        "127.0.0.1:8080",
		DatabasePath:  "data/events.db",
		WebhookSecret: DefaultWebhookSecret,
		LogLevel:      "INFO",
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is empty")
	}
	if c.WebhookSecret == "" {
		return fmt.Errorf("webhook secret is empty")
	}
	return nil
}

// UsingDevSecret reports whether the webhook secret is still the
// local-development default.
func (c *Config) UsingDevSecret() bool {
	return c.WebhookSecret == DefaultWebhookSecret
}

// Fingerprint computes the BLAKE3 hash of the config file at path, logged
// at startup so operators can spot config drift between restarts.
func Fingerprint(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

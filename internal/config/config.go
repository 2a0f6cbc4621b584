// Package config provides configuration loading for redactd.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/redactd/internal/logging"
)

// Config is the full redactd configuration.
type Config struct {
	Server  ServerConfig   `koanf:"server"`
	Engine  EngineConfig   `koanf:"engine"`
	Logging logging.Config `koanf:"logging"`
}

// ServerConfig configures the HTTP listeners.
type ServerConfig struct {
	// Host to bind (default: localhost).
	Host string `koanf:"host"`

	// Port for the API listener (default: 9180).
	Port int `koanf:"port"`

	// MetricsPort for the prometheus exposition listener; negative
	// disables it (default: 9181).
	MetricsPort int `koanf:"metrics_port"`

	// ShutdownTimeout bounds graceful shutdown (default: 10s).
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// EngineConfig configures the matching and refinement engine.
type EngineConfig struct {
	// PrecisionFloor is the refinement-eligibility precision threshold
	// (default: 0.7). Global, not per pattern.
	PrecisionFloor float64 `koanf:"precision_floor"`

	// MaxRegexLength caps pattern regex source length (default: 1000).
	MaxRegexLength int `koanf:"max_regex_length"`

	// SeedTemplates loads the built-in pattern catalog into the
	// registry at startup (default: false).
	SeedTemplates bool `koanf:"seed_templates"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port %d", c.Server.MetricsPort)
	}
	if c.Engine.PrecisionFloor < 0 || c.Engine.PrecisionFloor > 1 {
		return fmt.Errorf("precision floor must be between 0.0 and 1.0, got %v", c.Engine.PrecisionFloor)
	}
	if c.Engine.MaxRegexLength <= 0 {
		return fmt.Errorf("max regex length must be positive, got %d", c.Engine.MaxRegexLength)
	}
	return c.Logging.Validate()
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9180
	}
	if cfg.Server.MetricsPort == 0 {
		cfg.Server.MetricsPort = 9181
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Engine.PrecisionFloor == 0 {
		cfg.Engine.PrecisionFloor = 0.7
	}
	if cfg.Engine.MaxRegexLength == 0 {
		cfg.Engine.MaxRegexLength = 1000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

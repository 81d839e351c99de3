// Package config loads and validates the analyzer configuration. All
// fields have working defaults; a config file only overrides what it
// names.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-circuit/pkg/decoupling"
	"github.com/dd0wney/cluso-circuit/pkg/validation"
	"github.com/dd0wney/cluso-circuit/pkg/voltage"
)

// Config is the full analyzer configuration.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Voltage    voltage.Params   `yaml:"voltage"`
	Decoupling DecouplingConfig `yaml:"decoupling"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// DecouplingConfig tunes the group analyzer.
type DecouplingConfig struct {
	MaxDistanceMM float64 `yaml:"max_distance_mm" validate:"omitempty,gt=0"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"omitempty,hostname_port"`
}

var validate = validator.New()

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Logging:    LoggingConfig{Level: "info"},
		Voltage:    voltage.DefaultParams(),
		Decoupling: DecouplingConfig{MaxDistanceMM: decoupling.MaxDistanceMM},
		Metrics:    MetricsConfig{Enabled: false, Addr: "localhost:9090"},
	}
}

// Load reads a YAML config file over the defaults and validates the
// result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and cross-field consistency.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	return validation.NewConfigValidator("Config").
		RangeFloat("Voltage.ConflictThreshold", c.Voltage.ConflictThreshold, 0, 10).
		PositiveFloat("Decoupling.MaxDistanceMM", c.Decoupling.MaxDistanceMM).
		When(c.Metrics.Enabled, func(cv *validation.ConfigValidator) {
			cv.Required("Metrics.Addr", c.Metrics.Addr)
		}).
		Validate()
}

// Package config loads registry configuration from YAML files.
//
// Configuration covers ambient settings (logging, bulk load parallelism) and
// composite index declarations. Property types are Go types and are always
// registered in code; composites only name already registered properties.
//
// Example file:
//
//	log:
//	  level: debug
//	  format: json
//	load:
//	  workers: 8
//	composites:
//	  - [region, age]
//	  - [status, tier, region]
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatNone = "none"
)

// Config represents the complete registry configuration.
type Config struct {
	// Log configures the registry logger.
	Log LogConfig `yaml:"log"`

	// Load configures bulk loading.
	Load LoadConfig `yaml:"load"`

	// Composites lists composite indexes to register, each as a list of
	// property names in any order.
	Composites [][]string `yaml:"composites,omitempty"`
}

// LogConfig defines logging parameters.
type LogConfig struct {
	// Level is the minimum level: debug, info, warn or error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is text, json or none.
	// Default: "none"
	Format string `yaml:"format"`
}

// LoadConfig defines bulk load parameters.
type LoadConfig struct {
	// Workers bounds the number of indexes filled concurrently.
	// Default: GOMAXPROCS
	Workers int `yaml:"workers"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: FormatNone,
		},
		Load: LoadConfig{
			Workers: runtime.GOMAXPROCS(0),
		},
	}
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return LoadYAML(data)
}

// LoadYAML parses YAML bytes over the defaults and validates the result.
func LoadYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case FormatText, FormatJSON, FormatNone:
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q", c.Log.Format))
	}
	if c.Load.Workers < 1 {
		errs = append(errs, fmt.Errorf("load workers must be positive, got %d", c.Load.Workers))
	}
	for i, names := range c.Composites {
		if len(names) < 2 {
			errs = append(errs, fmt.Errorf("composite %d needs at least two properties, got %d", i, len(names)))
		}
	}

	return errors.Join(errs...)
}

// SlogLevel parses the configured log level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return level, nil
}

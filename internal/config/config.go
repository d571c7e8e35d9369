// Package config handles buildgeo configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// Config holds all tool settings.
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Geometry GeometryConfig `yaml:"geometry"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DataConfig holds game data file paths.
type DataConfig struct {
	GRPPaths []string `yaml:"grp_paths"` // later archives override earlier ones
	Map      string   `yaml:"map"`       // default level lump
}

// GeometryConfig holds level build settings.
type GeometryConfig struct {
	SlopeDivisor  float32 `yaml:"slope_divisor"`
	CeilingSlopes bool    `yaml:"ceiling_slopes"`
	Workers       int     `yaml:"workers"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Validation errors.
var (
	ErrInvalidSlopeDivisor = errors.New("slope divisor must be positive")
	ErrInvalidWorkers      = errors.New("workers must not be negative")
	ErrInvalidLogLevel     = errors.New("unknown log level")
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			GRPPaths: []string{"DUKE3D.GRP"},
			Map:      "E1L1.MAP",
		},
		Geometry: GeometryConfig{
			SlopeDivisor:  4096,
			CeilingSlopes: false,
			Workers:       1,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.Geometry.SlopeDivisor <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSlopeDivisor, c.Geometry.SlopeDivisor)
	}
	if c.Geometry.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Geometry.Workers)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	return nil
}

// Package config handles exporter configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/midgard-usd/internal/export"
)

// Config holds all exporter settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Data    DataConfig    `yaml:"data"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig holds the settings passed to the exporter.
type ExportConfig struct {
	Units        string `yaml:"units"`  // meters, centimeters, millimeters, inches
	UVMap        string `yaml:"uv_map"` // preferred UV map, empty for the host selection
	ValidateOnly bool   `yaml:"validate_only"`
	OutputDir    string `yaml:"output_dir"` // where outputs go when no path is given
}

// DataConfig holds game data locations.
type DataConfig struct {
	GRFPaths    []string `yaml:"grf_paths"`    // Paths to GRF archives
	TextureDirs []string `yaml:"texture_dirs"` // Directories searched before archives
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			Units:     export.UnitsMeters.String(),
			OutputDir: ".",
		},
		Data: DataConfig{
			GRFPaths: []string{"data.grf"},
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}

// ExportUnits returns the configured unit preference.
func (c *Config) ExportUnits() (export.Units, error) {
	u, ok := export.ParseUnits(c.Export.Units)
	if !ok {
		return export.UnitsMeters, fmt.Errorf("unknown units %q", c.Export.Units)
	}
	return u, nil
}

// Validate checks values that cannot be repaired silently.
func (c *Config) Validate() error {
	if _, err := c.ExportUnits(); err != nil {
		return err
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}

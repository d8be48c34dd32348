// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads the uartterm configuration file
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values
const (
	DefaultBaud        = 115200
	DefaultDataBits    = 8
	DefaultStopBits    = "1"
	DefaultParity      = "none"
	DefaultSearchRange = 10
	DefaultMode        = "char"
)

// Config represents the complete configuration
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Session SessionConfig `yaml:"session"`
	Render  RenderConfig  `yaml:"render"`
	Log     LogConfig     `yaml:"log"`
}

// SerialConfig contains link settings
type SerialConfig struct {
	Port        string `yaml:"port"`
	Baud        int    `yaml:"baud"`
	DataBits    int    `yaml:"data_bits"`
	StopBits    string `yaml:"stop_bits"`
	Parity      string `yaml:"parity"`
	SearchRange int    `yaml:"search_range"`

	// WebSocket bridge instead of a local port
	URL         string `yaml:"url"`
	Username    string `yaml:"username"`
	NoSSLVerify bool   `yaml:"no_ssl_verify"`
}

// SessionConfig contains the initial session state
type SessionConfig struct {
	Mode                string `yaml:"mode"`
	Safe                bool   `yaml:"safe"`
	Mute                bool   `yaml:"mute"`
	Checksum            string `yaml:"checksum"`
	WorkDir             string `yaml:"work_dir"`
	DumpFile            string `yaml:"dump_file"`
	IdleTimeoutMinutes  int    `yaml:"idle_timeout_minutes"`
	ListenerCheckMillis int    `yaml:"listener_check_ms"`
}

// RenderConfig contains receive line batching settings
type RenderConfig struct {
	LineGapMillis   int `yaml:"line_gap_ms"`
	MaxCharUnits    int `yaml:"max_char_units"`
	MaxNumericUnits int `yaml:"max_numeric_units"`
}

// LogConfig contains session log settings
type LogConfig struct {
	Dir            string `yaml:"dir"`
	Keep           bool   `yaml:"keep"`
	Disabled       bool   `yaml:"disabled"`
	LockWaitMillis int    `yaml:"lock_wait_ms"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Baud:        DefaultBaud,
			DataBits:    DefaultDataBits,
			StopBits:    DefaultStopBits,
			Parity:      DefaultParity,
			SearchRange: DefaultSearchRange,
		},
		Session: SessionConfig{
			Mode: DefaultMode,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/uartterm/config.yaml
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "uartterm", "config.yaml")
}

// Load loads configuration from a YAML file on top of the defaults. A
// missing file is not an error unless it was named explicitly.
func Load(filename string, explicit bool) (*Config, error) {
	cfg := Default()
	if filename == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be positive, got %d", c.Serial.Baud)
	}
	if c.Serial.DataBits < 5 || c.Serial.DataBits > 8 {
		return fmt.Errorf("serial.data_bits must be between 5 and 8, got %d", c.Serial.DataBits)
	}
	switch c.Serial.StopBits {
	case "1", "1.5", "2":
	default:
		return fmt.Errorf("serial.stop_bits must be 1, 1.5 or 2, got %q", c.Serial.StopBits)
	}
	switch strings.ToLower(c.Serial.Parity) {
	case "none", "no", "n", "odd", "o", "even", "e", "mark", "m", "space", "s":
	default:
		return fmt.Errorf("serial.parity %q is not a parity", c.Serial.Parity)
	}
	if c.Serial.SearchRange < 0 {
		return fmt.Errorf("serial.search_range must not be negative")
	}
	switch c.Session.Mode {
	case "char", "hex", "dec", "bin", "dechex", "binhex":
	default:
		return fmt.Errorf("session.mode %q is not a display mode", c.Session.Mode)
	}
	return nil
}

// IdleTimeout returns the configured idle timeout, or 0 for the default
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Session.IdleTimeoutMinutes) * time.Minute
}

// ListenerCheck returns the liveness check interval, or 0 for the default
func (c *Config) ListenerCheck() time.Duration {
	return time.Duration(c.Session.ListenerCheckMillis) * time.Millisecond
}

// LineGap returns the receive line gap, or 0 for the default
func (c *Config) LineGap() time.Duration {
	return time.Duration(c.Render.LineGapMillis) * time.Millisecond
}

// LockWait returns the log lock wait, or 0 for the default
func (c *Config) LockWait() time.Duration {
	return time.Duration(c.Log.LockWaitMillis) * time.Millisecond
}

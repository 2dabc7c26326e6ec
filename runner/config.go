// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package runner

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultMessage is the text scrolled when none is configured.
const DefaultMessage = "Hello world!"

// Config describes a display session.
type Config struct {
	// Cascaded is the number of chained matrix modules. Defaults to 1.
	Cascaded int `yaml:"cascaded"`
	// Message defaults to DefaultMessage.
	Message string `yaml:"message"`
	// SevenSegment wraps the matrix handle in a 7-segment text adapter.
	SevenSegment bool `yaml:"seven_segment"`
	// Strict makes failures change the exit status, see ExitCode.
	Strict bool `yaml:"strict"`
	// HaltOnExit halts the device after the session when it supports it.
	HaltOnExit bool `yaml:"halt_on_exit"`
	// Intensity is the LED brightness, 0-15. Negative keeps the driver
	// default.
	Intensity int `yaml:"intensity"`
	// ScrollDelay is the time per scroll step. Zero keeps the driver default.
	ScrollDelay time.Duration `yaml:"scroll_delay"`
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{Cascaded: 1, Message: DefaultMessage, Intensity: -1}
}

func (c *Config) setDefaults() {
	if c.Cascaded <= 0 {
		c.Cascaded = 1
	}
	if c.Message == "" {
		c.Message = DefaultMessage
	}
}

// ConfigError reports an unusable configuration file.
type ConfigError struct {
	File    string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return "runner: " + msg
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// ParseConfig parses YAML on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &ConfigError{Message: "failed to parse YAML", Cause: err}
	}
	if cfg.Cascaded <= 0 {
		return Config{}, &ConfigError{Message: fmt.Sprintf("cascaded must be positive, got %d", cfg.Cascaded)}
	}
	if cfg.Intensity > 15 {
		return Config{}, &ConfigError{Message: fmt.Sprintf("intensity must be at most 15, got %d", cfg.Intensity)}
	}
	if cfg.ScrollDelay < 0 {
		return Config{}, &ConfigError{Message: "scroll_delay must not be negative"}
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &ConfigError{File: path, Message: "failed to read file", Cause: err}
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		if ce, ok := err.(*ConfigError); ok {
			ce.File = path
		}
		return Config{}, err
	}
	return cfg, nil
}

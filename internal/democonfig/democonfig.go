// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package democonfig loads the waylanddemo configuration from YAML with
// environment overrides.
package democonfig

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Rect positions the demo window on the virtual screen.
type Rect struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Config is the demo configuration. Zero fields take defaults.
type Config struct {
	Title     string `yaml:"title"`
	Window    Rect   `yaml:"window"`
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	FrameRate int    `yaml:"frame_rate"` // repaints per second
	Child     bool   `yaml:"child"`      // also map an accelerated child strip
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Title:     "affinity demo",
		Window:    Rect{X: 100, Y: 100, Width: 640, Height: 480},
		LogLevel:  "info",
		FrameRate: 30,
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("democonfig: home directory: %w", err)
	}
	return filepath.Join(home, ".config", "affinity", "demo.yaml"), nil
}

// Load reads the configuration from path, or from DefaultPath when path
// is empty. A missing file yields the defaults. AFFINITY_DEMO_TITLE and
// AFFINITY_DEMO_LOG_LEVEL override the file.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("democonfig: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("democonfig: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("AFFINITY_DEMO_TITLE"); v != "" {
		c.Title = v
	}
	if v := os.Getenv("AFFINITY_DEMO_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("democonfig: window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.FrameRate < 1 || c.FrameRate > 240 {
		return fmt.Errorf("democonfig: frame_rate %d out of range 1..240", c.FrameRate)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level maps LogLevel onto a slog level.
func (c *Config) Level() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("democonfig: unknown log_level %q", c.LogLevel)
}

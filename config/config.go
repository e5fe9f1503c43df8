// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads client configuration from TOML files with
// environment overrides and environment-specific overlays.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	// OverlayConfigPattern is the file name pattern of an overlay next
	// to the base file: config.toml gets config.<env>.toml.
	OverlayConfigPattern = "%s.%s%s"

	// EnvEllipticsEnv selects the configuration overlay.
	EnvEllipticsEnv = "ELLIPTICS_ENV"
)

// Config is the root configuration.
type Config struct {
	Client  ClientConfig  `toml:"client"`
	Log     LogConfig     `toml:"log"`
	Storage StorageConfig `toml:"storage"`
	Read    ReadConfig    `toml:"read"`
}

// Load reads the file at path and applies the overlay selected by
// ELLIPTICS_ENV when it exists. The result is not finalized.
func Load(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}
	if overlay := overlayPath(path); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}
	return cfg, nil
}

// Parse decodes a TOML document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates
// every section.
func (c *Config) Finalize() error {
	if err := c.Client.Finalize(); err != nil {
		return fmt.Errorf("client: %w", err)
	}
	if err := c.Log.Finalize(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Storage.Finalize(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Read.Finalize(); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return nil
}

// Merge applies the non-zero values of overlay.
func (c *Config) Merge(overlay *Config) {
	c.Client.Merge(&overlay.Client)
	c.Log.Merge(&overlay.Log)
	c.Storage.Merge(&overlay.Storage)
	c.Read.Merge(&overlay.Read)
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func overlayPath(base string) string {
	env := os.Getenv(EnvEllipticsEnv)
	if env == "" {
		return ""
	}
	ext := filepath.Ext(base)
	path := fmt.Sprintf(OverlayConfigPattern, strings.TrimSuffix(base, ext), env, ext)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

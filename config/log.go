// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"code.hybscloud.com/elliptics"
)

const (
	EnvLogPath   = "ELLIPTICS_LOG_PATH"
	EnvLogLevel  = "ELLIPTICS_LOG_LEVEL"
	EnvLogFormat = "ELLIPTICS_LOG_FORMAT"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// LogConfig configures logging. With a Path, the node writes a leveled
// file log; otherwise records go to the console writer.
type LogConfig struct {
	Path   string `toml:"path"`
	Level  string `toml:"level"`
	Format string `toml:"format"`

	level elliptics.LogLevel
}

// LogLevel returns the parsed level.
func (c *LogConfig) LogLevel() elliptics.LogLevel {
	return c.level
}

// Logger returns a console logger writing to w in the configured format.
func (c *LogConfig) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.level.SlogLevel()}
	if c.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// FileLogger opens the file log. It returns nil without a Path.
func (c *LogConfig) FileLogger() (*elliptics.Logger, error) {
	if c.Path == "" {
		return nil, nil
	}
	return elliptics.NewFileLogger(c.Path, c.level)
}

// Finalize applies defaults, loads environment overrides, and validates
// the log configuration.
func (c *LogConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies the non-zero values of overlay.
func (c *LogConfig) Merge(overlay *LogConfig) {
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
}

func (c *LogConfig) loadDefaults() {
	if c.Level == "" {
		c.Level = elliptics.LogInfo.String()
	}
	if c.Format == "" {
		c.Format = FormatText
	}
}

func (c *LogConfig) loadEnv() {
	if v := os.Getenv(EnvLogPath); v != "" {
		c.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Format = v
	}
}

func (c *LogConfig) validate() error {
	level, err := elliptics.ParseLogLevel(c.Level)
	if err != nil {
		return err
	}
	c.level = level
	switch c.Format {
	case FormatText, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Format)
	}
}

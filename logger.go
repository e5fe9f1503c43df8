// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// LogLevel is the verbosity of a Logger. Higher values are more verbose.
type LogLevel int

const (
	LogError LogLevel = iota
	LogWarning
	LogInfo
	LogNotice
	LogDebug
)

// levelNotice is the slog level of LogNotice, between info and debug.
const levelNotice = slog.LevelInfo - 2

func (l LogLevel) String() string {
	switch l {
	case LogError:
		return "error"
	case LogWarning:
		return "warning"
	case LogInfo:
		return "info"
	case LogNotice:
		return "notice"
	case LogDebug:
		return "debug"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLogLevel parses the String form of a LogLevel.
func ParseLogLevel(s string) (LogLevel, error) {
	for l := LogError; l <= LogDebug; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return LogError, fmt.Errorf("elliptics: unknown log level %q", s)
}

// SlogLevel returns the slog level records of l are written at.
func (l LogLevel) SlogLevel() slog.Level {
	switch {
	case l <= LogError:
		return slog.LevelError
	case l == LogWarning:
		return slog.LevelWarn
	case l == LogInfo:
		return slog.LevelInfo
	case l == LogNotice:
		return levelNotice
	default:
		return slog.LevelDebug
	}
}

// Logger is a leveled logger writing text records to a file.
type Logger struct {
	mu    sync.Mutex
	file  *os.File
	level LogLevel
	lv    slog.LevelVar
	log   *slog.Logger
}

// NewFileLogger opens path for appending and returns a Logger
// recording messages up to level.
func NewFileLogger(path string, level LogLevel) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("elliptics: open log: %w", err)
	}
	l := &Logger{file: f}
	l.SetLevel(level)
	l.log = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
		Level: &l.lv,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && len(groups) == 0 {
				if lv, ok := a.Value.Any().(slog.Level); ok && lv == levelNotice {
					a.Value = slog.StringValue("NOTICE")
				}
			}
			return a
		},
	}))
	return l, nil
}

// Log records msg at level.
func (l *Logger) Log(level LogLevel, msg string) {
	l.log.Log(context.Background(), level.SlogLevel(), msg)
}

// Level returns the current verbosity.
func (l *Logger) Level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetLevel changes the verbosity.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
	l.lv.Set(level.SlogLevel())
}

// Slog returns the structured logger writing to the same file.
func (l *Logger) Slog() *slog.Logger {
	return l.log
}

// Close closes the log file.
func (l *Logger) Close() error {
	return l.file.Close()
}

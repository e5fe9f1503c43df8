// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"code.hybscloud.com/elliptics/cluster"
	"github.com/docker/go-units"
)

const (
	EnvStorageDir           = "ELLIPTICS_STORAGE_DIR"
	EnvStorageWorkers       = "ELLIPTICS_STORAGE_WORKERS"
	EnvStorageMaxObjectSize = "ELLIPTICS_STORAGE_MAX_OBJECT_SIZE"
)

// StorageConfig configures the in-process cluster.
type StorageConfig struct {
	// Dir is the Badger directory. Empty keeps data in memory.
	Dir string `toml:"dir"`
	// Workers is the worker pool size. Zero uses GOMAXPROCS.
	Workers int `toml:"workers"`
	// Groups are the groups every node hosts a backend for.
	// Default: the client groups.
	Groups []uint32 `toml:"groups"`
	// MaxObjectSize is a human size such as "64MB". Empty uses the
	// cluster default.
	MaxObjectSize string `toml:"max_object_size"`

	maxObjectSize int64
}

// MaxObjectSizeBytes returns the parsed object size limit, 0 when unset.
func (c *StorageConfig) MaxObjectSizeBytes() int64 {
	return c.maxObjectSize
}

// Options returns cluster options for c, defaulting the groups to
// client groups.
func (c *StorageConfig) Options(client *ClientConfig, log *slog.Logger) cluster.Options {
	groups := c.Groups
	if len(groups) == 0 {
		groups = client.Groups
	}
	return cluster.Options{
		Dir:           c.Dir,
		Groups:        groups,
		Workers:       c.Workers,
		MaxObjectSize: uint64(c.maxObjectSize),
		WaitTimeout:   client.TimeoutDuration(),
		CheckTimeout:  client.CheckTimeoutDuration(),
		Logger:        log,
	}
}

// Finalize applies defaults, loads environment overrides, and validates
// the storage configuration.
func (c *StorageConfig) Finalize() error {
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

// Merge applies the non-zero values of overlay.
func (c *StorageConfig) Merge(overlay *StorageConfig) {
	if overlay.Dir != "" {
		c.Dir = overlay.Dir
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if len(overlay.Groups) > 0 {
		c.Groups = overlay.Groups
	}
	if size, err := units.FromHumanSize(overlay.MaxObjectSize); err == nil {
		c.MaxObjectSize = overlay.MaxObjectSize
		c.maxObjectSize = size
	}
}

func (c *StorageConfig) loadEnv() error {
	if v := os.Getenv(EnvStorageDir); v != "" {
		c.Dir = v
	}
	if v := os.Getenv(EnvStorageWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvStorageWorkers, err)
		}
		c.Workers = n
	}
	if v := os.Getenv(EnvStorageMaxObjectSize); v != "" {
		c.MaxObjectSize = v
	}
	return nil
}

func (c *StorageConfig) validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	c.maxObjectSize = 0
	if c.MaxObjectSize == "" {
		return nil
	}
	size, err := units.FromHumanSize(c.MaxObjectSize)
	if err != nil {
		return fmt.Errorf("invalid max_object_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_object_size must be positive")
	}
	c.maxObjectSize = size
	return nil
}

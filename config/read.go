// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"

	"github.com/docker/go-units"
)

// ReadConfig configures chunked reads.
type ReadConfig struct {
	// ChunkSize is the human size of one read request. Default: "1MB".
	ChunkSize string `toml:"chunk_size"`

	chunkSize int64
}

// ChunkSizeBytes returns the parsed chunk size.
func (c *ReadConfig) ChunkSizeBytes() int64 {
	return c.chunkSize
}

// Finalize applies defaults and validates the read configuration.
func (c *ReadConfig) Finalize() error {
	if c.ChunkSize == "" {
		c.ChunkSize = "1MB"
	}
	size, err := units.RAMInBytes(c.ChunkSize)
	if err != nil {
		return fmt.Errorf("invalid chunk_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("chunk_size must be positive")
	}
	c.chunkSize = size
	return nil
}

// Merge applies the non-zero values of overlay.
func (c *ReadConfig) Merge(overlay *ReadConfig) {
	if overlay.ChunkSize != "" {
		c.ChunkSize = overlay.ChunkSize
	}
}

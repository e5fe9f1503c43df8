// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"code.hybscloud.com/elliptics"
	"code.hybscloud.com/elliptics/cluster"
	"code.hybscloud.com/elliptics/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
[client]
remotes = ["10.0.0.1:1025:2", "10.0.0.2:1025"]
groups = [1, 2, 3]
namespace = "photos"
timeout = "2s"
filter = "all"
cflags = 4

[log]
level = "debug"
format = "json"

[storage]
workers = 4
max_object_size = "64MB"

[read]
chunk_size = "4MB"
`

func TestParseFinalize(t *testing.T) {
	cfg, err := config.Parse([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, cfg.Finalize())

	assert.Equal(t, []string{"10.0.0.1:1025:2", "10.0.0.2:1025"}, cfg.Client.Remotes)
	assert.Equal(t, []uint32{1, 2, 3}, cfg.Client.Groups)
	assert.Equal(t, 2*time.Second, cfg.Client.TimeoutDuration())
	assert.Equal(t, elliptics.DefaultCheckTimeout, cfg.Client.CheckTimeoutDuration())
	assert.Equal(t, elliptics.FilterAll, cfg.Client.FilterPolicy())
	assert.Equal(t, elliptics.LogDebug, cfg.Log.LogLevel())
	assert.Equal(t, int64(64_000_000), cfg.Storage.MaxObjectSizeBytes())
	assert.Equal(t, int64(4<<20), cfg.Read.ChunkSizeBytes())
}

func TestDefaults(t *testing.T) {
	var cfg config.Config
	require.NoError(t, cfg.Finalize())

	assert.Equal(t, []string{"localhost:1025:2"}, cfg.Client.Remotes)
	assert.Equal(t, []uint32{1}, cfg.Client.Groups)
	assert.Equal(t, elliptics.DefaultWaitTimeout, cfg.Client.TimeoutDuration())
	assert.Equal(t, elliptics.FilterPositive, cfg.Client.FilterPolicy())
	assert.Equal(t, elliptics.LogInfo, cfg.Log.LogLevel())
	assert.Equal(t, config.FormatText, cfg.Log.Format)
	assert.Zero(t, cfg.Storage.MaxObjectSizeBytes())
	assert.Equal(t, int64(1<<20), cfg.Read.ChunkSizeBytes())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(config.EnvClientRemotes, "a:1,b:2:10")
	t.Setenv(config.EnvClientGroups, "5, 6")
	t.Setenv(config.EnvClientTimeout, "250ms")
	t.Setenv(config.EnvClientFilter, "all-with-ack")
	t.Setenv(config.EnvLogLevel, "notice")
	t.Setenv(config.EnvStorageWorkers, "3")
	t.Setenv(config.EnvStorageMaxObjectSize, "1KB")

	cfg, err := config.Parse([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, cfg.Finalize())

	assert.Equal(t, []string{"a:1", "b:2:10"}, cfg.Client.Remotes)
	assert.Equal(t, []uint32{5, 6}, cfg.Client.Groups)
	assert.Equal(t, 250*time.Millisecond, cfg.Client.TimeoutDuration())
	assert.Equal(t, elliptics.FilterAllWithAck, cfg.Client.FilterPolicy())
	assert.Equal(t, elliptics.LogNotice, cfg.Log.LogLevel())
	assert.Equal(t, 3, cfg.Storage.Workers)
	assert.Equal(t, int64(1000), cfg.Storage.MaxObjectSizeBytes())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"remote", "[client]\nremotes = [\"nohost\"]", "client: invalid remote"},
		{"timeout", "[client]\ntimeout = \"soon\"", "client: invalid timeout"},
		{"filter", "[client]\nfilter = \"some\"", "unknown filter"},
		{"level", "[log]\nlevel = \"loud\"", "unknown log level"},
		{"format", "[log]\nformat = \"xml\"", "invalid log format"},
		{"size", "[storage]\nmax_object_size = \"big\"", "invalid max_object_size"},
		{"chunk", "[read]\nchunk_size = \"-1\"", "read:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Parse([]byte(tt.doc))
			require.NoError(t, err)
			err = cfg.Finalize()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(base, []byte(sample), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.test.toml"), []byte("[client]\ngroups = [9]\n"), 0o644))

	cfg, err := config.Load(base)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, cfg.Client.Groups)

	t.Setenv(config.EnvEllipticsEnv, "test")
	cfg, err = config.Load(base)
	require.NoError(t, err)
	assert.Equal(t, []uint32{9}, cfg.Client.Groups)
	assert.Equal(t, "photos", cfg.Client.Namespace)

	_, err = config.Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base, err := config.Parse([]byte(sample))
	require.NoError(t, err)
	overlay := &config.Config{
		Log:     config.LogConfig{Format: config.FormatText},
		Storage: config.StorageConfig{MaxObjectSize: "2MB"},
	}
	base.Merge(overlay)
	assert.Equal(t, config.FormatText, base.Log.Format)
	assert.Equal(t, "debug", base.Log.Level)
	assert.Equal(t, "2MB", base.Storage.MaxObjectSize)
}

func TestLogger(t *testing.T) {
	cfg := config.LogConfig{Level: "warning", Format: config.FormatJSON}
	require.NoError(t, cfg.Finalize())

	var buf bytes.Buffer
	log := cfg.Logger(&buf)
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.True(t, strings.HasPrefix(buf.String(), "{"))

	fl, err := cfg.FileLogger()
	require.NoError(t, err)
	assert.Nil(t, fl)

	cfg.Path = filepath.Join(t.TempDir(), "node.log")
	fl, err = cfg.FileLogger()
	require.NoError(t, err)
	defer fl.Close()
	assert.Equal(t, elliptics.LogWarning, fl.Level())
}

func TestApply(t *testing.T) {
	cfg, err := config.Parse([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, cfg.Finalize())

	c, err := cluster.New(cfg.Storage.Options(&cfg.Client, nil))
	require.NoError(t, err)
	defer c.Close()

	s, err := elliptics.New(c, elliptics.NewTable())
	require.NoError(t, err)
	cfg.Client.Apply(s)

	assert.Equal(t, []uint32{1, 2, 3}, s.Groups())
	assert.Equal(t, []byte("photos"), s.Namespace())
	assert.Equal(t, 2*time.Second, s.Timeout())
	assert.Equal(t, elliptics.FilterAll, s.Filter())
	assert.Equal(t, uint64(4), s.CFlags())

	opts := cfg.Storage.Options(&cfg.Client, nil)
	assert.Equal(t, []uint32{1, 2, 3}, opts.Groups)
	assert.Equal(t, uint64(64_000_000), opts.MaxObjectSize)
	assert.Equal(t, 4, opts.Workers)
}

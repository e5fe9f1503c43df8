// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"code.hybscloud.com/elliptics"
)

const (
	EnvClientRemotes = "ELLIPTICS_REMOTES"
	EnvClientGroups  = "ELLIPTICS_GROUPS"
	EnvClientTimeout = "ELLIPTICS_TIMEOUT"
	EnvClientFilter  = "ELLIPTICS_FILTER"
)

// ClientConfig configures the node and the sessions created from it.
type ClientConfig struct {
	// Remotes are node addresses, host:port[:family].
	// Default: ["localhost:1025:2"]
	Remotes []string `toml:"remotes"`
	// Groups are the replica groups sessions use. Default: [1]
	Groups       []uint32 `toml:"groups"`
	Namespace    string   `toml:"namespace"`
	Timeout      string   `toml:"timeout"`
	CheckTimeout string   `toml:"check_timeout"`
	Filter       string   `toml:"filter"`
	CFlags       uint64   `toml:"cflags"`
	IOFlags      uint32   `toml:"ioflags"`

	timeout      time.Duration
	checkTimeout time.Duration
	filter       elliptics.Filter
}

// TimeoutDuration returns the parsed session timeout.
func (c *ClientConfig) TimeoutDuration() time.Duration {
	return c.timeout
}

// CheckTimeoutDuration returns the parsed route check interval.
func (c *ClientConfig) CheckTimeoutDuration() time.Duration {
	return c.checkTimeout
}

// FilterPolicy returns the parsed filter.
func (c *ClientConfig) FilterPolicy() elliptics.Filter {
	return c.filter
}

// Apply configures s from c. c must be finalized.
func (c *ClientConfig) Apply(s *elliptics.Session) {
	s.SetGroups(c.Groups)
	s.SetNamespace([]byte(c.Namespace))
	s.SetTimeout(c.timeout)
	s.SetFilter(c.filter)
	s.SetCFlags(c.CFlags)
	s.SetIOFlags(c.IOFlags)
}

// Finalize applies defaults, loads environment overrides, and validates
// the client configuration.
func (c *ClientConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

// Merge applies the non-zero values of overlay.
func (c *ClientConfig) Merge(overlay *ClientConfig) {
	if len(overlay.Remotes) > 0 {
		c.Remotes = overlay.Remotes
	}
	if len(overlay.Groups) > 0 {
		c.Groups = overlay.Groups
	}
	if overlay.Namespace != "" {
		c.Namespace = overlay.Namespace
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.CheckTimeout != "" {
		c.CheckTimeout = overlay.CheckTimeout
	}
	if overlay.Filter != "" {
		c.Filter = overlay.Filter
	}
	if overlay.CFlags != 0 {
		c.CFlags = overlay.CFlags
	}
	if overlay.IOFlags != 0 {
		c.IOFlags = overlay.IOFlags
	}
}

func (c *ClientConfig) loadDefaults() {
	if len(c.Remotes) == 0 {
		c.Remotes = []string{"localhost:1025:2"}
	}
	if len(c.Groups) == 0 {
		c.Groups = []uint32{1}
	}
	if c.Timeout == "" {
		c.Timeout = elliptics.DefaultWaitTimeout.String()
	}
	if c.CheckTimeout == "" {
		c.CheckTimeout = elliptics.DefaultCheckTimeout.String()
	}
	if c.Filter == "" {
		c.Filter = elliptics.FilterPositive.String()
	}
}

func (c *ClientConfig) loadEnv() error {
	if v := os.Getenv(EnvClientRemotes); v != "" {
		c.Remotes = strings.Split(v, ",")
	}
	if v := os.Getenv(EnvClientGroups); v != "" {
		groups, err := parseGroups(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvClientGroups, err)
		}
		c.Groups = groups
	}
	if v := os.Getenv(EnvClientTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvClientFilter); v != "" {
		c.Filter = v
	}
	return nil
}

func (c *ClientConfig) validate() error {
	for _, r := range c.Remotes {
		if _, err := elliptics.ParseAddr(r); err != nil {
			return fmt.Errorf("invalid remote: %w", err)
		}
	}
	var err error
	if c.timeout, err = time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.checkTimeout, err = time.ParseDuration(c.CheckTimeout); err != nil {
		return fmt.Errorf("invalid check_timeout: %w", err)
	}
	if c.timeout <= 0 || c.checkTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.filter, err = elliptics.ParseFilter(c.Filter); err != nil {
		return err
	}
	return nil
}

// parseGroups parses a comma separated group list such as "1,2,3".
func parseGroups(s string) ([]uint32, error) {
	var groups []uint32
	for _, f := range strings.Split(s, ",") {
		g, err := strconv.ParseUint(strings.TrimSpace(f), 10, 32)
		if err != nil {
			return nil, err
		}
		groups = append(groups, uint32(g))
	}
	return groups, nil
}

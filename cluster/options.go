// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cluster

import (
	"log/slog"
	"math"
	"runtime"
	"time"

	"code.hybscloud.com/elliptics"
)

// Default cluster options.
const (
	DefaultQueueSize     = 1024
	DefaultMaxObjectSize = 1 << 30
)

// FaultFunc injects failures. It is called before op touches the
// backend of group responsible for id; a non-nil error becomes the
// reply of that target.
type FaultFunc func(op string, group uint32, id elliptics.ID) error

// Options configures a Cluster.
type Options struct {
	// Dir is the Badger directory. Empty keeps all data in memory.
	Dir string
	// Groups lists the groups every added node hosts one backend for.
	// Default: {1}.
	Groups []uint32
	// Workers is the number of worker goroutines. Default: GOMAXPROCS.
	Workers int
	// QueueSize bounds pending jobs. Default: DefaultQueueSize.
	QueueSize int
	// MaxObjectSize rejects larger writes with E2BIG.
	// Default: DefaultMaxObjectSize.
	MaxObjectSize uint64
	// WaitTimeout bounds operations issued without a session timeout.
	// Default: elliptics.DefaultWaitTimeout.
	WaitTimeout time.Duration
	// CheckTimeout is the route check interval.
	// Default: elliptics.DefaultCheckTimeout.
	CheckTimeout time.Duration
	// Logger receives cluster diagnostics. Default: slog.Default().
	Logger *slog.Logger
	// Fault injects per-target failures.
	Fault FaultFunc
}

func (o *Options) loadDefaults() {
	if len(o.Groups) == 0 {
		o.Groups = []uint32{1}
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultQueueSize
	}
	if o.MaxObjectSize == 0 || o.MaxObjectSize > math.MaxInt {
		o.MaxObjectSize = DefaultMaxObjectSize
	}
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = elliptics.DefaultWaitTimeout
	}
	if o.CheckTimeout <= 0 {
		o.CheckTimeout = elliptics.DefaultCheckTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

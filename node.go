// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"
)

// Default node timeouts.
const (
	DefaultWaitTimeout  = 5 * time.Second
	DefaultCheckTimeout = 60 * time.Second
)

// Cluster is a Client that also manages its connections to the
// storage nodes.
type Cluster interface {
	Client
	// AddRemote connects to the node at addr.
	AddRemote(addr Addr) error
	// SetTimeouts sets the transaction timeout and the interval of
	// route table refresh and connection checks.
	SetTimeouts(wait, check time.Duration)
}

// Node owns the connection side of the cluster: remotes and timeouts.
// Sessions created from a Node share its cluster and logger.
type Node struct {
	log     *Logger
	cluster Cluster
}

// NewNode returns a Node using cluster for connections and log for
// diagnostics. log may be nil.
func NewNode(log *Logger, cluster Cluster) (*Node, error) {
	if cluster == nil {
		return nil, ErrNoClient
	}
	n := &Node{log: log, cluster: cluster}
	n.cluster.SetTimeouts(DefaultWaitTimeout, DefaultCheckTimeout)
	return n, nil
}

// SetTimeouts overrides the default timeouts. wait bounds every
// transaction sent to the cluster; check is the route table refresh
// and connection check interval.
func (n *Node) SetTimeouts(wait, check time.Duration) {
	n.cluster.SetTimeouts(wait, check)
	n.logf(LogInfo, "set timeouts: wait %s, check %s", wait, check)
}

// AddRemote connects to the node at addr, given as host:port[:family].
// Connecting to an already connected node succeeds.
func (n *Node) AddRemote(addr string) error {
	a, err := ParseAddr(addr)
	if err != nil {
		return err
	}
	if err := n.cluster.AddRemote(a); err != nil && !connected(err) {
		n.logf(LogError, "add remote %s: %v", a, err)
		return err
	}
	n.logf(LogInfo, "added remote %s", a)
	return nil
}

// AddRemotes connects to every addr in parallel. It succeeds when at
// least one remote is connected; otherwise it returns the joined errors.
func (n *Node) AddRemotes(addrs []string) error {
	if len(addrs) == 0 {
		return Errorf(syscall.EINVAL, "no remotes")
	}
	errs := make([]error, len(addrs))
	var wg sync.WaitGroup
	for i, addr := range addrs {
		wg.Go(func() {
			errs[i] = n.AddRemote(addr)
		})
	}
	wg.Wait()
	for _, err := range errs {
		if err == nil {
			return nil
		}
	}
	return errors.Join(errs...)
}

// NewSession creates a Session on the node's cluster. The node logger,
// when present, becomes the session logger; opts may override it.
func (n *Node) NewSession(recv Receiver, opts ...Option) (*Session, error) {
	if n.log != nil {
		opts = append([]Option{WithLogger(n.log.Slog())}, opts...)
	}
	return New(n.cluster, recv, opts...)
}

// Logger returns the node logger, which may be nil.
func (n *Node) Logger() *Logger {
	return n.log
}

func (n *Node) logf(level LogLevel, format string, args ...any) {
	if n.log == nil {
		return
	}
	n.log.Log(level, "node: "+fmt.Sprintf(format, args...))
}

// connected reports whether err only says the connection already exists
// or is being established.
func connected(err error) bool {
	return errors.Is(err, syscall.EINPROGRESS) ||
		errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EALREADY) ||
		errors.Is(err, syscall.EISCONN)
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cluster is an in-process storage cluster implementing
// elliptics.Cluster.
//
// Nodes are added with AddRemote; each node hosts one backend per
// configured group. Objects are routed to backends by their
// identifier on a per-group ring and stored in a shared Badger
// database under per-backend key prefixes. Operations run on a worker
// pool and report one reply per target, following the fan-out rules
// of the native client: reads and lookups try groups in order, writes
// and removes go to every group at once.
package cluster

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"syscall"
	"time"

	"code.hybscloud.com/elliptics"
	"github.com/dgraph-io/badger/v4"
)

// Cluster is an in-process elliptics cluster.
type Cluster struct {
	opts Options
	log  *slog.Logger
	db   *badger.DB
	pool *pool
	bg   sync.WaitGroup

	mu     sync.RWMutex
	wait   time.Duration
	check  time.Duration
	nodes  map[elliptics.Addr]*node
	order  []elliptics.Addr
	rings  map[uint32][]*backend
	prefix uint32
}

var _ elliptics.Cluster = (*Cluster)(nil)

// node is one storage server of the cluster.
type node struct {
	addr     elliptics.Addr
	backends []*backend
}

// New opens the storage and starts the worker pool.
func New(opts Options) (*Cluster, error) {
	opts.loadDefaults()

	bopts := badger.DefaultOptions(opts.Dir)
	if opts.Dir == "" {
		bopts = bopts.WithInMemory(true)
	}
	bopts.Logger = nil
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("cluster: open storage: %w", err)
	}

	return &Cluster{
		opts:  opts,
		log:   opts.Logger,
		db:    db,
		pool:  newPool(opts.Workers, opts.QueueSize),
		wait:  opts.WaitTimeout,
		check: opts.CheckTimeout,
		nodes: make(map[elliptics.Addr]*node),
		rings: make(map[uint32][]*backend),
	}, nil
}

// Close waits for queued operations and closes the storage.
func (c *Cluster) Close() error {
	c.pool.stop()
	c.bg.Wait()
	return c.db.Close()
}

// AddRemote adds the node at addr, hosting one enabled backend per
// configured group. Adding a known node fails with EISCONN.
func (c *Cluster) AddRemote(addr elliptics.Addr) error {
	if addr.Family != elliptics.FamilyInet && addr.Family != elliptics.FamilyInet6 {
		return elliptics.Errorf(syscall.EAFNOSUPPORT, "unsupported address family %d", addr.Family)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.nodes[addr]; ok {
		return elliptics.Errorf(syscall.EISCONN, "already connected to %s", addr)
	}

	n := &node{addr: addr}
	now := time.Now()
	for i, group := range c.opts.Groups {
		c.prefix++
		b := &backend{
			id:        uint32(i),
			group:     group,
			addr:      addr,
			ring:      elliptics.Transform(nil, fmt.Appendf(nil, "%s/%d", addr, i)),
			state:     elliptics.BackendEnabled,
			lastStart: now,
		}
		binary.BigEndian.PutUint32(b.prefix[:], c.prefix)
		n.backends = append(n.backends, b)

		ring := append(c.rings[group], b)
		slices.SortFunc(ring, func(x, y *backend) int {
			return bytes.Compare(x.ring[:], y.ring[:])
		})
		c.rings[group] = ring
	}
	c.nodes[addr] = n
	c.order = append(c.order, addr)
	c.log.Info("cluster: node added", "addr", addr, "backends", len(n.backends))
	return nil
}

// SetTimeouts sets the default operation timeout and the check interval.
func (c *Cluster) SetTimeouts(wait, check time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if wait > 0 {
		c.wait = wait
	}
	if check > 0 {
		c.check = check
	}
}

// Timeouts returns the default operation timeout and the check interval.
func (c *Cluster) Timeouts() (wait, check time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wait, c.check
}

// Remotes returns the addresses of all nodes in the order they were added.
func (c *Cluster) Remotes() []elliptics.Addr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.order)
}

// route returns the backend of group responsible for id: the backend
// with the greatest ring position not above id, wrapping around to the
// last one.
func (c *Cluster) route(group uint32, id elliptics.ID) (*backend, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ring := c.rings[group]
	if len(ring) == 0 {
		return nil, elliptics.Errorf(syscall.ENXIO, "no backends in group %d", group)
	}
	i, found := slices.BinarySearchFunc(ring, id, func(b *backend, id elliptics.ID) int {
		return bytes.Compare(b.ring[:], id[:])
	})
	if found {
		return ring[i], nil
	}
	if i == 0 {
		return ring[len(ring)-1], nil
	}
	return ring[i-1], nil
}

// groupBackends returns every backend of group in ring order.
func (c *Cluster) groupBackends(group uint32) []*backend {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.rings[group])
}

func (c *Cluster) node(addr elliptics.Addr) (*node, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.nodes[addr]
	if !ok {
		return nil, elliptics.Errorf(syscall.ENXIO, "no node at %s", addr)
	}
	return n, nil
}

// LookupAddr returns the node address and backend responsible for id
// in group.
func (c *Cluster) LookupAddr(p *elliptics.Params, id elliptics.ID, group uint32) (elliptics.Addr, int, error) {
	b, err := c.route(group, id)
	if err != nil {
		return elliptics.Addr{}, -1, err
	}
	return b.addr, int(b.id), nil
}

func (c *Cluster) timeout(p *elliptics.Params) time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	wait, _ := c.Timeouts()
	return wait
}

func (c *Cluster) fault(op string, group uint32, id elliptics.ID) error {
	if c.opts.Fault == nil {
		return nil
	}
	return c.opts.Fault(op, group, id)
}

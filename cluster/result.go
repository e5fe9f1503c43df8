// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cluster

import (
	"context"
	"sync"
	"syscall"
	"time"

	"code.hybscloud.com/elliptics"
)

// replies collects the per-target replies of one operation and
// forwards them to the bound entry handler one at a time.
type replies struct {
	mu      sync.Mutex
	onEntry func(elliptics.Entry)
	ok      bool
	last    error
}

// emit forwards e. Calls from parallel targets are serialized.
func (r *replies) emit(e elliptics.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.Err == nil {
		r.ok = true
	} else {
		r.last = e.Err
	}
	r.onEntry(e)
}

// succeed records a successful target that produced no entry.
func (r *replies) succeed() {
	r.mu.Lock()
	r.ok = true
	r.mu.Unlock()
}

// outcome is the final error: nil when any target succeeded, the last
// target error otherwise, ENXIO when no target replied.
func (r *replies) outcome() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.ok:
		return nil
	case r.last != nil:
		return r.last
	default:
		return elliptics.ErrNoTargets
	}
}

// asyncResult is a lazily started operation. Connect submits it to the
// worker pool.
type asyncResult struct {
	c       *Cluster
	name    string
	timeout time.Duration
	run     func(ctx context.Context, r *replies)
}

func (c *Cluster) async(name string, p *elliptics.Params, run func(ctx context.Context, r *replies)) *asyncResult {
	return &asyncResult{c: c, name: name, timeout: c.timeout(p), run: run}
}

// Connect starts the operation. onFinal is called exactly once, after
// every onEntry call. A panicking operation completes with EIO.
func (a *asyncResult) Connect(onEntry func(elliptics.Entry), onFinal func(error)) {
	r := &replies{onEntry: onEntry}
	err := a.c.pool.submit(func() {
		defer func() {
			if v := recover(); v != nil {
				a.c.log.Error("cluster: operation panicked", "op", a.name, "panic", v)
				onFinal(elliptics.Errorf(syscall.EIO, "%s: operation panicked: %v", a.name, v))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		a.run(ctx, r)
		onFinal(r.outcome())
	})
	if err != nil {
		a.c.log.Warn("cluster: operation rejected", "op", a.name, "err", err)
		onFinal(err)
	}
}

// backendResult is a lazily started administrative operation.
type backendResult struct {
	c       *Cluster
	name    string
	timeout time.Duration
	run     func(ctx context.Context) ([]elliptics.BackendStatus, error)
}

func (c *Cluster) admin(name string, p *elliptics.Params, run func(ctx context.Context) ([]elliptics.BackendStatus, error)) *backendResult {
	return &backendResult{c: c, name: name, timeout: c.timeout(p), run: run}
}

// Connect starts the operation. onDone is called exactly once.
func (b *backendResult) Connect(onDone func([]elliptics.BackendStatus, error)) {
	err := b.c.pool.submit(func() {
		defer func() {
			if v := recover(); v != nil {
				b.c.log.Error("cluster: operation panicked", "op", b.name, "panic", v)
				onDone(nil, elliptics.Errorf(syscall.EIO, "%s: operation panicked: %v", b.name, v))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		statuses, err := b.run(ctx)
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			onDone(nil, err)
			return
		}
		onDone(statuses, nil)
	})
	if err != nil {
		b.c.log.Warn("cluster: operation rejected", "op", b.name, "err", err)
		onDone(nil, err)
	}
}

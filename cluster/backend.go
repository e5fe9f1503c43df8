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

// backend is one storage backend of a node, serving a single group.
type backend struct {
	id     uint32
	group  uint32
	addr   elliptics.Addr
	ring   elliptics.ID
	prefix [4]byte

	mu        sync.Mutex
	state     elliptics.BackendState
	defrag    elliptics.DefragState
	readOnly  bool
	delay     uint32
	lastStart time.Time
}

func (b *backend) status() elliptics.BackendStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return elliptics.BackendStatus{
		Backend:     b.id,
		Group:       b.group,
		State:       b.state,
		DefragState: b.defrag,
		LastStart:   b.lastStart,
		ReadOnly:    b.readOnly,
		Delay:       b.delay,
	}
}

// serve checks that b accepts a request and applies its artificial
// delay, bounded by ctx.
func (b *backend) serve(ctx context.Context, write bool) error {
	b.mu.Lock()
	state, readOnly, delay := b.state, b.readOnly, b.delay
	b.mu.Unlock()

	if state != elliptics.BackendEnabled {
		return elliptics.Errorf(syscall.ENXIO, "backend %d on %s is %s", b.id, b.addr, state)
	}
	if write && readOnly {
		return elliptics.Errorf(syscall.EROFS, "backend %d on %s is read-only", b.id, b.addr)
	}
	if delay > 0 {
		t := time.NewTimer(time.Duration(delay) * time.Millisecond)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return ctx.Err()
}

func (b *backend) enable() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == elliptics.BackendEnabled {
		return elliptics.Errorf(syscall.EALREADY, "backend %d on %s is already enabled", b.id, b.addr)
	}
	b.state = elliptics.BackendEnabled
	b.lastStart = time.Now()
	return nil
}

func (b *backend) disable() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == elliptics.BackendDisabled {
		return elliptics.Errorf(syscall.EALREADY, "backend %d on %s is already disabled", b.id, b.addr)
	}
	b.state = elliptics.BackendDisabled
	return nil
}

func (b *backend) setReadOnly(ro bool) {
	b.mu.Lock()
	b.readOnly = ro
	b.mu.Unlock()
}

func (b *backend) setDelay(ms uint32) {
	b.mu.Lock()
	b.delay = ms
	b.mu.Unlock()
}

// startDefrag marks b as defragmenting. It fails with EALREADY when a
// defragmentation is running.
func (b *backend) startDefrag() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.defrag == elliptics.DefragInProgress {
		return elliptics.Errorf(syscall.EALREADY, "backend %d on %s is already defragmenting", b.id, b.addr)
	}
	b.defrag = elliptics.DefragInProgress
	return nil
}

func (b *backend) stopDefrag() {
	b.mu.Lock()
	b.defrag = elliptics.DefragNotStarted
	b.mu.Unlock()
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cluster

import (
	"context"
	"syscall"

	"code.hybscloud.com/elliptics"
)

func (c *Cluster) backend(addr elliptics.Addr, id uint32) (*backend, error) {
	n, err := c.node(addr)
	if err != nil {
		return nil, err
	}
	for _, b := range n.backends {
		if b.id == id {
			return b, nil
		}
	}
	return nil, elliptics.Errorf(syscall.ENOENT, "no backend %d on %s", id, addr)
}

// adminOne runs fn on one backend and reports its status afterwards.
func (c *Cluster) adminOne(name string, p *elliptics.Params, addr elliptics.Addr, id uint32, fn func(b *backend) error) elliptics.BackendResult {
	return c.admin(name, p, func(ctx context.Context) ([]elliptics.BackendStatus, error) {
		b, err := c.backend(addr, id)
		if err != nil {
			return nil, err
		}
		if err := fn(b); err != nil {
			return nil, err
		}
		c.log.Info("cluster: backend changed", "op", name, "addr", addr, "backend", id)
		return []elliptics.BackendStatus{b.status()}, nil
	})
}

// BackendStatus reports every backend of the node at addr.
func (c *Cluster) BackendStatus(p *elliptics.Params, addr elliptics.Addr) elliptics.BackendResult {
	return c.admin("backend_status", p, func(ctx context.Context) ([]elliptics.BackendStatus, error) {
		n, err := c.node(addr)
		if err != nil {
			return nil, err
		}
		statuses := make([]elliptics.BackendStatus, len(n.backends))
		for i, b := range n.backends {
			statuses[i] = b.status()
		}
		return statuses, nil
	})
}

// StartDefrag starts value log garbage collection on behalf of the
// backend. The reported status shows the defragmentation in progress.
func (c *Cluster) StartDefrag(p *elliptics.Params, addr elliptics.Addr, id uint32) elliptics.BackendResult {
	return c.admin("start_defrag", p, func(ctx context.Context) ([]elliptics.BackendStatus, error) {
		b, err := c.backend(addr, id)
		if err != nil {
			return nil, err
		}
		if err := b.startDefrag(); err != nil {
			return nil, err
		}
		st := b.status()
		c.bg.Go(func() {
			c.defrag(b)
		})
		return []elliptics.BackendStatus{st}, nil
	})
}

// EnableBackend enables the backend. Enabling an enabled backend fails
// with EALREADY.
func (c *Cluster) EnableBackend(p *elliptics.Params, addr elliptics.Addr, id uint32) elliptics.BackendResult {
	return c.adminOne("enable_backend", p, addr, id, (*backend).enable)
}

// DisableBackend disables the backend; its requests fail with ENXIO.
func (c *Cluster) DisableBackend(p *elliptics.Params, addr elliptics.Addr, id uint32) elliptics.BackendResult {
	return c.adminOne("disable_backend", p, addr, id, (*backend).disable)
}

// MakeWritable clears read-only mode.
func (c *Cluster) MakeWritable(p *elliptics.Params, addr elliptics.Addr, id uint32) elliptics.BackendResult {
	return c.adminOne("make_writable", p, addr, id, func(b *backend) error {
		b.setReadOnly(false)
		return nil
	})
}

// MakeReadonly makes writes to the backend fail with EROFS.
func (c *Cluster) MakeReadonly(p *elliptics.Params, addr elliptics.Addr, id uint32) elliptics.BackendResult {
	return c.adminOne("make_readonly", p, addr, id, func(b *backend) error {
		b.setReadOnly(true)
		return nil
	})
}

// SetDelay delays every request served by the backend by delay
// milliseconds.
func (c *Cluster) SetDelay(p *elliptics.Params, addr elliptics.Addr, id, delay uint32) elliptics.BackendResult {
	return c.adminOne("set_delay", p, addr, id, func(b *backend) error {
		b.setDelay(delay)
		return nil
	})
}

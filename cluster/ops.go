// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cluster

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"syscall"
	"time"

	"code.hybscloud.com/elliptics"
)

// step is the work done on one target. It returns the entries the
// target replies with; no entries and a nil error is a silent success.
type step func(b *backend) ([]elliptics.Entry, error)

// target resolves and admits the backend of group for id. The backend
// is returned with an admission error so that the reply keeps its
// attribution.
func (c *Cluster) target(ctx context.Context, op string, group uint32, id elliptics.ID, write bool) (*backend, error) {
	b, err := c.route(group, id)
	if err != nil {
		return nil, err
	}
	if err := c.fault(op, group, id); err != nil {
		return b, err
	}
	return b, b.serve(ctx, write)
}

// sequential tries the groups in order and stops at the first target
// that succeeds. Every failed target yields a failed entry.
func (c *Cluster) sequential(ctx context.Context, r *replies, op string, p *elliptics.Params, id elliptics.ID, write bool, fn step) {
	for _, group := range p.Groups {
		if c.attempt(ctx, r, op, p, group, id, write, fn) {
			return
		}
	}
}

// parallel sends to every group at once.
func (c *Cluster) parallel(ctx context.Context, r *replies, op string, p *elliptics.Params, id elliptics.ID, write bool, fn step) {
	var wg sync.WaitGroup
	for _, group := range p.Groups {
		wg.Go(func() {
			c.attempt(ctx, r, op, p, group, id, write, fn)
		})
	}
	wg.Wait()
}

// attempt runs fn on the target of group and reports whether it
// succeeded. A panicking target yields a failed EIO entry.
func (c *Cluster) attempt(ctx context.Context, r *replies, op string, p *elliptics.Params, group uint32, id elliptics.ID, write bool, fn step) (ok bool) {
	var b *backend
	defer func() {
		if v := recover(); v != nil {
			c.log.Error("cluster: target panicked", "op", op, "group", group, "id", id.Short(), "panic", v)
			r.emit(failed(p, b, id, elliptics.Errorf(syscall.EIO, "%s: target panicked: %v", op, v)))
			ok = false
		}
	}()
	b, err := c.target(ctx, op, group, id, write)
	if err == nil {
		var entries []elliptics.Entry
		if entries, err = fn(b); err == nil {
			if len(entries) == 0 {
				r.succeed()
			}
			for _, e := range entries {
				r.emit(e)
			}
			return true
		}
	}
	c.log.Debug("cluster: target failed", "op", op, "group", group, "id", id.Short(), "err", err)
	r.emit(failed(p, b, id, err))
	return false
}

func code(err error) int32 {
	var ee *elliptics.Error
	if errors.As(err, &ee) {
		return int32(ee.Code)
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return -int32(errno)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return -int32(syscall.ETIMEDOUT)
	}
	return -int32(syscall.EIO)
}

func cmd(p *elliptics.Params, b *backend, id elliptics.ID, size uint64) elliptics.Cmd {
	c := elliptics.Cmd{
		ID:      id,
		Backend: -1,
		Trace:   p.TraceID,
		Flags:   p.CFlags | elliptics.FlagReply,
		Size:    size,
	}
	if b != nil {
		c.Backend = int32(b.id)
	}
	return c
}

func failed(p *elliptics.Params, b *backend, id elliptics.ID, err error) elliptics.Entry {
	e := elliptics.Entry{Cmd: cmd(p, b, id, 0), Err: err}
	e.Cmd.Status = code(err)
	if b != nil {
		e.Addr = b.addr
	}
	return e
}

func ack(p *elliptics.Params, b *backend, id elliptics.ID) []elliptics.Entry {
	c := cmd(p, b, id, 0)
	c.Flags |= elliptics.FlagNeedAck
	return []elliptics.Entry{{Cmd: c, Addr: b.addr, Ack: true}}
}

func (b *backend) path() string {
	return fmt.Sprintf("data-%d.%d", b.group, b.id)
}

func lookupEntry(p *elliptics.Params, b *backend, id elliptics.ID, rec *record) []elliptics.Entry {
	fi := rec.info(p.IOFlags)
	return []elliptics.Entry{{
		Cmd:         cmd(p, b, id, fi.Size),
		Addr:        b.addr,
		File:        fi,
		StorageAddr: b.addr,
		Path:        b.path(),
	}}
}

func keyID(p *elliptics.Params, k elliptics.Key) elliptics.ID {
	if id, ok := k.ID(); ok {
		return id
	}
	return elliptics.Transform(p.Namespace, []byte(k.Raw()))
}

// indexIDs returns the distinct index identifiers of names.
func indexIDs(p *elliptics.Params, names []string) []elliptics.ID {
	ids := make([]elliptics.ID, 0, len(names))
	for _, name := range names {
		id := elliptics.Transform(p.Namespace, []byte(name))
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// ReadData reads the object from the first group that has it.
func (c *Cluster) ReadData(p *elliptics.Params, key elliptics.Key, offset, size uint64) elliptics.AsyncResult {
	id := keyID(p, key)
	return c.async("read", p, func(ctx context.Context, r *replies) {
		c.sequential(ctx, r, "read", p, id, false, func(b *backend) ([]elliptics.Entry, error) {
			rec, data, err := c.read(b, id, offset, size)
			if err != nil {
				return nil, err
			}
			return []elliptics.Entry{{
				Cmd:  cmd(p, b, id, uint64(len(data))),
				Addr: b.addr,
				Data: data,
				IO: elliptics.IOAttr{
					ID:        id,
					Offset:    offset,
					Size:      uint64(len(data)),
					TotalSize: uint64(len(rec.Data)),
					UserFlags: rec.UserFlags,
					Flags:     p.IOFlags,
					Timestamp: time.Unix(0, rec.Mtime),
				},
			}}, nil
		})
	})
}

func (c *Cluster) writeAll(name string, p *elliptics.Params, key elliptics.Key, mode writeMode, data []byte, offset, size uint64) elliptics.AsyncResult {
	id := keyID(p, key)
	return c.async(name, p, func(ctx context.Context, r *replies) {
		c.parallel(ctx, r, name, p, id, true, func(b *backend) ([]elliptics.Entry, error) {
			rec, err := c.write(b, id, mode, data, offset, size, p.IOFlags)
			if err != nil {
				return nil, err
			}
			return lookupEntry(p, b, id, rec), nil
		})
	})
}

// WriteData writes data at offset to every group.
func (c *Cluster) WriteData(p *elliptics.Params, key elliptics.Key, data []byte, offset uint64) elliptics.AsyncResult {
	return c.writeAll("write", p, key, writeData, data, offset, 0)
}

// WritePrepare reserves totalSize bytes and writes the first part. The
// object stays unreadable until WriteCommit.
func (c *Cluster) WritePrepare(p *elliptics.Params, key elliptics.Key, data []byte, offset, totalSize uint64) elliptics.AsyncResult {
	return c.writeAll("write_prepare", p, key, writePrepare, data, offset, totalSize)
}

// WritePlain writes a part of a prepared object.
func (c *Cluster) WritePlain(p *elliptics.Params, key elliptics.Key, data []byte, offset uint64) elliptics.AsyncResult {
	return c.writeAll("write_plain", p, key, writePlain, data, offset, 0)
}

// WriteCommit writes the last part and truncates the object to commitSize.
func (c *Cluster) WriteCommit(p *elliptics.Params, key elliptics.Key, data []byte, offset, commitSize uint64) elliptics.AsyncResult {
	return c.writeAll("write_commit", p, key, writeCommit, data, offset, commitSize)
}

func (c *Cluster) lookup(b *backend, p *elliptics.Params, id elliptics.ID) ([]elliptics.Entry, error) {
	rec, err := c.stat(b, id)
	if err != nil {
		return nil, err
	}
	return lookupEntry(p, b, id, rec), nil
}

// Lookup describes the object in the first group that has it.
func (c *Cluster) Lookup(p *elliptics.Params, key elliptics.Key) elliptics.AsyncResult {
	id := keyID(p, key)
	return c.async("lookup", p, func(ctx context.Context, r *replies) {
		c.sequential(ctx, r, "lookup", p, id, false, func(b *backend) ([]elliptics.Entry, error) {
			return c.lookup(b, p, id)
		})
	})
}

// ParallelLookup describes the object in every group.
func (c *Cluster) ParallelLookup(p *elliptics.Params, key elliptics.Key) elliptics.AsyncResult {
	id := keyID(p, key)
	return c.async("parallel_lookup", p, func(ctx context.Context, r *replies) {
		c.parallel(ctx, r, "parallel_lookup", p, id, false, func(b *backend) ([]elliptics.Entry, error) {
			return c.lookup(b, p, id)
		})
	})
}

// Remove removes the object from every group. Targets reply with
// acknowledgements.
func (c *Cluster) Remove(p *elliptics.Params, key elliptics.Key) elliptics.AsyncResult {
	id := keyID(p, key)
	return c.async("remove", p, func(ctx context.Context, r *replies) {
		c.parallel(ctx, r, "remove", p, id, true, func(b *backend) ([]elliptics.Entry, error) {
			if err := c.remove(b, id); err != nil {
				return nil, err
			}
			return ack(p, b, id), nil
		})
	})
}

// BulkRemove removes every key from every group, one reply per key
// and group. Groups run in parallel; keys of a group run in order.
func (c *Cluster) BulkRemove(p *elliptics.Params, keys []elliptics.Key) elliptics.AsyncResult {
	ids := make([]elliptics.ID, len(keys))
	for i, k := range keys {
		ids[i] = keyID(p, k)
	}
	return c.async("bulk_remove", p, func(ctx context.Context, r *replies) {
		var wg sync.WaitGroup
		for _, group := range p.Groups {
			wg.Go(func() {
				for _, id := range ids {
					c.attempt(ctx, r, "bulk_remove", p, group, id, true, func(b *backend) ([]elliptics.Entry, error) {
						if err := c.remove(b, id); err != nil {
							return nil, err
						}
						return ack(p, b, id), nil
					})
				}
			})
		}
		wg.Wait()
	})
}

func (c *Cluster) find(name string, p *elliptics.Params, names []string, all bool) elliptics.AsyncResult {
	indexes := indexIDs(p, names)
	return c.async(name, p, func(ctx context.Context, r *replies) {
		if len(p.Groups) == 0 || len(indexes) == 0 {
			return
		}
		group := p.Groups[0]
		for _, b := range c.groupBackends(group) {
			err := c.fault(name, group, elliptics.ID{})
			if err == nil {
				err = b.serve(ctx, false)
			}
			var matches map[elliptics.ID][]elliptics.IndexEntry
			if err == nil {
				matches, err = c.findIndexes(b, indexes, all)
			}
			if err != nil {
				r.emit(failed(p, b, elliptics.ID{}, err))
				continue
			}
			r.succeed()
			for _, obj := range sortedIDs(matches) {
				r.emit(elliptics.Entry{
					Cmd:     cmd(p, b, obj, 0),
					Addr:    b.addr,
					ID:      obj,
					Indexes: matches[obj],
				})
			}
		}
	})
}

// FindAllIndexes finds objects carrying every named index.
func (c *Cluster) FindAllIndexes(p *elliptics.Params, names []string) elliptics.AsyncResult {
	return c.find("find_all_indexes", p, names, true)
}

// FindAnyIndexes finds objects carrying any named index.
func (c *Cluster) FindAnyIndexes(p *elliptics.Params, names []string) elliptics.AsyncResult {
	return c.find("find_any_indexes", p, names, false)
}

// ListIndexes lists the indexes of the object, one entry per index,
// from the first group that answers.
func (c *Cluster) ListIndexes(p *elliptics.Params, key elliptics.Key) elliptics.AsyncResult {
	id := keyID(p, key)
	return c.async("list_indexes", p, func(ctx context.Context, r *replies) {
		c.sequential(ctx, r, "list_indexes", p, id, false, func(b *backend) ([]elliptics.Entry, error) {
			list, err := c.listIndexes(b, id)
			if err != nil {
				return nil, err
			}
			entries := make([]elliptics.Entry, len(list))
			for i, ie := range list {
				entries[i] = elliptics.Entry{
					Cmd:     cmd(p, b, id, uint64(len(ie.Data))),
					Addr:    b.addr,
					ID:      id,
					Indexes: []elliptics.IndexEntry{ie},
				}
			}
			return entries, nil
		})
	})
}

func indexMap(p *elliptics.Params, indexes []elliptics.Index) map[elliptics.ID][]byte {
	m := make(map[elliptics.ID][]byte, len(indexes))
	for _, idx := range indexes {
		m[elliptics.Transform(p.Namespace, []byte(idx.Name))] = idx.Data
	}
	return m
}

// SetIndexes replaces the index set of the object in every group.
func (c *Cluster) SetIndexes(p *elliptics.Params, key elliptics.Key, indexes []elliptics.Index) elliptics.AsyncResult {
	return c.updateIndexes("set_indexes", p, key, indexes, true)
}

// UpdateIndexes adds or overwrites indexes of the object in every group.
func (c *Cluster) UpdateIndexes(p *elliptics.Params, key elliptics.Key, indexes []elliptics.Index) elliptics.AsyncResult {
	return c.updateIndexes("update_indexes", p, key, indexes, false)
}

func (c *Cluster) updateIndexes(name string, p *elliptics.Params, key elliptics.Key, indexes []elliptics.Index, replace bool) elliptics.AsyncResult {
	id := keyID(p, key)
	m := indexMap(p, indexes)
	return c.async(name, p, func(ctx context.Context, r *replies) {
		c.parallel(ctx, r, name, p, id, true, func(b *backend) ([]elliptics.Entry, error) {
			if err := c.setIndexes(b, id, m, replace); err != nil {
				return nil, err
			}
			return ack(p, b, id), nil
		})
	})
}

// RemoveIndexes detaches the named indexes from the object in every group.
func (c *Cluster) RemoveIndexes(p *elliptics.Params, key elliptics.Key, names []string) elliptics.AsyncResult {
	id := keyID(p, key)
	indexes := indexIDs(p, names)
	return c.async("remove_indexes", p, func(ctx context.Context, r *replies) {
		c.parallel(ctx, r, "remove_indexes", p, id, true, func(b *backend) ([]elliptics.Entry, error) {
			if err := c.removeIndexes(b, id, indexes); err != nil {
				return nil, err
			}
			return ack(p, b, id), nil
		})
	})
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cluster

import (
	"bytes"
	"crypto/sha512"
	"errors"
	"fmt"
	"slices"
	"syscall"
	"time"

	"code.hybscloud.com/elliptics"
	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// Key spaces under a backend prefix.
const (
	spaceObject byte = 'o' // object id -> record
	spaceIndex  byte = 'x' // index id + object id -> index data
	spaceMember byte = 'm' // object id + index id -> index data
)

// record is the stored form of an object.
type record struct {
	Data        []byte `msgpack:"data"`
	Mtime       int64  `msgpack:"mtime"`
	Uncommitted bool   `msgpack:"uncommitted,omitempty"`
	UserFlags   uint64 `msgpack:"user_flags,omitempty"`
}

func (r *record) info(ioflags uint32) elliptics.FileInfo {
	fi := elliptics.FileInfo{
		Size:  uint64(len(r.Data)),
		Mtime: time.Unix(0, r.Mtime),
	}
	if ioflags&elliptics.IOFlagNoCSum == 0 {
		sum := sha512.Sum512(r.Data)
		fi.Checksum = sum[:]
	}
	if r.Uncommitted {
		fi.Flags = uint64(elliptics.IOFlagPrepare)
	}
	return fi
}

func objectKey(b *backend, id elliptics.ID) []byte {
	k := make([]byte, 0, len(b.prefix)+1+elliptics.IDSize)
	k = append(k, b.prefix[:]...)
	k = append(k, spaceObject)
	return append(k, id[:]...)
}

func pairKey(b *backend, space byte, first, second *elliptics.ID) []byte {
	k := make([]byte, 0, len(b.prefix)+1+2*elliptics.IDSize)
	k = append(k, b.prefix[:]...)
	k = append(k, space)
	k = append(k, first[:]...)
	if second != nil {
		k = append(k, second[:]...)
	}
	return k
}

func getRecord(txn *badger.Txn, key []byte) (*record, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, elliptics.Errorf(syscall.ENOENT, "object not found")
		}
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	var r record
	if err := msgpack.Unmarshal(val, &r); err != nil {
		return nil, fmt.Errorf("cluster: decode record: %w", err)
	}
	return &r, nil
}

func putRecord(txn *badger.Txn, key []byte, r *record) error {
	val, err := msgpack.Marshal(r)
	if err != nil {
		return fmt.Errorf("cluster: encode record: %w", err)
	}
	return txn.Set(key, val)
}

// writeMode selects how a write part is applied to the stored object.
type writeMode uint8

const (
	writeData writeMode = iota
	writePrepare
	writePlain
	writeCommit
)

// write applies one write part to the object id on b and returns the
// resulting record.
func (c *Cluster) write(b *backend, id elliptics.ID, mode writeMode, data []byte, offset, size uint64, ioflags uint32) (*record, error) {
	var out *record
	err := c.db.Update(func(txn *badger.Txn) error {
		key := objectKey(b, id)
		r, err := getRecord(txn, key)
		switch {
		case err == nil:
		case errors.Is(err, syscall.ENOENT) && mode != writePlain && mode != writeCommit:
			r = &record{}
		default:
			return err
		}

		limit := c.opts.MaxObjectSize
		if mode == writePrepare && size > limit {
			return elliptics.Errorf(syscall.E2BIG, "object size %d exceeds %d", size, limit)
		}
		if mode == writeData && ioflags&elliptics.IOFlagAppend != 0 {
			offset = uint64(len(r.Data))
		}
		if offset > limit || uint64(len(data)) > limit-offset {
			return elliptics.Errorf(syscall.E2BIG, "write of %d bytes at offset %d exceeds %d", len(data), offset, limit)
		}
		if mode == writePrepare {
			r = &record{Data: make([]byte, size), Uncommitted: true}
		}
		end := offset + uint64(len(data))
		if n := uint64(len(r.Data)); end > n {
			r.Data = slices.Grow(r.Data, int(end-n))[:end]
			clear(r.Data[n:])
		}
		copy(r.Data[offset:], data)

		switch mode {
		case writeData:
			r.Uncommitted = false
		case writeCommit:
			if size < uint64(len(r.Data)) {
				r.Data = r.Data[:size]
			}
			r.Uncommitted = false
		}
		r.Mtime = time.Now().UnixNano()
		if err := putRecord(txn, key, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	return out, err
}

// read returns size bytes of the object id on b from offset. Size 0
// reads to the end.
func (c *Cluster) read(b *backend, id elliptics.ID, offset, size uint64) (*record, []byte, error) {
	var (
		r    *record
		data []byte
	)
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		if r, err = getRecord(txn, objectKey(b, id)); err != nil {
			return err
		}
		if r.Uncommitted {
			return elliptics.Errorf(syscall.EINVAL, "object is not committed")
		}
		total := uint64(len(r.Data))
		if offset > total || (offset == total && total > 0) {
			return elliptics.Errorf(syscall.E2BIG, "offset %d beyond object size %d", offset, total)
		}
		end := total
		if size > 0 && size < total-offset {
			end = offset + size
		}
		data = r.Data[offset:end]
		return nil
	})
	return r, data, err
}

// stat returns the stored record of the object id on b.
func (c *Cluster) stat(b *backend, id elliptics.ID) (*record, error) {
	var r *record
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		r, err = getRecord(txn, objectKey(b, id))
		return err
	})
	return r, err
}

// remove deletes the object id on b together with its index entries.
func (c *Cluster) remove(b *backend, id elliptics.ID) error {
	return c.db.Update(func(txn *badger.Txn) error {
		key := objectKey(b, id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return elliptics.Errorf(syscall.ENOENT, "object not found")
			}
			return err
		}
		if err := dropMembers(txn, b, id, nil); err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// dropMembers removes the index entries of object id on b whose index
// is not in keep. A nil keep drops every entry.
func dropMembers(txn *badger.Txn, b *backend, id elliptics.ID, keep map[elliptics.ID][]byte) error {
	prefix := pairKey(b, spaceMember, &id, nil)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	var drop []elliptics.ID
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var idx elliptics.ID
		copy(idx[:], it.Item().KeyCopy(nil)[len(prefix):])
		if _, ok := keep[idx]; !ok {
			drop = append(drop, idx)
		}
	}
	it.Close()
	for _, idx := range drop {
		if err := txn.Delete(pairKey(b, spaceMember, &id, &idx)); err != nil {
			return err
		}
		if err := txn.Delete(pairKey(b, spaceIndex, &idx, &id)); err != nil {
			return err
		}
	}
	return nil
}

// setIndexes attaches indexes to the object id on b. With replace, the
// previous index set is dropped first.
func (c *Cluster) setIndexes(b *backend, id elliptics.ID, indexes map[elliptics.ID][]byte, replace bool) error {
	return c.db.Update(func(txn *badger.Txn) error {
		if replace {
			if err := dropMembers(txn, b, id, indexes); err != nil {
				return err
			}
		}
		for idx, data := range indexes {
			if err := txn.Set(pairKey(b, spaceMember, &id, &idx), data); err != nil {
				return err
			}
			if err := txn.Set(pairKey(b, spaceIndex, &idx, &id), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// removeIndexes detaches indexes from the object id on b.
func (c *Cluster) removeIndexes(b *backend, id elliptics.ID, indexes []elliptics.ID) error {
	return c.db.Update(func(txn *badger.Txn) error {
		for _, idx := range indexes {
			if err := txn.Delete(pairKey(b, spaceMember, &id, &idx)); err != nil {
				return err
			}
			if err := txn.Delete(pairKey(b, spaceIndex, &idx, &id)); err != nil {
				return err
			}
		}
		return nil
	})
}

// listIndexes returns the index entries of object id on b, ordered by
// index id.
func (c *Cluster) listIndexes(b *backend, id elliptics.ID) ([]elliptics.IndexEntry, error) {
	var out []elliptics.IndexEntry
	err := c.db.View(func(txn *badger.Txn) error {
		prefix := pairKey(b, spaceMember, &id, nil)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var e elliptics.IndexEntry
			copy(e.Index[:], item.KeyCopy(nil)[len(prefix):])
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			e.Data = data
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// findIndexes returns the objects on b carrying every index (all) or at
// least one index (any) of indexes, with their matching entries.
// indexes must not contain duplicates.
func (c *Cluster) findIndexes(b *backend, indexes []elliptics.ID, all bool) (map[elliptics.ID][]elliptics.IndexEntry, error) {
	matches := make(map[elliptics.ID][]elliptics.IndexEntry)
	err := c.db.View(func(txn *badger.Txn) error {
		for _, idx := range indexes {
			prefix := pairKey(b, spaceIndex, &idx, nil)
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			it := txn.NewIterator(opts)
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				item := it.Item()
				var obj elliptics.ID
				copy(obj[:], item.KeyCopy(nil)[len(prefix):])
				data, err := item.ValueCopy(nil)
				if err != nil {
					it.Close()
					return err
				}
				matches[obj] = append(matches[obj], elliptics.IndexEntry{Index: idx, Data: data})
			}
			it.Close()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if all {
		for obj, entries := range matches {
			if len(entries) < len(indexes) {
				delete(matches, obj)
			}
		}
	}
	return matches, nil
}

// defrag runs value log garbage collection until nothing is left to
// rewrite.
func (c *Cluster) defrag(b *backend) {
	defer b.stopDefrag()
	for {
		if err := c.db.RunValueLogGC(0.5); err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrGCInMemoryMode) {
				c.log.Warn("cluster: defrag", "backend", b.id, "addr", b.addr, "err", err)
			}
			return
		}
	}
}

func sortedIDs[V any](m map[elliptics.ID]V) []elliptics.ID {
	ids := make([]elliptics.ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b elliptics.ID) int {
		return bytes.Compare(a[:], b[:])
	})
	return ids
}

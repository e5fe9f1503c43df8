// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"code.hybscloud.com/elliptics"
	"code.hybscloud.com/elliptics/config"
	"github.com/docker/go-units"
)

type cli struct {
	s   *elliptics.Session
	tab *elliptics.Table
	cfg *config.Config
}

func (c *cli) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "id":
		return c.id(args)
	case "write":
		return c.write(ctx, args)
	case "read":
		return c.read(ctx, args)
	case "lookup", "parallel-lookup":
		return c.lookup(ctx, cmd, args)
	case "remove":
		return c.remove(ctx, args)
	case "bulk-remove":
		return c.bulkRemove(ctx, args)
	case "set-indexes", "update-indexes":
		return c.setIndexes(ctx, cmd, args)
	case "remove-indexes":
		return c.removeIndexes(ctx, args)
	case "list-indexes":
		return c.listIndexes(ctx, args)
	case "find-all", "find-any":
		return c.find(ctx, cmd, args)
	case "addr":
		return c.addr(args)
	case "status", "enable", "disable", "readonly", "writable", "defrag", "delay":
		return c.backend(ctx, cmd, args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func need(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

// wait issues one operation on a fresh token and waits for its final.
func (c *cli) wait(ctx context.Context, issue func(tok elliptics.Token)) (*elliptics.Call, error) {
	tok, call := c.tab.Call()
	issue(tok)
	info, err := call.Wait(ctx)
	if err != nil {
		c.tab.Release(tok)
		return nil, err
	}
	if !info.OK() {
		return call, info.Err()
	}
	return call, nil
}

func (c *cli) id(args []string) error {
	if err := need(args, 1, "id KEY"); err != nil {
		return err
	}
	fmt.Println(c.s.TransformString(args[0]))
	return nil
}

func (c *cli) write(ctx context.Context, args []string) error {
	if err := need(args, 1, "write KEY [DATA]"); err != nil {
		return err
	}
	var data []byte
	if len(args) > 1 {
		data = []byte(args[1])
	} else {
		var err error
		if data, err = io.ReadAll(os.Stdin); err != nil {
			return err
		}
	}
	call, err := c.wait(ctx, func(tok elliptics.Token) {
		c.s.Write(tok, tok, elliptics.NewKey(args[0]), data, 0)
	})
	printChunks(call)
	return err
}

// read reads the object in chunks of the configured size.
func (c *cli) read(ctx context.Context, args []string) error {
	if err := need(args, 1, "read KEY"); err != nil {
		return err
	}
	key := c.s.Transform(elliptics.NewKey(args[0]))
	size := uint64(c.cfg.Read.ChunkSizeBytes())
	for offset := uint64(0); ; {
		call, err := c.wait(ctx, func(tok elliptics.Token) {
			c.s.Read(tok, tok, key, offset, size)
		})
		if err != nil {
			return err
		}
		var chunk *elliptics.ReadChunk
		for _, env := range call.Chunks() {
			if rc, ok := env.(elliptics.ReadChunk); ok && rc.Error.OK() {
				chunk = &rc
				break
			}
		}
		if chunk == nil {
			return fmt.Errorf("read %s: no data", args[0])
		}
		if _, err := os.Stdout.Write(chunk.Data); err != nil {
			return err
		}
		offset += uint64(len(chunk.Data))
		if uint64(len(chunk.Data)) < size || offset >= chunk.IO.TotalSize {
			return nil
		}
	}
}

func (c *cli) lookup(ctx context.Context, cmd string, args []string) error {
	if err := need(args, 1, cmd+" KEY"); err != nil {
		return err
	}
	call, err := c.wait(ctx, func(tok elliptics.Token) {
		if cmd == "lookup" {
			c.s.Lookup(tok, tok, elliptics.NewKey(args[0]))
		} else {
			c.s.ParallelLookup(tok, tok, elliptics.NewKey(args[0]))
		}
	})
	printChunks(call)
	return err
}

func (c *cli) remove(ctx context.Context, args []string) error {
	if err := need(args, 1, "remove KEY"); err != nil {
		return err
	}
	call, err := c.wait(ctx, func(tok elliptics.Token) {
		c.s.Remove(tok, tok, elliptics.NewKey(args[0]))
	})
	printChunks(call)
	return err
}

func (c *cli) bulkRemove(ctx context.Context, args []string) error {
	if err := need(args, 1, "bulk-remove KEY..."); err != nil {
		return err
	}
	keys := make([]elliptics.Key, len(args))
	for i, a := range args {
		keys[i] = elliptics.NewKey(a)
	}
	call, err := c.wait(ctx, func(tok elliptics.Token) {
		c.s.BulkRemove(tok, tok, keys)
	})
	printChunks(call)
	return err
}

func (c *cli) setIndexes(ctx context.Context, cmd string, args []string) error {
	if err := need(args, 2, cmd+" KEY NAME=DATA..."); err != nil {
		return err
	}
	indexes := make([]elliptics.Index, 0, len(args)-1)
	for _, a := range args[1:] {
		name, data, _ := strings.Cut(a, "=")
		indexes = append(indexes, elliptics.Index{Name: name, Data: []byte(data)})
	}
	_, err := c.wait(ctx, func(tok elliptics.Token) {
		if cmd == "set-indexes" {
			c.s.SetIndexes(tok, tok, elliptics.NewKey(args[0]), indexes)
		} else {
			c.s.UpdateIndexes(tok, tok, elliptics.NewKey(args[0]), indexes)
		}
	})
	return err
}

func (c *cli) removeIndexes(ctx context.Context, args []string) error {
	if err := need(args, 2, "remove-indexes KEY NAME..."); err != nil {
		return err
	}
	_, err := c.wait(ctx, func(tok elliptics.Token) {
		c.s.RemoveIndexes(tok, tok, elliptics.NewKey(args[0]), args[1:])
	})
	return err
}

func (c *cli) listIndexes(ctx context.Context, args []string) error {
	if err := need(args, 1, "list-indexes KEY"); err != nil {
		return err
	}
	call, err := c.wait(ctx, func(tok elliptics.Token) {
		c.s.ListIndexes(tok, tok, elliptics.NewKey(args[0]))
	})
	printChunks(call)
	return err
}

func (c *cli) find(ctx context.Context, cmd string, args []string) error {
	if err := need(args, 1, cmd+" NAME..."); err != nil {
		return err
	}
	call, err := c.wait(ctx, func(tok elliptics.Token) {
		if cmd == "find-all" {
			c.s.FindAllIndexes(tok, tok, args)
		} else {
			c.s.FindAnyIndexes(tok, tok, args)
		}
	})
	printChunks(call)
	return err
}

func (c *cli) addr(args []string) error {
	if err := need(args, 2, "addr KEY GROUP"); err != nil {
		return err
	}
	group, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid group: %w", err)
	}
	addr, backend, err := c.s.LookupAddr(args[0], uint32(group))
	if err != nil {
		return err
	}
	fmt.Printf("%s backend %d\n", addr, backend)
	return nil
}

func (c *cli) backend(ctx context.Context, cmd string, args []string) error {
	if err := need(args, 1, cmd+" ADDR [BACKEND]"); err != nil {
		return err
	}
	addr, err := elliptics.ParseAddr(args[0])
	if err != nil {
		return err
	}
	var backend, delay uint64
	if cmd != "status" {
		if err := need(args, 2, cmd+" ADDR BACKEND"); err != nil {
			return err
		}
		if backend, err = strconv.ParseUint(args[1], 10, 32); err != nil {
			return fmt.Errorf("invalid backend: %w", err)
		}
	}
	if cmd == "delay" {
		if err := need(args, 3, "delay ADDR BACKEND MS"); err != nil {
			return err
		}
		if delay, err = strconv.ParseUint(args[2], 10, 32); err != nil {
			return fmt.Errorf("invalid delay: %w", err)
		}
	}

	call, err := c.wait(ctx, func(tok elliptics.Token) {
		id := uint32(backend)
		switch cmd {
		case "status":
			c.s.BackendStatus(tok, addr)
		case "enable":
			c.s.EnableBackend(tok, addr, id)
		case "disable":
			c.s.DisableBackend(tok, addr, id)
		case "readonly":
			c.s.MakeReadonly(tok, addr, id)
		case "writable":
			c.s.MakeWritable(tok, addr, id)
		case "defrag":
			c.s.StartDefrag(tok, addr, id)
		case "delay":
			c.s.SetDelay(tok, addr, id, uint32(delay))
		}
	})
	if err != nil {
		return err
	}
	list := call.Backends()
	for _, b := range list.Backends {
		fmt.Printf("%s backend %d group %d: %s, defrag %s, read-only %t, delay %dms\n",
			list.Addr, b.Backend, b.Group, b.State, b.DefragState, b.ReadOnly, b.Delay)
	}
	return nil
}

func printChunks(call *elliptics.Call) {
	if call == nil {
		return
	}
	for _, env := range call.Chunks() {
		switch e := env.(type) {
		case elliptics.LookupResult:
			if !e.Error.OK() {
				fmt.Fprintf(os.Stderr, "%s: %s\n", e.Addr, e.Error)
				continue
			}
			fmt.Printf("%s %s: %s, %s, mtime %s\n", e.Addr, e.Path, e.Cmd.ID.Short(),
				units.HumanSize(float64(e.File.Size)), e.File.Mtime.Format("2006-01-02 15:04:05"))
		case elliptics.RemoveResult:
			fmt.Printf("%s: %s removed: %s\n", e.Addr, e.Cmd.ID.Short(), e.Error)
		case elliptics.IndexEntry:
			fmt.Printf("%s: %q\n", e.Index.Short(), e.Data)
		case elliptics.IndexMatch:
			fmt.Printf("%s: %d indexes\n", e.ID.Short(), len(e.Entries))
		default:
			fmt.Printf("%s: %s\n", env.Kind(), env.Info())
		}
	}
}

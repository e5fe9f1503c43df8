// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import (
	"log/slog"
	"syscall"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

type eventKind uint8

const (
	eventChunk eventKind = iota
	eventFinal
	eventBackend
)

// event is one routed delivery waiting in an operation queue.
type event struct {
	kind    eventKind
	env     Envelope
	info    ErrorInfo
	backend kont.Either[ErrorInfo, BackendStatusList]
}

func (ev event) terminal() bool {
	return ev.kind != eventChunk
}

// family selects how native entries of an operation become envelopes.
type family uint8

const (
	familyRead family = iota
	familyLookup
	familyRemove
	familyFind
	familyIndexEntry
	familyAck
	familyBackend
)

// envelope converts a native entry. Failed entries keep their target
// attribution and carry the command flag word. familyAck has no
// payload and yields nil.
func (f family) envelope(e *Entry) Envelope {
	info := infoOf(e.Err, e.Cmd.Flags)
	failed := info.Code != 0
	switch f {
	case familyRead:
		if failed {
			return ReadChunk{Cmd: e.Cmd, Addr: e.Addr, Error: info}
		}
		return ReadChunk{Cmd: e.Cmd, Addr: e.Addr, IO: e.IO, Data: e.Data}
	case familyLookup:
		if failed {
			return LookupResult{Cmd: e.Cmd, Addr: e.Addr, Error: info}
		}
		return LookupResult{Cmd: e.Cmd, Addr: e.Addr, File: e.File, StorageAddr: e.StorageAddr, Path: e.Path}
	case familyRemove:
		return RemoveResult{Cmd: e.Cmd, Addr: e.Addr, Error: info}
	case familyFind:
		if failed {
			return IndexMatch{ID: e.ID, Error: info}
		}
		return IndexMatch{ID: e.ID, Entries: e.Indexes}
	case familyIndexEntry:
		if failed || len(e.Indexes) == 0 {
			if !failed {
				info = ErrorInfo{Code: -int(syscall.EINVAL), Flags: e.Cmd.Flags, Message: "index entry without payload"}
			}
			return IndexEntry{Error: info}
		}
		return e.Indexes[0]
	default:
		return nil
	}
}

// Serial is a monotonically increasing operation identifier.
type Serial = uint32

var serials atomix.Uint32

func nextSerial() Serial {
	return serials.Add(1)
}

// operation is the router state of one issued operation. It is owned by
// the closures bound to the client result and by the session in-flight
// table, and lives until its terminal event has been delivered.
type operation struct {
	serial  Serial
	name    string
	family  family
	filter  Filter
	started time.Time

	dc       deliveryContext
	finals   atomix.Uint32
	finished bool

	log     *slog.Logger
	metrics *Metrics
	release func(op *operation, chunks int)

	// susp is the pending delivery step in polled mode.
	susp *kont.Suspension[int]
}

// onEntry routes one native entry. Called by the client, serialized
// with the other callbacks of the same operation.
func (op *operation) onEntry(e Entry) {
	if op.finished {
		op.metrics.dropped(op.name, "late-chunk")
		op.log.Warn("elliptics: chunk after final dropped", "serial", op.serial, "op", op.name)
		return
	}
	if !op.filter.accept(&e) {
		op.metrics.filtered(op.name)
		return
	}
	env := op.family.envelope(&e)
	if env == nil {
		return
	}
	if op.filter == FilterPositive && env.Info().Code != 0 {
		op.metrics.filtered(op.name)
		return
	}
	op.metrics.chunk(op.name, env.Info())
	op.push(event{kind: eventChunk, env: env})
}

// onFinal routes the terminal outcome. Only the first call is delivered.
func (op *operation) onFinal(err error) {
	if op.finals.Add(1) != 1 {
		op.metrics.dropped(op.name, "duplicate-final")
		op.log.Warn("elliptics: duplicate final dropped", "serial", op.serial, "op", op.name, "err", err)
		return
	}
	op.finished = true
	info := infoOf(err, 0)
	op.metrics.final(op.name, info, time.Since(op.started))
	op.push(event{kind: eventFinal, info: info})
}

// onBackend routes the combined outcome of a backend operation.
// Errors are reported directly, without a status list.
func (op *operation) onBackend(addr Addr, statuses []BackendStatus, err error) {
	if op.finals.Add(1) != 1 {
		op.metrics.dropped(op.name, "duplicate-final")
		op.log.Warn("elliptics: duplicate backend result dropped", "serial", op.serial, "op", op.name)
		return
	}
	op.finished = true
	info := infoOf(err, 0)
	op.metrics.final(op.name, info, time.Since(op.started))
	ev := event{kind: eventBackend}
	if info.Code != 0 {
		ev.backend = kont.Left[ErrorInfo, BackendStatusList](info)
	} else {
		ev.backend = kont.Right[ErrorInfo](BackendStatusList{Addr: addr, Backends: statuses})
	}
	op.push(ev)
}

// push enqueues ev, backing off while the delivery loop catches up.
func (op *operation) push(ev event) {
	var bo iox.Backoff
	for op.dc.queue.Enqueue(&ev) != nil {
		bo.Wait()
	}
}

// run executes the delivery loop to completion. Used in DeliverAsync mode.
func (op *operation) run() {
	n := execDelivery(&op.dc)
	op.release(op, n)
}

// advance steps the delivery loop until it would block or completes.
// Used in DeliverPolled mode. It reports whether any effect was
// dispatched and whether the operation completed.
func (op *operation) advance() (progress, done bool) {
	for op.susp != nil {
		n, next, err := advanceDelivery(&op.dc, op.susp)
		if err != nil {
			return progress, false
		}
		progress = true
		op.susp = next
		if next == nil {
			op.release(op, n)
			return true, true
		}
	}
	return progress, false
}

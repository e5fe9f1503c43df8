// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import "time"

// Params is the configuration snapshot a Session passes to the client
// when it issues an operation. The client must not retain the slices
// beyond the operation.
type Params struct {
	Groups    []uint32
	Namespace []byte
	Timeout   time.Duration
	CFlags    uint64
	IOFlags   uint32
	TraceID   uint64
}

// Index is a named index value attached to an object.
type Index struct {
	Name string
	Data []byte
}

// Entry is one native per-target reply. Which fields are populated
// depends on the operation family; Err is nil on success.
//
// Ack marks a reply that only acknowledges the command without a
// payload (remove, index updates).
type Entry struct {
	Cmd         Cmd
	Addr        Addr
	Err         error
	Ack         bool
	Data        []byte
	IO          IOAttr
	File        FileInfo
	StorageAddr Addr
	Path        string
	ID          ID
	Indexes     []IndexEntry
}

// AsyncResult is the result stream of one native operation.
//
// Connect binds the handlers and starts the operation. The client
// calls onEntry zero or more times, then onFinal exactly once, from its
// own worker goroutines. Calls for one operation are serialized: each
// call happens-before the next.
type AsyncResult interface {
	Connect(onEntry func(Entry), onFinal func(error))
}

// BackendResult is the combined result of a backend administrative
// operation. Connect binds the handler and starts the operation; the
// handler is called exactly once.
type BackendResult interface {
	Connect(onDone func(statuses []BackendStatus, err error))
}

// Client is the native cluster client. Connection management,
// routing, replication and retries are internal to it.
//
// Keys passed to the client always carry their routing identifier.
type Client interface {
	ReadData(p *Params, key Key, offset, size uint64) AsyncResult
	WriteData(p *Params, key Key, data []byte, offset uint64) AsyncResult
	WritePrepare(p *Params, key Key, data []byte, offset, totalSize uint64) AsyncResult
	WritePlain(p *Params, key Key, data []byte, offset uint64) AsyncResult
	WriteCommit(p *Params, key Key, data []byte, offset, commitSize uint64) AsyncResult
	Lookup(p *Params, key Key) AsyncResult
	ParallelLookup(p *Params, key Key) AsyncResult
	Remove(p *Params, key Key) AsyncResult
	BulkRemove(p *Params, keys []Key) AsyncResult

	FindAllIndexes(p *Params, names []string) AsyncResult
	FindAnyIndexes(p *Params, names []string) AsyncResult
	ListIndexes(p *Params, key Key) AsyncResult
	SetIndexes(p *Params, key Key, indexes []Index) AsyncResult
	UpdateIndexes(p *Params, key Key, indexes []Index) AsyncResult
	RemoveIndexes(p *Params, key Key, names []string) AsyncResult

	BackendStatus(p *Params, addr Addr) BackendResult
	StartDefrag(p *Params, addr Addr, backend uint32) BackendResult
	EnableBackend(p *Params, addr Addr, backend uint32) BackendResult
	DisableBackend(p *Params, addr Addr, backend uint32) BackendResult
	MakeWritable(p *Params, addr Addr, backend uint32) BackendResult
	MakeReadonly(p *Params, addr Addr, backend uint32) BackendResult
	SetDelay(p *Params, addr Addr, backend uint32, delay uint32) BackendResult

	// LookupAddr resolves the node and backend responsible for id in
	// group. It blocks.
	LookupAddr(p *Params, id ID, group uint32) (Addr, int, error)
}

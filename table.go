// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import (
	"context"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/kont"
)

// Handlers are the caller-side functions a Table token resolves to.
// Nil functions ignore the delivery.
type Handlers struct {
	Chunk   func(Envelope)
	Final   func(ErrorInfo)
	Backend func(kont.Either[ErrorInfo, BackendStatusList])
}

// Table is a synchronized callback table implementing Receiver.
// Tokens are allocated by Register and resolve to their Handlers.
//
// A token that receives a final or backend delivery is released
// automatically. A chunk-only token stays registered until Release.
type Table struct {
	next    atomix.Uint32
	mu      sync.RWMutex
	entries map[Token]Handlers
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{entries: make(map[Token]Handlers)}
}

// Register allocates a token resolving to h.
func (t *Table) Register(h Handlers) Token {
	tok := Token(t.next.Add(1))
	t.mu.Lock()
	t.entries[tok] = h
	t.mu.Unlock()
	return tok
}

// Release forgets tok. Deliveries to a released token are dropped.
func (t *Table) Release(tok Token) {
	t.mu.Lock()
	delete(t.entries, tok)
	t.mu.Unlock()
}

// Len returns the number of registered tokens.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

func (t *Table) Chunk(tok Token, env Envelope) {
	t.mu.RLock()
	h, ok := t.entries[tok]
	t.mu.RUnlock()
	if ok && h.Chunk != nil {
		h.Chunk(env)
	}
}

func (t *Table) Final(tok Token, info ErrorInfo) {
	h, ok := t.take(tok)
	if ok && h.Final != nil {
		h.Final(info)
	}
}

func (t *Table) Backend(tok Token, result kont.Either[ErrorInfo, BackendStatusList]) {
	h, ok := t.take(tok)
	if ok && h.Backend != nil {
		h.Backend(result)
	}
}

func (t *Table) take(tok Token) (Handlers, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.entries[tok]
	delete(t.entries, tok)
	return h, ok
}

// Call registers a single token used both as chunk and final token and
// returns a Call collecting everything delivered to it.
func (t *Table) Call() (Token, *Call) {
	c := &Call{done: make(chan struct{})}
	tok := t.Register(Handlers{
		Chunk:   c.chunk,
		Final:   c.final,
		Backend: c.backend,
	})
	return tok, c
}

// Call collects the deliveries of one operation.
type Call struct {
	mu       sync.Mutex
	chunks   []Envelope
	info     ErrorInfo
	backends BackendStatusList
	done     chan struct{}
}

func (c *Call) chunk(env Envelope) {
	c.mu.Lock()
	c.chunks = append(c.chunks, env)
	c.mu.Unlock()
}

func (c *Call) final(info ErrorInfo) {
	c.mu.Lock()
	c.info = info
	c.mu.Unlock()
	close(c.done)
}

func (c *Call) backend(result kont.Either[ErrorInfo, BackendStatusList]) {
	c.mu.Lock()
	if info, ok := result.GetLeft(); ok {
		c.info = info
	} else {
		c.backends, _ = result.GetRight()
	}
	c.mu.Unlock()
	close(c.done)
}

// Done is closed when the final outcome has been delivered.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the final outcome is delivered or ctx is done.
func (c *Call) Wait(ctx context.Context) (ErrorInfo, error) {
	select {
	case <-c.done:
		return c.Info(), nil
	case <-ctx.Done():
		return ErrorInfo{}, ctx.Err()
	}
}

// Info returns the final outcome, zero until Done is closed.
func (c *Call) Info() ErrorInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

// Chunks returns a copy of the chunks delivered so far, in order.
func (c *Call) Chunks() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Envelope, len(c.chunks))
	copy(out, c.chunks)
	return out
}

// Backends returns the status list of a successful backend operation.
func (c *Call) Backends() BackendStatusList {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backends
}

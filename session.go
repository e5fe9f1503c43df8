// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import (
	"encoding/binary"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Delivery selects the goroutine that runs Receiver callbacks.
type Delivery uint8

const (
	// DeliverAsync runs each operation's delivery loop on its own goroutine.
	DeliverAsync Delivery = iota
	// DeliverPolled runs delivery loops only inside Session.Poll and
	// Session.Drain, on the caller's goroutine.
	DeliverPolled
)

// Option configures a Session at construction.
type Option func(*Session)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records bridge metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithDelivery sets the delivery mode. Default: DeliverAsync.
func WithDelivery(d Delivery) Option {
	return func(s *Session) {
		s.delivery = d
	}
}

// Session is the operation dispatcher bound to a cluster client.
//
// Configuration setters are not synchronized: configure the session
// before issuing operations, or serialize changes with them. Each
// operation snapshots the configuration when it is issued, so changes
// never affect operations already in flight.
//
// A Session never reports engine failures by returning an error or
// panicking: every outcome reaches the Receiver as data.
type Session struct {
	client   Client
	recv     Receiver
	log      *slog.Logger
	metrics  *Metrics
	delivery Delivery

	groups    []uint32
	namespace []byte
	timeout   time.Duration
	cflags    uint64
	ioflags   uint32
	trace     uint64
	filter    Filter

	mu       sync.Mutex
	inflight map[Serial]*operation
	closed   bool

	pollMu sync.Mutex
}

// New creates a Session issuing operations on client and delivering
// their results to recv.
func New(client Client, recv Receiver, opts ...Option) (*Session, error) {
	if client == nil {
		return nil, ErrNoClient
	}
	if recv == nil {
		return nil, ErrNoReceiver
	}
	s := &Session{
		client:   client,
		recv:     recv,
		log:      slog.Default(),
		inflight: make(map[Serial]*operation),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewTraceID returns a random trace identifier for cross-system
// request correlation.
func NewTraceID() uint64 {
	u := uuid.New()
	return binary.BigEndian.Uint64(u[:8])
}

// SetGroups sets the ordered replica groups operations are sent to.
func (s *Session) SetGroups(groups []uint32) {
	s.groups = slices.Clone(groups)
}

// Groups returns a copy of the configured groups.
func (s *Session) Groups() []uint32 {
	return slices.Clone(s.groups)
}

// SetNamespace sets the namespace keys are transformed under.
func (s *Session) SetNamespace(ns []byte) {
	s.namespace = slices.Clone(ns)
}

// Namespace returns a copy of the namespace.
func (s *Session) Namespace() []byte {
	return slices.Clone(s.namespace)
}

// SetTimeout sets the per-operation timeout. Zero uses the client default.
func (s *Session) SetTimeout(d time.Duration) {
	s.timeout = d
}

// Timeout returns the per-operation timeout.
func (s *Session) Timeout() time.Duration {
	return s.timeout
}

// SetCFlags sets the command flags.
func (s *Session) SetCFlags(flags uint64) {
	s.cflags = flags
}

// CFlags returns the command flags.
func (s *Session) CFlags() uint64 {
	return s.cflags
}

// SetIOFlags sets the I/O flags.
func (s *Session) SetIOFlags(flags uint32) {
	s.ioflags = flags
}

// IOFlags returns the I/O flags.
func (s *Session) IOFlags() uint32 {
	return s.ioflags
}

// SetTraceID sets the trace identifier attached to every command.
func (s *Session) SetTraceID(id uint64) {
	s.trace = id
}

// TraceID returns the trace identifier.
func (s *Session) TraceID() uint64 {
	return s.trace
}

// SetFilter sets the filter policy for subsequently issued operations.
func (s *Session) SetFilter(f Filter) {
	s.filter = f
}

// Filter returns the filter policy.
func (s *Session) Filter() Filter {
	return s.filter
}

// Transform returns key with its routing identifier computed under the
// session namespace. Keys that already carry an identifier are returned
// unchanged.
func (s *Session) Transform(key Key) Key {
	return key.transform(s.namespace)
}

// TransformString returns the full hexadecimal routing identifier of raw.
func (s *Session) TransformString(raw string) string {
	return Transform(s.namespace, []byte(raw)).String()
}

// Pending returns the number of operations whose terminal delivery has
// not completed.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}

// Close destroys the session. It returns ErrInFlight, leaving the
// session open, while issued operations still have undelivered
// completions. Operations issued after Close complete at once with
// a final carrying ErrClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.inflight) > 0 {
		return ErrInFlight
	}
	s.closed = true
	return nil
}

func (s *Session) params() *Params {
	return &Params{
		Groups:    slices.Clone(s.groups),
		Namespace: slices.Clone(s.namespace),
		Timeout:   s.timeout,
		CFlags:    s.cflags,
		IOFlags:   s.ioflags,
		TraceID:   s.trace,
	}
}

// register creates the router state of a new operation, records it in
// the in-flight table and starts its delivery loop. It reports whether
// the session was already closed.
func (s *Session) register(name string, fam family, chunk, final Token, filter Filter) (*operation, bool) {
	op := &operation{
		serial:  nextSerial(),
		name:    name,
		family:  fam,
		filter:  filter,
		started: time.Now(),
		log:     s.log,
		metrics: s.metrics,
		release: s.release,
	}
	op.dc.queue.Init(deliveryCapacity)
	op.dc.recv = s.recv
	op.dc.chunk = chunk
	op.dc.final = final

	s.mu.Lock()
	closed := s.closed
	s.inflight[op.serial] = op
	if s.delivery == DeliverPolled {
		_, op.susp = stepDelivery()
	}
	s.mu.Unlock()

	s.metrics.issued(name)
	s.log.Debug("elliptics: issue", "serial", op.serial, "op", name, "filter", filter, "trace", s.trace)
	if s.delivery == DeliverAsync {
		go op.run()
	}
	return op, closed
}

// issue starts a keyed operation: one native request, one chunk
// handler, one final handler.
func (s *Session) issue(name string, fam family, chunk, final Token, filter Filter, start func() AsyncResult) {
	op, closed := s.register(name, fam, chunk, final, filter)
	if closed {
		op.onFinal(ErrClosed)
		return
	}
	start().Connect(op.onEntry, op.onFinal)
}

// issueBackend starts a backend administrative operation delivering a
// single combined completion to tok.
func (s *Session) issueBackend(name string, tok Token, addr Addr, start func() BackendResult) {
	op, closed := s.register(name, familyBackend, tok, tok, s.filter)
	if closed {
		op.onBackend(addr, nil, ErrClosed)
		return
	}
	start().Connect(func(statuses []BackendStatus, err error) {
		op.onBackend(addr, statuses, err)
	})
}

// release drops a completed operation from the in-flight table.
func (s *Session) release(op *operation, chunks int) {
	s.metrics.released()
	s.mu.Lock()
	delete(s.inflight, op.serial)
	s.mu.Unlock()
	s.log.Debug("elliptics: complete", "serial", op.serial, "op", op.name, "chunks", chunks, "elapsed", time.Since(op.started))
}

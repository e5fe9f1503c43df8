// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics_test

import (
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/elliptics"
	"code.hybscloud.com/kont"
)

// script is a scripted native result: entries, then the final, then
// optional protocol violations. A non-nil gate holds the final until it
// is closed.
type script struct {
	entries []elliptics.Entry
	final   error
	after   func(onEntry func(elliptics.Entry), onFinal func(error))
	gate    chan struct{}
	done    chan struct{}
}

// Connect plays the script on a separate goroutine, like a client worker.
func (s script) Connect(onEntry func(elliptics.Entry), onFinal func(error)) {
	go func() {
		for _, e := range s.entries {
			onEntry(e)
		}
		if s.gate != nil {
			<-s.gate
		}
		onFinal(s.final)
		if s.after != nil {
			s.after(onEntry, onFinal)
		}
		if s.done != nil {
			close(s.done)
		}
	}()
}

type backendScript struct {
	statuses []elliptics.BackendStatus
	err      error
}

func (b backendScript) Connect(onDone func([]elliptics.BackendStatus, error)) {
	go onDone(b.statuses, b.err)
}

// call is one recorded native request.
type call struct {
	name    string
	p       elliptics.Params
	keys    []elliptics.Key
	names   []string
	addr    elliptics.Addr
	backend uint32
}

// fakeClient records requests and answers every one with the same script.
type fakeClient struct {
	mu      sync.Mutex
	calls   []call
	script  script
	backend backendScript
}

func (f *fakeClient) record(c call, p *elliptics.Params) {
	c.p = *p
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeClient) keyed(name string, p *elliptics.Params, keys ...elliptics.Key) elliptics.AsyncResult {
	f.record(call{name: name, keys: keys}, p)
	return f.script
}

func (f *fakeClient) admin(name string, p *elliptics.Params, addr elliptics.Addr, backend uint32) elliptics.BackendResult {
	f.record(call{name: name, addr: addr, backend: backend}, p)
	return f.backend
}

func (f *fakeClient) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeClient) ReadData(p *elliptics.Params, key elliptics.Key, offset, size uint64) elliptics.AsyncResult {
	return f.keyed("read", p, key)
}
func (f *fakeClient) WriteData(p *elliptics.Params, key elliptics.Key, data []byte, offset uint64) elliptics.AsyncResult {
	return f.keyed("write", p, key)
}
func (f *fakeClient) WritePrepare(p *elliptics.Params, key elliptics.Key, data []byte, offset, totalSize uint64) elliptics.AsyncResult {
	return f.keyed("write_prepare", p, key)
}
func (f *fakeClient) WritePlain(p *elliptics.Params, key elliptics.Key, data []byte, offset uint64) elliptics.AsyncResult {
	return f.keyed("write_plain", p, key)
}
func (f *fakeClient) WriteCommit(p *elliptics.Params, key elliptics.Key, data []byte, offset, commitSize uint64) elliptics.AsyncResult {
	return f.keyed("write_commit", p, key)
}
func (f *fakeClient) Lookup(p *elliptics.Params, key elliptics.Key) elliptics.AsyncResult {
	return f.keyed("lookup", p, key)
}
func (f *fakeClient) ParallelLookup(p *elliptics.Params, key elliptics.Key) elliptics.AsyncResult {
	return f.keyed("parallel_lookup", p, key)
}
func (f *fakeClient) Remove(p *elliptics.Params, key elliptics.Key) elliptics.AsyncResult {
	return f.keyed("remove", p, key)
}
func (f *fakeClient) BulkRemove(p *elliptics.Params, keys []elliptics.Key) elliptics.AsyncResult {
	return f.keyed("bulk_remove", p, keys...)
}
func (f *fakeClient) FindAllIndexes(p *elliptics.Params, names []string) elliptics.AsyncResult {
	f.record(call{name: "find_all_indexes", names: names}, p)
	return f.script
}
func (f *fakeClient) FindAnyIndexes(p *elliptics.Params, names []string) elliptics.AsyncResult {
	f.record(call{name: "find_any_indexes", names: names}, p)
	return f.script
}
func (f *fakeClient) ListIndexes(p *elliptics.Params, key elliptics.Key) elliptics.AsyncResult {
	return f.keyed("list_indexes", p, key)
}
func (f *fakeClient) SetIndexes(p *elliptics.Params, key elliptics.Key, indexes []elliptics.Index) elliptics.AsyncResult {
	return f.keyed("set_indexes", p, key)
}
func (f *fakeClient) UpdateIndexes(p *elliptics.Params, key elliptics.Key, indexes []elliptics.Index) elliptics.AsyncResult {
	return f.keyed("update_indexes", p, key)
}
func (f *fakeClient) RemoveIndexes(p *elliptics.Params, key elliptics.Key, names []string) elliptics.AsyncResult {
	return f.keyed("remove_indexes", p, key)
}
func (f *fakeClient) BackendStatus(p *elliptics.Params, addr elliptics.Addr) elliptics.BackendResult {
	return f.admin("backend_status", p, addr, 0)
}
func (f *fakeClient) StartDefrag(p *elliptics.Params, addr elliptics.Addr, backend uint32) elliptics.BackendResult {
	return f.admin("start_defrag", p, addr, backend)
}
func (f *fakeClient) EnableBackend(p *elliptics.Params, addr elliptics.Addr, backend uint32) elliptics.BackendResult {
	return f.admin("enable_backend", p, addr, backend)
}
func (f *fakeClient) DisableBackend(p *elliptics.Params, addr elliptics.Addr, backend uint32) elliptics.BackendResult {
	return f.admin("disable_backend", p, addr, backend)
}
func (f *fakeClient) MakeWritable(p *elliptics.Params, addr elliptics.Addr, backend uint32) elliptics.BackendResult {
	return f.admin("make_writable", p, addr, backend)
}
func (f *fakeClient) MakeReadonly(p *elliptics.Params, addr elliptics.Addr, backend uint32) elliptics.BackendResult {
	return f.admin("make_readonly", p, addr, backend)
}
func (f *fakeClient) SetDelay(p *elliptics.Params, addr elliptics.Addr, backend, delay uint32) elliptics.BackendResult {
	return f.admin("set_delay", p, addr, backend)
}
func (f *fakeClient) LookupAddr(p *elliptics.Params, id elliptics.ID, group uint32) (elliptics.Addr, int, error) {
	f.record(call{name: "lookup_addr", keys: []elliptics.Key{elliptics.KeyFromID(id)}}, p)
	return elliptics.Addr{Host: "fake", Port: 1025, Family: elliptics.FamilyInet}, int(group), nil
}

// delivery is one Receiver call.
type delivery struct {
	tok     elliptics.Token
	final   bool
	env     elliptics.Envelope
	info    elliptics.ErrorInfo
	backend kont.Either[elliptics.ErrorInfo, elliptics.BackendStatusList]
}

// recorder is a Receiver recording every delivery in arrival order.
type recorder struct {
	mu     sync.Mutex
	log    []delivery
	finals chan elliptics.Token
}

func newRecorder() *recorder {
	return &recorder{finals: make(chan elliptics.Token, 1024)}
}

func (r *recorder) Chunk(tok elliptics.Token, env elliptics.Envelope) {
	r.mu.Lock()
	r.log = append(r.log, delivery{tok: tok, env: env})
	r.mu.Unlock()
}

func (r *recorder) Final(tok elliptics.Token, info elliptics.ErrorInfo) {
	r.mu.Lock()
	r.log = append(r.log, delivery{tok: tok, final: true, info: info})
	r.mu.Unlock()
	r.finals <- tok
}

func (r *recorder) Backend(tok elliptics.Token, result kont.Either[elliptics.ErrorInfo, elliptics.BackendStatusList]) {
	r.mu.Lock()
	r.log = append(r.log, delivery{tok: tok, final: true, backend: result})
	r.mu.Unlock()
	r.finals <- tok
}

// waitFinals waits for n final deliveries.
func (r *recorder) waitFinals(tb testing.TB, n int) {
	tb.Helper()
	timeout := time.After(5 * time.Second)
	for range n {
		select {
		case <-r.finals:
		case <-timeout:
			tb.Fatalf("timed out waiting for %d finals", n)
		}
	}
}

// deliveries returns the deliveries made to tok.
func (r *recorder) deliveries(tok elliptics.Token) []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []delivery
	for _, d := range r.log {
		if d.tok == tok {
			out = append(out, d)
		}
	}
	return out
}

func (r *recorder) all() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery(nil), r.log...)
}

func newSession(tb testing.TB, c elliptics.Client, r elliptics.Receiver, opts ...elliptics.Option) *elliptics.Session {
	tb.Helper()
	s, err := elliptics.New(c, r, opts...)
	if err != nil {
		tb.Fatalf("New: %v", err)
	}
	return s
}

func readEntry(data string) elliptics.Entry {
	return elliptics.Entry{Data: []byte(data), IO: elliptics.IOAttr{Size: uint64(len(data))}}
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics_test

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"testing/quick"
	"time"

	"code.hybscloud.com/elliptics"
)

// TestReadChunksThenFinal verifies that chunks reach the chunk token in
// production order and the final reaches the final token last.
func TestReadChunksThenFinal(t *testing.T) {
	skipRace(t)
	fc := &fakeClient{script: script{entries: []elliptics.Entry{
		readEntry("a"), readEntry("bb"), readEntry("ccc"),
	}}}
	rec := newRecorder()
	s := newSession(t, fc, rec)

	s.Read(1, 2, elliptics.NewKey("k"), 0, 0)
	rec.waitFinals(t, 1)

	chunks := rec.deliveries(1)
	if len(chunks) != 3 {
		t.Fatalf("chunks: got %d, want 3", len(chunks))
	}
	for i, want := range []string{"a", "bb", "ccc"} {
		rc, ok := chunks[i].env.(elliptics.ReadChunk)
		if !ok {
			t.Fatalf("chunk %d: got %T, want ReadChunk", i, chunks[i].env)
		}
		if string(rc.Data) != want {
			t.Fatalf("chunk %d: got %q, want %q", i, rc.Data, want)
		}
	}
	finals := rec.deliveries(2)
	if len(finals) != 1 || !finals[0].final || !finals[0].info.OK() {
		t.Fatalf("final: got %+v, want one successful final", finals)
	}
	all := rec.all()
	if !all[len(all)-1].final {
		t.Fatalf("last delivery is not the final")
	}
}

func TestZeroChunks(t *testing.T) {
	skipRace(t)
	fc := &fakeClient{script: script{final: elliptics.Errorf(syscall.ENOENT, "no such object")}}
	rec := newRecorder()
	s := newSession(t, fc, rec)

	s.Lookup(7, 7, elliptics.NewKey("missing"))
	rec.waitFinals(t, 1)

	got := rec.deliveries(7)
	if len(got) != 1 || !got[0].final {
		t.Fatalf("got %+v, want a single final", got)
	}
	if got[0].info.Code != -int(syscall.ENOENT) {
		t.Fatalf("code: got %d, want %d", got[0].info.Code, -int(syscall.ENOENT))
	}
	if got[0].info.Flags != 0 {
		t.Fatalf("final flags: got %d, want 0", got[0].info.Flags)
	}
}

func TestChunkErrorCarriesAttribution(t *testing.T) {
	skipRace(t)
	addr := elliptics.Addr{Host: "n1", Port: 1025, Family: elliptics.FamilyInet}
	fc := &fakeClient{script: script{entries: []elliptics.Entry{{
		Cmd:  elliptics.Cmd{Flags: elliptics.FlagReply | elliptics.FlagDirect, Status: -int32(syscall.EIO)},
		Addr: addr,
		Err:  elliptics.Errorf(syscall.EIO, "disk failure"),
	}}, final: elliptics.Errorf(syscall.EIO, "disk failure")}}
	rec := newRecorder()
	s := newSession(t, fc, rec)
	s.SetFilter(elliptics.FilterAll)

	s.Read(1, 1, elliptics.NewKey("k"), 0, 0)
	rec.waitFinals(t, 1)

	got := rec.deliveries(1)
	if len(got) != 2 {
		t.Fatalf("deliveries: got %d, want 2", len(got))
	}
	rc := got[0].env.(elliptics.ReadChunk)
	if rc.Error.Code != -int(syscall.EIO) {
		t.Fatalf("code: got %d, want %d", rc.Error.Code, -int(syscall.EIO))
	}
	if rc.Error.Flags != elliptics.FlagReply|elliptics.FlagDirect {
		t.Fatalf("flags: got %#x, want %#x", rc.Error.Flags, elliptics.FlagReply|elliptics.FlagDirect)
	}
	if rc.Addr != addr {
		t.Fatalf("addr: got %v, want %v", rc.Addr, addr)
	}
	if rc.Data != nil {
		t.Fatalf("failed chunk carries data %q", rc.Data)
	}
	if _, ok := elliptics.Outcome(rc).GetLeft(); !ok {
		t.Fatalf("Outcome: want Left for a failed chunk")
	}
}

func TestNativeErrorTranslation(t *testing.T) {
	skipRace(t)
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{elliptics.Errorf(syscall.EROFS, "read-only"), -int(syscall.EROFS)},
		{syscall.EPERM, -int(syscall.EPERM)},
		{fmt.Errorf("wrapped: %w", syscall.ENOSPC), -int(syscall.ENOSPC)},
		{context.DeadlineExceeded, -int(syscall.ETIMEDOUT)},
		{errors.New("opaque"), -int(syscall.EIO)},
	}
	for i, tt := range tests {
		fc := &fakeClient{script: script{final: tt.err}}
		rec := newRecorder()
		s := newSession(t, fc, rec)
		s.Write(1, 2, elliptics.NewKey("k"), []byte("v"), 0)
		rec.waitFinals(t, 1)
		got := rec.deliveries(2)[0].info
		if got.Code != tt.want {
			t.Fatalf("case %d: code got %d, want %d", i, got.Code, tt.want)
		}
		if tt.err != nil && got.Message == "" {
			t.Fatalf("case %d: empty message", i)
		}
	}
}

// TestLateChunkDropped verifies that nothing is delivered to the tokens
// of an operation after its final.
func TestLateChunkDropped(t *testing.T) {
	skipRace(t)
	done := make(chan struct{})
	fc := &fakeClient{script: script{
		entries: []elliptics.Entry{readEntry("x")},
		after: func(onEntry func(elliptics.Entry), onFinal func(error)) {
			onEntry(readEntry("late"))
			onFinal(errors.New("second final"))
		},
		done: done,
	}}
	rec := newRecorder()
	m := elliptics.NewMetrics()
	s := newSession(t, fc, rec, elliptics.WithMetrics(m))

	s.Read(3, 3, elliptics.NewKey("k"), 0, 0)
	<-done
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	got := rec.deliveries(3)
	if len(got) != 2 {
		t.Fatalf("deliveries: got %d, want 2", len(got))
	}
	if !got[1].final || !got[1].info.OK() {
		t.Fatalf("final: got %+v, want first successful final", got[1])
	}
}

func TestFilterPolicy(t *testing.T) {
	skipRace(t)
	entries := []elliptics.Entry{
		{Data: []byte("ok")},
		{Err: elliptics.Errorf(syscall.ENOENT, "missing")},
		{Ack: true},
	}
	tests := []struct {
		filter elliptics.Filter
		want   int
	}{
		{elliptics.FilterPositive, 1},
		{elliptics.FilterAll, 2},
		{elliptics.FilterAllWithAck, 3},
	}
	for _, tt := range tests {
		fc := &fakeClient{script: script{entries: entries}}
		rec := newRecorder()
		s := newSession(t, fc, rec)
		s.SetFilter(tt.filter)
		s.Remove(1, 2, elliptics.NewKey("k"))
		rec.waitFinals(t, 1)
		if got := len(rec.deliveries(1)); got != tt.want {
			t.Fatalf("%s: chunks got %d, want %d", tt.filter, got, tt.want)
		}
	}

	// A list reply without index payload converts to a failed entry.
	for _, tt := range []struct {
		filter elliptics.Filter
		want   int
	}{
		{elliptics.FilterPositive, 0},
		{elliptics.FilterAll, 1},
	} {
		fc := &fakeClient{script: script{entries: []elliptics.Entry{{}}}}
		rec := newRecorder()
		s := newSession(t, fc, rec)
		s.SetFilter(tt.filter)
		s.ListIndexes(1, 2, elliptics.NewKey("k"))
		rec.waitFinals(t, 1)
		if got := len(rec.deliveries(1)); got != tt.want {
			t.Fatalf("%s: list chunks got %d, want %d", tt.filter, got, tt.want)
		}
	}
}

func TestIndexUpdatesDeliverOnlyFinal(t *testing.T) {
	skipRace(t)
	fc := &fakeClient{script: script{entries: []elliptics.Entry{{Ack: true}, {Ack: true}}}}
	rec := newRecorder()
	s := newSession(t, fc, rec)
	s.SetFilter(elliptics.FilterAllWithAck)

	key := elliptics.NewKey("k")
	s.SetIndexes(1, 1, key, []elliptics.Index{{Name: "a"}})
	s.UpdateIndexes(2, 2, key, []elliptics.Index{{Name: "a"}})
	s.RemoveIndexes(3, 3, key, []string{"a"})
	rec.waitFinals(t, 3)

	for tok := elliptics.Token(1); tok <= 3; tok++ {
		got := rec.deliveries(tok)
		if len(got) != 1 || !got[0].final {
			t.Fatalf("token %d: got %+v, want only the final", tok, got)
		}
	}
}

func TestFindAndListEnvelopes(t *testing.T) {
	skipRace(t)
	idx := elliptics.Transform(nil, []byte("tag"))
	obj := elliptics.Transform(nil, []byte("obj"))
	fc := &fakeClient{script: script{entries: []elliptics.Entry{{
		ID:      obj,
		Indexes: []elliptics.IndexEntry{{Index: idx, Data: []byte("v")}},
	}}}}
	rec := newRecorder()
	s := newSession(t, fc, rec)

	s.FindAllIndexes(1, 1, []string{"tag"})
	rec.waitFinals(t, 1)
	m, ok := rec.deliveries(1)[0].env.(elliptics.IndexMatch)
	if !ok || m.ID != obj || len(m.Entries) != 1 || m.Entries[0].Index != idx {
		t.Fatalf("find: got %+v", rec.deliveries(1)[0].env)
	}

	s.ListIndexes(2, 2, elliptics.NewKey("obj"))
	rec.waitFinals(t, 1)
	e, ok := rec.deliveries(2)[0].env.(elliptics.IndexEntry)
	if !ok || e.Index != idx || string(e.Data) != "v" {
		t.Fatalf("list: got %+v", rec.deliveries(2)[0].env)
	}
}

func TestBackendCombinedOutcome(t *testing.T) {
	skipRace(t)
	addr := elliptics.Addr{Host: "n1", Port: 1025, Family: elliptics.FamilyInet}
	fc := &fakeClient{backend: backendScript{statuses: []elliptics.BackendStatus{{Backend: 3, State: elliptics.BackendEnabled}}}}
	rec := newRecorder()
	s := newSession(t, fc, rec)

	s.EnableBackend(5, addr, 3)
	rec.waitFinals(t, 1)
	got := rec.deliveries(5)
	if len(got) != 1 {
		t.Fatalf("deliveries: got %d, want 1", len(got))
	}
	list, ok := got[0].backend.GetRight()
	if !ok || list.Addr != addr || len(list.Backends) != 1 || list.Backends[0].Backend != 3 {
		t.Fatalf("got %+v, want Right status list", got[0].backend)
	}
	if c := fc.last(); c.name != "enable_backend" || c.backend != 3 {
		t.Fatalf("native call: got %+v", c)
	}

	fc.backend = backendScript{err: elliptics.Errorf(syscall.EALREADY, "already enabled")}
	s.EnableBackend(6, addr, 3)
	rec.waitFinals(t, 1)
	info, ok := rec.deliveries(6)[0].backend.GetLeft()
	if !ok || info.Code != -int(syscall.EALREADY) || info.Flags != 0 {
		t.Fatalf("got %+v, want Left EALREADY", rec.deliveries(6)[0].backend)
	}
}

// TestPropertyChunkOrder proves that for any number of chunks the
// receiver sees them in production order followed by exactly one final.
func TestPropertyChunkOrder(t *testing.T) {
	skipRace(t)
	property := func(sizes []uint8) bool {
		entries := make([]elliptics.Entry, len(sizes))
		for i, n := range sizes {
			entries[i] = elliptics.Entry{Data: make([]byte, n), IO: elliptics.IOAttr{Offset: uint64(i)}}
		}
		fc := &fakeClient{script: script{entries: entries}}
		rec := newRecorder()
		s, err := elliptics.New(fc, rec)
		if err != nil {
			return false
		}
		s.SetFilter(elliptics.FilterAll)
		s.Read(1, 1, elliptics.NewKey("k"), 0, 0)
		rec.waitFinals(t, 1)

		got := rec.deliveries(1)
		if len(got) != len(sizes)+1 {
			return false
		}
		for i := range sizes {
			rc, ok := got[i].env.(elliptics.ReadChunk)
			if !ok || rc.IO.Offset != uint64(i) || len(rc.Data) != int(sizes[i]) {
				return false
			}
		}
		return got[len(sizes)].final
	}
	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}
}

func TestConcurrentOperations(t *testing.T) {
	skipRace(t)
	const n = 64
	fc := &fakeClient{script: script{entries: []elliptics.Entry{readEntry("a"), readEntry("b")}}}
	rec := newRecorder()
	s := newSession(t, fc, rec)

	for i := range n {
		s.Read(elliptics.Token(i), elliptics.Token(i), elliptics.NewKey(fmt.Sprint(i)), 0, 0)
	}
	rec.waitFinals(t, n)
	for i := range n {
		got := rec.deliveries(elliptics.Token(i))
		if len(got) != 3 || !got[2].final {
			t.Fatalf("token %d: got %d deliveries, want 2 chunks and a final", i, len(got))
		}
	}
}

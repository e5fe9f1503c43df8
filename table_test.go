// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics_test

import (
	"context"
	"syscall"
	"testing"
	"time"

	"code.hybscloud.com/elliptics"
	"code.hybscloud.com/kont"
)

func TestTableRegisterRelease(t *testing.T) {
	tab := elliptics.NewTable()
	var chunks int
	tok := tab.Register(elliptics.Handlers{Chunk: func(elliptics.Envelope) { chunks++ }})
	tab.Chunk(tok, elliptics.ReadChunk{})
	tab.Chunk(tok, elliptics.ReadChunk{})
	if chunks != 2 {
		t.Fatalf("chunks: got %d, want 2", chunks)
	}
	if tab.Len() != 1 {
		t.Fatalf("Len: got %d, want 1", tab.Len())
	}
	tab.Release(tok)
	tab.Chunk(tok, elliptics.ReadChunk{})
	if chunks != 2 || tab.Len() != 0 {
		t.Fatalf("delivery after Release: chunks %d, len %d", chunks, tab.Len())
	}
}

func TestTableFinalReleases(t *testing.T) {
	tab := elliptics.NewTable()
	var finals int
	tok := tab.Register(elliptics.Handlers{Final: func(elliptics.ErrorInfo) { finals++ }})
	tab.Final(tok, elliptics.ErrorInfo{})
	tab.Final(tok, elliptics.ErrorInfo{})
	if finals != 1 || tab.Len() != 0 {
		t.Fatalf("finals %d, len %d; want 1, 0", finals, tab.Len())
	}
}

func TestTableCall(t *testing.T) {
	tab := elliptics.NewTable()
	tok, call := tab.Call()
	tab.Chunk(tok, elliptics.LookupResult{Path: "p"})
	tab.Final(tok, elliptics.ErrorInfo{Code: -int(syscall.ENOENT)})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	info, err := call.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if info.Errno() != syscall.ENOENT {
		t.Fatalf("errno: got %v, want ENOENT", info.Errno())
	}
	if got := call.Chunks(); len(got) != 1 || got[0].(elliptics.LookupResult).Path != "p" {
		t.Fatalf("chunks: got %+v", got)
	}
}

func TestTableCallBackend(t *testing.T) {
	tab := elliptics.NewTable()
	tok, call := tab.Call()
	list := elliptics.BackendStatusList{Backends: []elliptics.BackendStatus{{Backend: 3}}}
	tab.Backend(tok, kont.Right[elliptics.ErrorInfo](list))
	<-call.Done()
	if !call.Info().OK() || len(call.Backends().Backends) != 1 {
		t.Fatalf("backend call: info %v, backends %+v", call.Info(), call.Backends())
	}
}

func TestTableCallWaitCanceled(t *testing.T) {
	_, call := elliptics.NewTable().Call()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := call.Wait(ctx); err != context.Canceled {
		t.Fatalf("Wait: got %v, want canceled", err)
	}
}

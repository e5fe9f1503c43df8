// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package elliptics is an asynchronous operation bridge for an
// elliptics-style distributed object store.
//
// A [Session] issues long-running, multi-result storage operations on a
// native [Client] and streams their results back to caller-owned opaque
// [Token] values through a [Receiver]: zero or more chunks, then exactly
// one final completion.
//
// # Architecture
//
//   - Dispatch: every entry point snapshots the session configuration into [Params], issues one native request and binds one chunk and one final handler.
//   - Routing: native entries are filtered by the [Filter] policy, converted into sealed [Envelope] values and queued on a lock-free bounded SPSC queue via [code.hybscloud.com/lfq].
//   - Delivery: a [code.hybscloud.com/kont] effect protocol drains the queue into the [Receiver], chunks first and the final last.
//   - Errors: engine failures never surface as Go errors or panics on the delivery path; they are [ErrorInfo] data, and [Outcome] splits an envelope into a [code.hybscloud.com/kont.Either].
//
// # Delivery Modes
//
//   - [DeliverAsync]: each operation delivers on its own goroutine.
//   - [DeliverPolled]: nothing is delivered until [Session.Poll] or [Session.Drain] runs the delivery loops on the calling goroutine, which fits a proactor loop.
//
// # Integration
//
//   - [Table] is a synchronized callback table implementing [Receiver]; [Table.Call] registers a token that can be awaited with a context.
//   - [Node] bootstraps connections and logging; package cluster provides an in-process [Cluster].
//
// # Example
//
//	tab := elliptics.NewTable()
//	s, _ := elliptics.New(client, tab)
//	s.SetGroups([]uint32{1, 2})
//	tok, call := tab.Call()
//	s.Read(tok, tok, elliptics.NewKey("object"), 0, 0)
//	info, err := call.Wait(ctx)
package elliptics

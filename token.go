// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import "code.hybscloud.com/kont"

// Token is an opaque continuation token. It is owned by the caller;
// the bridge never interprets it and only passes it back through the
// Receiver that matches the delivery.
//
// Each operation takes a chunk token and a final token. They may be
// equal; the bridge attaches no meaning to that.
type Token uint64

// Receiver is the fixed-shape delivery contract between the bridge and
// the caller. Methods are invoked from goroutines chosen by the bridge,
// never from the goroutine that issued the operation when delivery is
// asynchronous.
//
// For one operation, every Chunk call happens-before its Final call,
// and nothing is delivered to that operation's tokens afterwards.
// Calls for different operations may run concurrently.
type Receiver interface {
	// Chunk delivers one per-target result.
	Chunk(tok Token, env Envelope)
	// Final delivers the single terminal outcome of an operation.
	Final(tok Token, info ErrorInfo)
	// Backend delivers the single combined outcome of a backend
	// administrative operation.
	Backend(tok Token, result kont.Either[ErrorInfo, BackendStatusList])
}

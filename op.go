// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import (
	"code.hybscloud.com/kont"
	"code.hybscloud.com/lfq"
)

// deliveryCapacity is the bounded capacity of an operation's event queue.
// The router backs off while the queue is full, so a slow receiver
// throttles the client worker that feeds it.
const deliveryCapacity = 16

// deliveryContext holds the transport between the router and the
// delivery loop of one operation. The queue is single-producer
// single-consumer: the client serializes the callbacks of an operation,
// and exactly one delivery loop drains it.
type deliveryContext struct {
	queue lfq.SPSC[event]
	recv  Receiver
	chunk Token
	final Token
}

// deliveryDispatcher is the structural interface for delivery effects.
// dispatchDelivery is non-blocking: it returns iox.ErrWouldBlock when
// the queue cannot make progress.
type deliveryDispatcher interface {
	dispatchDelivery(ctx *deliveryContext) (kont.Resumed, error)
}

// recvEvent is the effect operation for taking the next routed event.
type recvEvent struct {
	kont.Phantom[event]
}

// dispatchDelivery handles recvEvent on the operation queue.
// Non-blocking: returns iox.ErrWouldBlock if the queue is empty.
func (recvEvent) dispatchDelivery(ctx *deliveryContext) (kont.Resumed, error) {
	ev, err := ctx.queue.Dequeue()
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// deliver is the effect operation for handing one event to the Receiver.
type deliver struct {
	kont.Phantom[struct{}]
	ev event
}

// dispatchDelivery invokes the Receiver method matching the event,
// with the chunk token for chunks and the final token otherwise.
// Never blocks on the transport.
func (d deliver) dispatchDelivery(ctx *deliveryContext) (kont.Resumed, error) {
	switch d.ev.kind {
	case eventChunk:
		ctx.recv.Chunk(ctx.chunk, d.ev.env)
	case eventFinal:
		ctx.recv.Final(ctx.final, d.ev.info)
	case eventBackend:
		ctx.recv.Backend(ctx.final, d.ev.backend)
	}
	return struct{}{}, nil
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// deliveryHandler implements kont.Handler for delivery effects.
// Waits on iox.ErrWouldBlock, converting non-blocking dispatch
// into blocking evaluation for execDelivery.
type deliveryHandler[R any] struct {
	ctx *deliveryContext
}

// Dispatch implements kont.Handler via structural interface assertion.
func (h deliveryHandler[R]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	dop, ok := op.(deliveryDispatcher)
	if !ok {
		panic("elliptics: unhandled effect in deliveryHandler")
	}
	return dispatchWait(h.ctx, dop), true
}

// dispatchWait blocks until dispatchDelivery succeeds, backing off on
// iox.ErrWouldBlock with iox.Backoff.
func dispatchWait(ctx *deliveryContext, dop deliveryDispatcher) kont.Resumed {
	var bo iox.Backoff
	for {
		v, err := dop.dispatchDelivery(ctx)
		if err == nil {
			return v
		}
		bo.Wait()
	}
}

// execDelivery runs the delivery protocol of one operation to
// completion on the calling goroutine and returns the number of
// chunks delivered.
func execDelivery(ctx *deliveryContext) int {
	h := deliveryHandler[int]{ctx: ctx}
	return kont.Handle(deliveryProtocol(), h)
}

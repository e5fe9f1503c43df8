// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import (
	"code.hybscloud.com/kont"
)

// stepDelivery evaluates a fresh delivery protocol until its first
// effect suspension. The protocol cannot finish without an event, so
// the suspension is never nil.
func stepDelivery() (int, *kont.Suspension[int]) {
	return kont.StepExpr(kont.Reify(deliveryProtocol()))
}

// advanceDelivery dispatches the suspended delivery effect.
//
// On success (nil error), the suspension is consumed and the protocol
// advances to the next effect or completion.
// On iox.ErrWouldBlock, the suspension is unconsumed and may be retried
// after the router has produced another event.
func advanceDelivery(ctx *deliveryContext, susp *kont.Suspension[int]) (int, *kont.Suspension[int], error) {
	dop, ok := susp.Op().(deliveryDispatcher)
	if !ok {
		panic("elliptics: unhandled effect in advanceDelivery")
	}
	v, err := dop.dispatchDelivery(ctx)
	if err != nil {
		return 0, susp, err
	}
	n, next := susp.Resume(v)
	return n, next, nil
}

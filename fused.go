// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import (
	"code.hybscloud.com/kont"
)

// recvEventBind takes the next event and passes it to f.
// Fuses Perform(recvEvent{}) + Bind.
func recvEventBind[B any](f func(event) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(recvEvent{}), f)
}

// deliverThen hands ev to the Receiver and then continues with next.
// Fuses Perform(deliver{ev}) + Then.
func deliverThen[B any](ev event, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(deliver{ev: ev}), next)
}

// deliveryProtocol is the delivery side of one operation:
//
//	(?chunk !chunk)* ?terminal !terminal end
//
// It returns the number of chunks delivered before the terminal event.
func deliveryProtocol() kont.Eff[int] {
	return loop(0, func(n int) kont.Eff[kont.Either[int, int]] {
		return recvEventBind(func(ev event) kont.Eff[kont.Either[int, int]] {
			if ev.terminal() {
				return deliverThen(ev, kont.Pure(kont.Right[int, int](n)))
			}
			return deliverThen(ev, kont.Pure(kont.Left[int, int](n+1)))
		})
	})
}

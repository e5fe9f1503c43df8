// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import (
	"code.hybscloud.com/kont"
)

// loop runs a recursive protocol.
// step returns Left(nextState) to continue or Right(result) to finish.
func loop[S, A any](initial S, step func(S) kont.Eff[kont.Either[S, A]]) kont.Eff[A] {
	return kont.Bind(step(initial), func(e kont.Either[S, A]) kont.Eff[A] {
		if left, ok := e.GetLeft(); ok {
			return loop(left, step)
		}
		right, _ := e.GetRight()
		return kont.Pure(right)
	})
}

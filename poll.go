// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import (
	"context"
	"slices"

	"code.hybscloud.com/iox"
)

// Poll runs the delivery loops of in-flight operations on the calling
// goroutine until each would block, and returns the number of
// operations that completed. Operations are visited in issue order.
// Poll does nothing in DeliverAsync mode.
//
// Poll calls may come from several goroutines; they are serialized.
func (s *Session) Poll() int {
	n, _ := s.poll()
	return n
}

func (s *Session) poll() (completed int, progress bool) {
	if s.delivery != DeliverPolled {
		return 0, false
	}
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	s.mu.Lock()
	ops := make([]*operation, 0, len(s.inflight))
	for _, op := range s.inflight {
		ops = append(ops, op)
	}
	s.mu.Unlock()
	slices.SortFunc(ops, func(a, b *operation) int {
		return int(int32(a.serial - b.serial))
	})

	for _, op := range ops {
		p, done := op.advance()
		if p {
			progress = true
		}
		if done {
			completed++
		}
	}
	return completed, progress
}

// Drain delivers until no operation is in flight or ctx is done.
// In DeliverPolled mode it runs the delivery loops itself; in
// DeliverAsync mode it waits for them. Waiting uses adaptive backoff
// (iox.Backoff) while no operation can make progress.
func (s *Session) Drain(ctx context.Context) error {
	var bo iox.Backoff
	for s.Pending() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, progress := s.poll(); progress {
			bo.Reset()
			continue
		}
		bo.Wait()
	}
	return nil
}

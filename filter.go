// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import "fmt"

// Filter selects which per-target replies are delivered as chunks.
type Filter uint8

const (
	// FilterPositive delivers successful replies that carry a payload.
	FilterPositive Filter = iota
	// FilterAll delivers every reply that carries a payload, failed or not.
	FilterAll
	// FilterAllWithAck delivers every reply, including targets that only
	// acknowledged the command.
	FilterAllWithAck
)

func (f Filter) String() string {
	switch f {
	case FilterPositive:
		return "positive"
	case FilterAll:
		return "all"
	case FilterAllWithAck:
		return "all-with-ack"
	default:
		return fmt.Sprintf("filter(%d)", uint8(f))
	}
}

// ParseFilter parses the String form of a Filter.
func ParseFilter(s string) (Filter, error) {
	switch s {
	case "positive", "":
		return FilterPositive, nil
	case "all":
		return FilterAll, nil
	case "all-with-ack", "all_with_ack":
		return FilterAllWithAck, nil
	}
	return FilterPositive, fmt.Errorf("elliptics: unknown filter %q", s)
}

// accept reports whether the reply e passes the filter.
func (f Filter) accept(e *Entry) bool {
	switch f {
	case FilterAllWithAck:
		return true
	case FilterAll:
		return !e.Ack
	default:
		return !e.Ack && e.Err == nil
	}
}

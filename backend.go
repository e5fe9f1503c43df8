// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

// Backend administrative operations deliver one combined completion
// through Receiver.Backend and no chunks.

// BackendStatus requests the status of every backend on addr.
func (s *Session) BackendStatus(tok Token, addr Addr) {
	p := s.params()
	s.issueBackend("backend_status", tok, addr, func() BackendResult {
		return s.client.BackendStatus(p, addr)
	})
}

// StartDefrag starts defragmentation of backend on addr.
func (s *Session) StartDefrag(tok Token, addr Addr, backend uint32) {
	p := s.params()
	s.issueBackend("start_defrag", tok, addr, func() BackendResult {
		return s.client.StartDefrag(p, addr, backend)
	})
}

// EnableBackend enables backend on addr.
func (s *Session) EnableBackend(tok Token, addr Addr, backend uint32) {
	p := s.params()
	s.issueBackend("enable_backend", tok, addr, func() BackendResult {
		return s.client.EnableBackend(p, addr, backend)
	})
}

// DisableBackend disables backend on addr.
func (s *Session) DisableBackend(tok Token, addr Addr, backend uint32) {
	p := s.params()
	s.issueBackend("disable_backend", tok, addr, func() BackendResult {
		return s.client.DisableBackend(p, addr, backend)
	})
}

// MakeWritable clears the read-only mode of backend on addr.
func (s *Session) MakeWritable(tok Token, addr Addr, backend uint32) {
	p := s.params()
	s.issueBackend("make_writable", tok, addr, func() BackendResult {
		return s.client.MakeWritable(p, addr, backend)
	})
}

// MakeReadonly puts backend on addr into read-only mode.
func (s *Session) MakeReadonly(tok Token, addr Addr, backend uint32) {
	p := s.params()
	s.issueBackend("make_readonly", tok, addr, func() BackendResult {
		return s.client.MakeReadonly(p, addr, backend)
	})
}

// SetDelay sets the artificial per-request delay of backend on addr,
// in milliseconds.
func (s *Session) SetDelay(tok Token, addr Addr, backend, delay uint32) {
	p := s.params()
	s.issueBackend("set_delay", tok, addr, func() BackendResult {
		return s.client.SetDelay(p, addr, backend, delay)
	})
}

// LookupAddr resolves the address and backend responsible for key in
// group. Unlike the other operations it blocks and returns its error
// directly. The key is transformed under the session namespace.
func (s *Session) LookupAddr(key string, group uint32) (Addr, int, error) {
	p := s.params()
	return s.client.LookupAddr(p, Transform(p.Namespace, []byte(key)), group)
}

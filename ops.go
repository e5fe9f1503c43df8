// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

// Read reads size bytes of key starting at offset. Size 0 reads to the
// end of the object. Each replying target yields a ReadChunk on chunk.
func (s *Session) Read(chunk, final Token, key Key, offset, size uint64) {
	p := s.params()
	key = key.transform(p.Namespace)
	s.issue("read", familyRead, chunk, final, s.filter, func() AsyncResult {
		return s.client.ReadData(p, key, offset, size)
	})
}

// Write writes data at offset to every configured group. Each target
// yields a LookupResult describing the stored object.
func (s *Session) Write(chunk, final Token, key Key, data []byte, offset uint64) {
	p := s.params()
	key = key.transform(p.Namespace)
	s.issue("write", familyLookup, chunk, final, s.filter, func() AsyncResult {
		return s.client.WriteData(p, key, data, offset)
	})
}

// WritePrepare reserves totalSize bytes for key and writes the first part.
func (s *Session) WritePrepare(chunk, final Token, key Key, data []byte, offset, totalSize uint64) {
	p := s.params()
	key = key.transform(p.Namespace)
	s.issue("write_prepare", familyLookup, chunk, final, s.filter, func() AsyncResult {
		return s.client.WritePrepare(p, key, data, offset, totalSize)
	})
}

// WritePlain writes a middle part of an object started with WritePrepare.
func (s *Session) WritePlain(chunk, final Token, key Key, data []byte, offset uint64) {
	p := s.params()
	key = key.transform(p.Namespace)
	s.issue("write_plain", familyLookup, chunk, final, s.filter, func() AsyncResult {
		return s.client.WritePlain(p, key, data, offset)
	})
}

// WriteCommit writes the last part and truncates the object to commitSize.
func (s *Session) WriteCommit(chunk, final Token, key Key, data []byte, offset, commitSize uint64) {
	p := s.params()
	key = key.transform(p.Namespace)
	s.issue("write_commit", familyLookup, chunk, final, s.filter, func() AsyncResult {
		return s.client.WriteCommit(p, key, data, offset, commitSize)
	})
}

// Lookup locates key, trying the groups in order.
func (s *Session) Lookup(chunk, final Token, key Key) {
	p := s.params()
	key = key.transform(p.Namespace)
	s.issue("lookup", familyLookup, chunk, final, s.filter, func() AsyncResult {
		return s.client.Lookup(p, key)
	})
}

// ParallelLookup locates key in every group at once.
func (s *Session) ParallelLookup(chunk, final Token, key Key) {
	p := s.params()
	key = key.transform(p.Namespace)
	s.issue("parallel_lookup", familyLookup, chunk, final, s.filter, func() AsyncResult {
		return s.client.ParallelLookup(p, key)
	})
}

// Remove removes key from every group. Targets only acknowledge the
// command, so chunks are delivered under FilterAllWithAck only.
func (s *Session) Remove(chunk, final Token, key Key) {
	p := s.params()
	key = key.transform(p.Namespace)
	s.issue("remove", familyRemove, chunk, final, s.filter, func() AsyncResult {
		return s.client.Remove(p, key)
	})
}

// BulkRemove removes keys in one native request. Every key is
// transformed first. The operation always delivers with
// FilterAllWithAck, yielding one RemoveResult per key and target; the
// session filter is left unchanged.
func (s *Session) BulkRemove(chunk, final Token, keys []Key) {
	p := s.params()
	ids := make([]Key, len(keys))
	for i, k := range keys {
		ids[i] = k.transform(p.Namespace)
	}
	s.issue("bulk_remove", familyRemove, chunk, final, FilterAllWithAck, func() AsyncResult {
		return s.client.BulkRemove(p, ids)
	})
}

// FindAllIndexes finds objects carrying every index in names.
func (s *Session) FindAllIndexes(chunk, final Token, names []string) {
	p := s.params()
	names = append([]string(nil), names...)
	s.issue("find_all_indexes", familyFind, chunk, final, s.filter, func() AsyncResult {
		return s.client.FindAllIndexes(p, names)
	})
}

// FindAnyIndexes finds objects carrying at least one index in names.
func (s *Session) FindAnyIndexes(chunk, final Token, names []string) {
	p := s.params()
	names = append([]string(nil), names...)
	s.issue("find_any_indexes", familyFind, chunk, final, s.filter, func() AsyncResult {
		return s.client.FindAnyIndexes(p, names)
	})
}

// ListIndexes lists the indexes attached to key, one IndexEntry per index.
func (s *Session) ListIndexes(chunk, final Token, key Key) {
	p := s.params()
	key = key.transform(p.Namespace)
	s.issue("list_indexes", familyIndexEntry, chunk, final, s.filter, func() AsyncResult {
		return s.client.ListIndexes(p, key)
	})
}

// SetIndexes replaces the index set of key. Only the final is delivered.
func (s *Session) SetIndexes(chunk, final Token, key Key, indexes []Index) {
	p := s.params()
	key = key.transform(p.Namespace)
	indexes = append([]Index(nil), indexes...)
	s.issue("set_indexes", familyAck, chunk, final, s.filter, func() AsyncResult {
		return s.client.SetIndexes(p, key, indexes)
	})
}

// UpdateIndexes adds or overwrites indexes of key, keeping the others.
// Only the final is delivered.
func (s *Session) UpdateIndexes(chunk, final Token, key Key, indexes []Index) {
	p := s.params()
	key = key.transform(p.Namespace)
	indexes = append([]Index(nil), indexes...)
	s.issue("update_indexes", familyAck, chunk, final, s.filter, func() AsyncResult {
		return s.client.UpdateIndexes(p, key, indexes)
	})
}

// RemoveIndexes detaches the named indexes from key. Only the final is
// delivered.
func (s *Session) RemoveIndexes(chunk, final Token, key Key, names []string) {
	p := s.params()
	key = key.transform(p.Namespace)
	names = append([]string(nil), names...)
	s.issue("remove_indexes", familyAck, chunk, final, s.filter, func() AsyncResult {
		return s.client.RemoveIndexes(p, key, names)
	})
}

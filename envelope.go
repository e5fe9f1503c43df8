// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import "code.hybscloud.com/kont"

// Kind tags the operation family of an Envelope.
type Kind uint8

const (
	KindRead Kind = iota + 1
	KindLookup
	KindRemove
	KindIndexMatch
	KindIndexEntry
	KindBackendStatus
)

func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindLookup:
		return "lookup"
	case KindRemove:
		return "remove"
	case KindIndexMatch:
		return "index-match"
	case KindIndexEntry:
		return "index-entry"
	case KindBackendStatus:
		return "backend-status"
	default:
		return "unknown"
	}
}

// Envelope is one delivered result. The set of implementations is
// closed: ReadChunk, LookupResult, RemoveResult, IndexMatch, IndexEntry
// and BackendStatusList.
//
// An envelope is never partially valid: when Info().Code is 0 the
// payload is fully populated, otherwise only the error fields and the
// target attribution (command and address, where the family has them)
// are meaningful.
type Envelope interface {
	Kind() Kind
	Info() ErrorInfo
	envelope()
}

// ReadChunk is one target's reply to a read.
type ReadChunk struct {
	Cmd   Cmd
	Addr  Addr
	IO    IOAttr
	Data  []byte
	Error ErrorInfo
}

// LookupResult is one target's reply to a lookup or a write.
type LookupResult struct {
	Cmd         Cmd
	Addr        Addr
	File        FileInfo
	StorageAddr Addr
	Path        string
	Error       ErrorInfo
}

// RemoveResult is one target's reply to a remove or bulk remove.
type RemoveResult struct {
	Cmd   Cmd
	Addr  Addr
	Error ErrorInfo
}

// IndexEntry is one index value attached to an object.
type IndexEntry struct {
	Index ID
	Data  []byte
	Error ErrorInfo
}

// IndexMatch is one object matched by an index search.
type IndexMatch struct {
	ID      ID
	Entries []IndexEntry
	Error   ErrorInfo
}

// BackendStatusList is the combined reply of a successful backend
// administrative operation. Failures are delivered as the Left branch
// of the backend outcome instead.
type BackendStatusList struct {
	Addr     Addr
	Backends []BackendStatus
}

func (ReadChunk) Kind() Kind         { return KindRead }
func (LookupResult) Kind() Kind      { return KindLookup }
func (RemoveResult) Kind() Kind      { return KindRemove }
func (IndexMatch) Kind() Kind        { return KindIndexMatch }
func (IndexEntry) Kind() Kind        { return KindIndexEntry }
func (BackendStatusList) Kind() Kind { return KindBackendStatus }

func (r ReadChunk) Info() ErrorInfo       { return r.Error }
func (r LookupResult) Info() ErrorInfo    { return r.Error }
func (r RemoveResult) Info() ErrorInfo    { return r.Error }
func (r IndexMatch) Info() ErrorInfo      { return r.Error }
func (r IndexEntry) Info() ErrorInfo      { return r.Error }
func (BackendStatusList) Info() ErrorInfo { return ErrorInfo{} }

func (ReadChunk) envelope()         {}
func (LookupResult) envelope()      {}
func (RemoveResult) envelope()      {}
func (IndexMatch) envelope()        {}
func (IndexEntry) envelope()        {}
func (BackendStatusList) envelope() {}

// Outcome splits an envelope into its error or its payload:
// Left(ErrorInfo) on failure, Right(envelope) on success.
func Outcome[T Envelope](env T) kont.Either[ErrorInfo, T] {
	if info := env.Info(); info.Code != 0 {
		return kont.Left[ErrorInfo, T](info)
	}
	return kont.Right[ErrorInfo](env)
}

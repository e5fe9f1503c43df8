// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import "time"

// Command flags carried in Cmd.Flags.
const (
	FlagNeedAck  uint64 = 1 << 0
	FlagMore     uint64 = 1 << 1
	FlagDestroy  uint64 = 1 << 2
	FlagDirect   uint64 = 1 << 3
	FlagNoLock   uint64 = 1 << 4
	FlagReply    uint64 = 1 << 5
	FlagChecksum uint64 = 1 << 6
	FlagNoCache  uint64 = 1 << 7
)

// I/O flags set on a Session with SetIOFlags.
const (
	IOFlagAppend    uint32 = 1 << 0
	IOFlagPrepare   uint32 = 1 << 1
	IOFlagCommit    uint32 = 1 << 2
	IOFlagOverwrite uint32 = 1 << 3
	IOFlagNoCSum    uint32 = 1 << 4
	IOFlagPlain     uint32 = 1 << 5
	IOFlagCache     uint32 = 1 << 6
	IOFlagCacheOnly uint32 = 1 << 7
)

// Cmd is the command header of a single per-target reply.
type Cmd struct {
	ID      ID
	Status  int32
	Backend int32
	Trace   uint64
	Flags   uint64
	Size    uint64
}

// IOAttr describes the I/O performed by a read or write on one target.
type IOAttr struct {
	Parent    ID
	ID        ID
	Offset    uint64
	Size      uint64
	TotalSize uint64
	UserFlags uint64
	Flags     uint32
	Timestamp time.Time
}

// FileInfo describes a stored record as reported by lookup and write.
type FileInfo struct {
	Size     uint64
	Offset   uint64
	Mtime    time.Time
	Checksum []byte
	Flags    uint64
}

// BackendState is the lifecycle state of a backend.
type BackendState uint8

const (
	BackendDisabled BackendState = iota
	BackendEnabled
	BackendActivating
	BackendDeactivating
)

func (s BackendState) String() string {
	switch s {
	case BackendDisabled:
		return "disabled"
	case BackendEnabled:
		return "enabled"
	case BackendActivating:
		return "activating"
	case BackendDeactivating:
		return "deactivating"
	default:
		return "unknown"
	}
}

// DefragState is the defragmentation state of a backend.
type DefragState uint8

const (
	DefragNotStarted DefragState = iota
	DefragInProgress
)

func (s DefragState) String() string {
	if s == DefragInProgress {
		return "in-progress"
	}
	return "not-started"
}

// BackendStatus is the administrative status of one backend on a node.
type BackendStatus struct {
	Backend      uint32
	Group        uint32
	State        BackendState
	DefragState  DefragState
	LastStart    time.Time
	LastStartErr int
	ReadOnly     bool
	Delay        uint32
}

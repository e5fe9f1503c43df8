// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import (
	"context"
	"errors"
	"fmt"
	"syscall"
)

// ErrorInfo is the flat, boundary-safe outcome of a chunk or a final
// completion. Code 0 is success; any other code is a negative errno
// defined by the engine. Message is diagnostic only.
type ErrorInfo struct {
	Code    int
	Flags   uint64
	Message string
}

// OK reports whether the outcome is a success.
func (e ErrorInfo) OK() bool {
	return e.Code == 0
}

// Errno returns the positive errno of a failed outcome, 0 on success.
func (e ErrorInfo) Errno() syscall.Errno {
	if e.Code >= 0 {
		return 0
	}
	return syscall.Errno(-e.Code)
}

// Err returns nil on success and an *Error otherwise.
func (e ErrorInfo) Err() error {
	if e.Code == 0 {
		return nil
	}
	return &Error{Code: e.Code, Message: e.Message}
}

func (e ErrorInfo) String() string {
	if e.Code == 0 {
		return "ok"
	}
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// Error is an engine error carrying a negative errno code.
// errors.Is matches it against the corresponding syscall.Errno.
type Error struct {
	Code    int
	Message string
}

// Errorf returns an *Error for errno with a formatted message.
func Errorf(errno syscall.Errno, format string, args ...any) *Error {
	return &Error{Code: -int(errno), Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("elliptics: %v", syscall.Errno(-e.Code))
	}
	return "elliptics: " + e.Message
}

// Is matches a syscall.Errno with the same code.
func (e *Error) Is(target error) bool {
	var errno syscall.Errno
	if errors.As(target, &errno) {
		return e.Code == -int(errno)
	}
	return false
}

// Sentinel errors reported by the bridge itself.
var (
	ErrClosed     = &Error{Code: -int(syscall.EBADF), Message: "session is closed"}
	ErrInFlight   = &Error{Code: -int(syscall.EBUSY), Message: "session has operations in flight"}
	ErrNoClient   = &Error{Code: -int(syscall.EINVAL), Message: "nil client"}
	ErrNoReceiver = &Error{Code: -int(syscall.EINVAL), Message: "nil receiver"}
	ErrNoTargets  = &Error{Code: -int(syscall.ENXIO), Message: "no targets for the request"}
)

// infoOf translates a native error into an ErrorInfo carrying flags.
// A nil error is success.
func infoOf(err error, flags uint64) ErrorInfo {
	if err == nil {
		return ErrorInfo{}
	}
	var (
		ee    *Error
		errno syscall.Errno
	)
	switch {
	case errors.As(err, &ee):
		return ErrorInfo{Code: ee.Code, Flags: flags, Message: err.Error()}
	case errors.As(err, &errno):
		return ErrorInfo{Code: -int(errno), Flags: flags, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorInfo{Code: -int(syscall.ETIMEDOUT), Flags: flags, Message: err.Error()}
	case errors.Is(err, context.Canceled):
		return ErrorInfo{Code: -int(syscall.ECANCELED), Flags: flags, Message: err.Error()}
	default:
		return ErrorInfo{Code: -int(syscall.EIO), Flags: flags, Message: err.Error()}
	}
}

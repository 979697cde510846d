// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weave

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// For Enqueue: the queue is full (backpressure)
// For Dequeue: the queue is empty (no data available)
//
// ErrWouldBlock is a control flow signal, not a failure. The caller should
// retry the operation later (with backoff or yield) rather than propagating
// the error.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrHazardExhausted indicates that every slot of the process-wide hazard
// pointer pool is in use at acquire time. The pool size is fixed at
// [HazardCount]; running out means too many simultaneous protected reads
// were configured, not a transient condition, so retrying is pointless.
var ErrHazardExhausted = errors.New("weave: hazard pointer pool exhausted")

// ErrInvalidValueType indicates that a value type which is not
// bitwise-copyable was used with a cell that requires one.
// Returned at construction.
var ErrInvalidValueType = errors.New("weave: value type is not bitwise-copyable")

// ErrInvalidCapacity indicates a capacity below the allowed minimum.
var ErrInvalidCapacity = errors.New("weave: invalid capacity")

// ErrEventWait indicates that the host's wait facility failed with an
// error other than an interrupted call. The cause is attached via
// error wrapping.
var ErrEventWait = errors.New("weave: event wait failed")

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil or ErrWouldBlock.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}

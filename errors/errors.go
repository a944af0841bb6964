/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrMailboxTimeout is returned when a work item did not complete within its timeout.
	// The work itself may still be running; only the caller stopped waiting.
	ErrMailboxTimeout = errors.New("mailbox work timed out")

	// ErrMailboxStopped is returned when work is submitted to a mailbox that has been stopped.
	ErrMailboxStopped = errors.New("mailbox is stopped")

	// ErrMailboxFull is returned when a bounded mailbox cannot accept more work.
	ErrMailboxFull = errors.New("mailbox is full")

	// ErrActorNotFound is returned when an actor id is not registered in the directory.
	ErrActorNotFound = errors.New("actor not found")

	// ErrUnresolvableActor is returned when a command targets an actor that cannot be resolved or created.
	ErrUnresolvableActor = errors.New("actor cannot be resolved")

	// ErrInvalidActorID is returned when an actor id carries an out of range kind or server id.
	ErrInvalidActorID = errors.New("invalid actor id")

	// ErrAgentNotRegistered is returned when no component agent is registered for the actor kind.
	ErrAgentNotRegistered = errors.New("component agent is not registered")

	// ErrAgentTypeMismatch is returned when a registered agent factory yields an unexpected type.
	ErrAgentTypeMismatch = errors.New("component agent type mismatch")

	// ErrDirectoryStopped is returned when the actor directory no longer accepts requests.
	ErrDirectoryStopped = errors.New("actor directory is stopped")

	// ErrSchedulerNotStarted is returned when a timer is registered before the scheduler started.
	ErrSchedulerNotStarted = errors.New("scheduler has not started")

	// ErrTimerNotFound is returned when cancelling an unknown timer.
	ErrTimerNotFound = errors.New("timer not found")

	// ErrCallTimeout is returned when a correlated rpc call did not receive its reply in time.
	ErrCallTimeout = errors.New("rpc call timed out")

	// ErrConnectionClosed is returned to every pending call when its connection is torn down.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrCorrelatorClosed is returned when a call is issued on a closed correlator.
	ErrCorrelatorClosed = errors.New("correlator is closed")

	// ErrHandlerNotFound is returned when no handler is registered for an inbound message id.
	ErrHandlerNotFound = errors.New("message handler not found")

	// ErrNotFound is returned by storage backends when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrStoreClosed is returned when a storage backend has been closed.
	ErrStoreClosed = errors.New("store is closed")

	// ErrNilEntity is returned when a nil entity is handed to a persistence operation.
	ErrNilEntity = errors.New("entity is nil")

	// ErrImmutableID is returned when changing the id of an already persisted entity.
	ErrImmutableID = errors.New("entity id is immutable once persisted")

	// ErrStateNotChanged is the invariant violation raised when a save is acknowledged
	// without an intervening mutation.
	ErrStateNotChanged = errors.New("state saved without change")

	// ErrInvalidConfig is returned when the configuration does not validate.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedMessage is returned when a serializer receives a value it cannot handle.
	ErrUnsupportedMessage = errors.New("unsupported message")

	// ErrNodeStopped is returned when a stopped node is started again.
	ErrNodeStopped = errors.New("node is stopped")
)

// PanicError defines the panic error
// wrapping the underlying error
type PanicError struct {
	err error
}

// enforce compilation error
var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}

// TimeoutError reports a timed out operation together with the call chain it ran in.
type TimeoutError struct {
	op      string
	chainID int64
	err     error
}

var _ error = (*TimeoutError)(nil)

// NewTimeoutError creates a TimeoutError for the given operation and call chain.
// The returned error matches err with errors.Is.
func NewTimeoutError(op string, chainID int64, err error) *TimeoutError {
	return &TimeoutError{op: op, chainID: chainID, err: err}
}

// Error implements the standard error interface
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s (chain=%d): %v", e.op, e.chainID, e.err)
}

func (e *TimeoutError) Unwrap() error {
	return e.err
}

// ChainID returns the call chain the timed out operation belonged to.
func (e *TimeoutError) ChainID() int64 {
	return e.chainID
}

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

package actor

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/gamecore/errors"
	"github.com/tochemey/gamecore/internal/future"
	"github.com/tochemey/gamecore/internal/metric"
	"github.com/tochemey/gamecore/internal/workerpool"
	"github.com/tochemey/gamecore/log"
)

const (
	idle int32 = iota
	busy
)

// DefaultMailboxTimeout bounds a work item when no timeout is given.
const DefaultMailboxTimeout = 30 * time.Second

// NoTimeout disables the execution bound of a work item.
const NoTimeout time.Duration = -1

// Work is a unit of work executed on an actor's turn. ctx carries the
// CallContext of the turn and is cancelled when the item is abandoned.
type Work func(ctx context.Context) (any, error)

type workItem struct {
	ctx     context.Context
	work    Work
	chainID int64
	timeout time.Duration
	result  *future.Future[any] // nil for fire-and-forget items
}

type forwardFunc func(item *workItem) error

// MailboxOption configures a Mailbox.
type MailboxOption func(*Mailbox)

// WithMailboxLogger sets the mailbox logger.
func WithMailboxLogger(logger log.Logger) MailboxOption {
	return func(m *Mailbox) {
		m.logger = logger
	}
}

// WithMailboxMetric sets the instruments the mailbox records into.
func WithMailboxMetric(rm *metric.RuntimeMetric) MailboxOption {
	return func(m *Mailbox) {
		m.metric = rm
	}
}

// WithMailboxTimeout sets the timeout used when a call passes zero.
func WithMailboxTimeout(timeout time.Duration) MailboxOption {
	return func(m *Mailbox) {
		m.timeout = timeout
	}
}

// WithMailboxCapacity bounds the number of queued items. Zero means unbounded.
func WithMailboxCapacity(capacity int) MailboxOption {
	return func(m *Mailbox) {
		if capacity > 0 {
			m.queue = newBoundedQueue(capacity)
		}
	}
}

// Mailbox is the ordered work queue of one actor. Items run one at a time,
// in submission order, on the shared worker pool. A call made from inside
// the running turn with the same chain id runs inline instead of queuing,
// which keeps A -> B -> A call trees from deadlocking.
type Mailbox struct {
	owner        ID
	queue        queue
	pool         *workerpool.WorkerPool
	processing   atomic.Int32
	currentChain atomic.Int64
	stopped      atomic.Bool
	pending      atomic.Int64
	turns        atomic.Int64
	lastActivity atomic.Int64
	forward      atomic.Pointer[forwardFunc]
	timeout      time.Duration
	logger       log.Logger
	metric       *metric.RuntimeMetric
}

// NewMailbox creates the mailbox of owner draining on pool.
func NewMailbox(owner ID, pool *workerpool.WorkerPool, opts ...MailboxOption) *Mailbox {
	m := &Mailbox{
		owner:   owner,
		pool:    pool,
		timeout: DefaultMailboxTimeout,
		logger:  log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.queue == nil {
		m.queue = newUnboundedQueue()
	}
	m.lastActivity.Store(time.Now().UnixNano())
	return m
}

// Owner returns the id of the owning actor.
func (m *Mailbox) Owner() ID {
	return m.owner
}

// Len returns the number of queued items.
func (m *Mailbox) Len() int64 {
	return m.pending.Load()
}

// Turns returns the number of queued items that started executing.
func (m *Mailbox) Turns() int64 {
	return m.turns.Load()
}

// LastActivity returns when an item last started executing.
func (m *Mailbox) LastActivity() time.Time {
	return time.Unix(0, m.lastActivity.Load())
}

// IsStopped reports whether the mailbox rejects new work.
func (m *Mailbox) IsStopped() bool {
	return m.stopped.Load()
}

// NeedEnqueue reports whether work tagged with chainID must be queued. It
// is false only when the mailbox is running a turn of that very chain.
func (m *Mailbox) NeedEnqueue(chainID int64) bool {
	return chainID == 0 || m.currentChain.Load() != chainID
}

// Enqueue is the low level submission primitive. Unless discard is set,
// work coming from the running turn's own chain runs inline on the caller.
// With discard the work is always queued and observes the state left by
// the current turn. A zero timeout uses the mailbox default; NoTimeout
// disables it. The timeout bounds execution: on expiry the work's context
// is cancelled, the item is abandoned and the queue moves on.
func (m *Mailbox) Enqueue(ctx context.Context, work Work, discard bool, timeout time.Duration) *future.Future[any] {
	ctx, cc := withChain(ctx)
	if !discard && !m.NeedEnqueue(cc.ChainID) {
		value, err := m.invoke(ctx, cc.ChainID, work)
		return resolved(value, err)
	}

	// the caller only bounds its wait; a queued item outlives the caller's turn
	item := &workItem{
		ctx:     context.WithoutCancel(ctx),
		work:    work,
		chainID: cc.ChainID,
		timeout: m.resolveTimeout(timeout),
		result:  future.New[any](),
	}
	if err := m.push(item); err != nil {
		return future.Failed[any](err)
	}
	return item.result
}

// SendAsync submits work and returns a future of its result.
func (m *Mailbox) SendAsync(ctx context.Context, work Work, timeout time.Duration) *future.Future[any] {
	return m.Enqueue(ctx, work, false, timeout)
}

// Tell queues work without waiting for it. It never runs inline, even from
// the actor's own turn, and starts a new call chain since the caller does
// not wait for it. Failures and timeouts are logged. The work context keeps
// the caller's values but not its cancellation.
func (m *Mailbox) Tell(ctx context.Context, work func(ctx context.Context) error, timeout time.Duration) error {
	cc, _ := CallContextFrom(ctx)
	cc.ChainID = NewChainID()
	return m.push(&workItem{
		ctx: WithCallContext(context.WithoutCancel(ctx), cc),
		work: func(ctx context.Context) (any, error) {
			return nil, work(ctx)
		},
		chainID: cc.ChainID,
		timeout: m.resolveTimeout(timeout),
	})
}

// Stop rejects new work. Items still queued fail with ErrMailboxStopped;
// the item currently running completes normally.
func (m *Mailbox) Stop() {
	if m.stopped.Swap(true) {
		return
	}
	m.schedule()
}

// stopAndForward stops the mailbox and hands every item still queued, or
// pushed while stopping, to forward instead of failing it.
func (m *Mailbox) stopAndForward(forward forwardFunc) {
	if m.stopped.Load() {
		return
	}
	m.forward.CompareAndSwap(nil, &forward)
	m.Stop()
}

// Ask submits fn to the mailbox and waits for its typed result. Waiting
// stops when ctx is done; the work itself keeps its own timeout.
func Ask[T any](ctx context.Context, m *Mailbox, fn func(ctx context.Context) (T, error), timeout time.Duration) (T, error) {
	var zero T
	value, err := m.SendAsync(ctx, func(ctx context.Context) (any, error) {
		return fn(ctx)
	}, timeout).Await(ctx)
	if err != nil {
		return zero, err
	}
	if value == nil {
		return zero, nil
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected result type %T", value)
	}
	return typed, nil
}

func (m *Mailbox) resolveTimeout(timeout time.Duration) time.Duration {
	if timeout == 0 {
		return m.timeout
	}
	return timeout
}

func (m *Mailbox) push(item *workItem) error {
	if m.stopped.Load() {
		return gerrors.ErrMailboxStopped
	}
	if err := m.queue.Enqueue(item); err != nil {
		return err
	}
	m.pending.Inc()
	m.schedule()
	return nil
}

// schedule wakes the receive loop up when it is idle.
func (m *Mailbox) schedule() {
	if m.processing.CompareAndSwap(idle, busy) {
		if !m.pool.SubmitWork(m.receiveLoop) {
			go m.receiveLoop()
		}
	}
}

// receiveLoop drains the queue one item at a time.
func (m *Mailbox) receiveLoop() {
	for {
		for item := m.queue.Dequeue(); item != nil; item = m.queue.Dequeue() {
			m.pending.Dec()
			if m.stopped.Load() {
				m.drop(item)
				continue
			}
			m.process(item)
		}

		if !m.processing.CompareAndSwap(busy, idle) {
			return
		}

		// producers may have pushed after the last Dequeue
		if !m.queue.IsEmpty() && m.processing.CompareAndSwap(idle, busy) {
			continue
		}
		return
	}
}

// drop hands an item dequeued after Stop to the forwarder, or fails it.
func (m *Mailbox) drop(item *workItem) {
	err := gerrors.ErrMailboxStopped
	if forward := m.forward.Load(); forward != nil {
		if err = (*forward)(item); err == nil {
			return
		}
	}
	m.complete(item, nil, err, 0)
}

func (m *Mailbox) process(item *workItem) {
	start := time.Now()
	m.turns.Inc()
	m.lastActivity.Store(start.UnixNano())
	m.currentChain.Store(item.chainID)
	defer m.currentChain.Store(0)

	if item.timeout < 0 {
		value, err := m.invoke(item.ctx, item.chainID, item.work)
		m.complete(item, value, err, time.Since(start))
		return
	}

	ctx, cancel := context.WithCancel(item.ctx)
	defer cancel()

	var (
		value any
		err   error
		done  = make(chan struct{})
	)
	task := func() {
		value, err = m.invoke(ctx, item.chainID, item.work)
		close(done)
	}
	if !m.pool.SubmitWork(task) {
		go task()
	}

	timer := time.NewTimer(item.timeout)
	defer timer.Stop()

	select {
	case <-done:
		m.complete(item, value, err, time.Since(start))
	case <-timer.C:
		timeoutErr := gerrors.NewTimeoutError(fmt.Sprintf("actor %s mailbox", m.owner), item.chainID, gerrors.ErrMailboxTimeout)
		log.ForTurn(m.logger, m.owner, item.chainID).With(
			"severity", "fatal",
			"timeout", item.timeout.String(),
		).Error(timeoutErr)
		m.metric.MailboxTimeout(item.ctx, uint16(m.owner.Kind()))
		if item.result != nil {
			item.result.Fail(timeoutErr)
		}
	}
}

// invoke runs work on behalf of the owner and turns a panic into a PanicError.
func (m *Mailbox) invoke(ctx context.Context, chainID int64, work Work) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = toPanicError(r)
			m.metric.MailboxPanic(ctx, uint16(m.owner.Kind()))
		}
	}()
	return work(WithCallContext(ctx, CallContext{ChainID: chainID, ActorID: m.owner}))
}

func (m *Mailbox) complete(item *workItem, value any, err error, elapsed time.Duration) {
	if elapsed > 0 {
		m.metric.WorkItemProcessed(item.ctx, uint16(m.owner.Kind()), elapsed)
	}
	if item.result != nil {
		item.result.Resolve(value, err)
		return
	}
	if err != nil {
		m.logger.Errorf("actor %s: work failed: %v", m.owner, err)
	}
}

func resolved(value any, err error) *future.Future[any] {
	f := future.New[any]()
	f.Resolve(value, err)
	return f
}

func toPanicError(r any) error {
	pc, fn, line, _ := runtime.Caller(3)
	if err, ok := r.(error); ok {
		var pe *gerrors.PanicError
		if errors.As(err, &pe) {
			return pe
		}
		return gerrors.NewPanicError(fmt.Errorf("%w at %s[%s:%d]", err, runtime.FuncForPC(pc).Name(), fn, line))
	}
	return gerrors.NewPanicError(fmt.Errorf("%#v at %s[%s:%d]", r, runtime.FuncForPC(pc).Name(), fn, line))
}

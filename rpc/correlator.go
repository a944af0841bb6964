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

package rpc

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/gamecore/errors"
	"github.com/tochemey/gamecore/internal/future"
	"github.com/tochemey/gamecore/internal/metric"
	"github.com/tochemey/gamecore/internal/ticker"
	"github.com/tochemey/gamecore/internal/xsync"
	"github.com/tochemey/gamecore/log"
)

const (
	// DefaultCallTimeout bounds a call made without a timeout.
	DefaultCallTimeout = 10 * time.Second
	// DefaultSweepInterval is the period of the expired calls sweep.
	DefaultSweepInterval = 100 * time.Millisecond
)

// correlation ids are unique process wide
var correlationSeq atomic.Int64

type pendingCall struct {
	result   *future.Future[*Message]
	deadline time.Time
	msgID    int32
}

// CorrelatorOption configures a Correlator.
type CorrelatorOption func(*Correlator)

// WithCorrelatorLogger sets the logger.
func WithCorrelatorLogger(logger log.Logger) CorrelatorOption {
	return func(c *Correlator) {
		c.logger = logger
	}
}

// WithCorrelatorMetric sets the runtime metric.
func WithCorrelatorMetric(rm *metric.RuntimeMetric) CorrelatorOption {
	return func(c *Correlator) {
		c.metric = rm
	}
}

// WithDefaultTimeout sets the timeout of calls made with a zero timeout.
func WithDefaultTimeout(timeout time.Duration) CorrelatorOption {
	return func(c *Correlator) {
		c.defaultTimeout = timeout
	}
}

// WithSweepInterval sets how often expired calls are failed.
func WithSweepInterval(interval time.Duration) CorrelatorOption {
	return func(c *Correlator) {
		c.sweepInterval = interval
	}
}

// Correlator pairs the requests sent on one connection with their replies.
type Correlator struct {
	conn           Conn
	pending        *xsync.Map[int64, *pendingCall]
	closed         atomic.Bool
	sweeper        *ticker.Ticker
	stopCh         chan struct{}
	doneCh         chan struct{}
	defaultTimeout time.Duration
	sweepInterval  time.Duration
	logger         log.Logger
	metric         *metric.RuntimeMetric
}

// NewCorrelator creates a Correlator sending on conn and starts its sweeper.
func NewCorrelator(conn Conn, opts ...CorrelatorOption) *Correlator {
	c := &Correlator{
		conn:           conn,
		pending:        xsync.NewMap[int64, *pendingCall](),
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
		defaultTimeout: DefaultCallTimeout,
		sweepInterval:  DefaultSweepInterval,
		logger:         log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.sweeper = ticker.New(c.sweepInterval)
	c.sweeper.Start()
	go c.sweepLoop()
	return c
}

// Call sends msg and waits for its reply. ctx stops the wait and drops the
// pending call.
func (c *Correlator) Call(ctx context.Context, msg *Message, timeout time.Duration) (*Message, error) {
	result := c.CallAsync(ctx, msg, timeout)
	reply, err := result.Await(ctx)
	if err != nil && ctx.Err() != nil {
		c.pending.Delete(msg.CorrelationID)
	}
	return reply, err
}

// CallAsync sends msg with a fresh correlation id and returns a future
// completed by the matching Reply, a timeout or Close.
func (c *Correlator) CallAsync(ctx context.Context, msg *Message, timeout time.Duration) *future.Future[*Message] {
	if c.closed.Load() {
		return future.Failed[*Message](gerrors.ErrCorrelatorClosed)
	}
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}

	msg.CorrelationID = correlationSeq.Inc()
	call := &pendingCall{
		result:   future.New[*Message](),
		deadline: time.Now().Add(timeout),
		msgID:    msg.ID,
	}
	c.pending.Set(msg.CorrelationID, call)

	// Close may have drained the pending set before the call got in
	if c.closed.Load() {
		c.pending.Delete(msg.CorrelationID)
		return future.Failed[*Message](gerrors.ErrConnectionClosed)
	}

	if err := c.conn.Send(ctx, msg); err != nil {
		c.pending.Delete(msg.CorrelationID)
		call.result.Fail(fmt.Errorf("rpc: sending message %d: %w", msg.ID, err))
	}
	return call.result
}

// Notify sends msg without expecting a reply.
func (c *Correlator) Notify(ctx context.Context, msg *Message) error {
	if c.closed.Load() {
		return gerrors.ErrCorrelatorClosed
	}
	msg.CorrelationID = 0
	return c.conn.Send(ctx, msg)
}

// Reply completes the call msg answers and reports whether there was one.
// A false result means msg is unsolicited and should be routed as a
// notification.
func (c *Correlator) Reply(msg *Message) bool {
	if msg == nil || msg.CorrelationID == 0 {
		return false
	}
	call, ok := c.pending.LoadAndDelete(msg.CorrelationID)
	if !ok {
		return false
	}
	return call.result.Complete(msg)
}

// Pending returns the number of calls waiting for their reply.
func (c *Correlator) Pending() int {
	return c.pending.Len()
}

// Close fails every pending call with ErrConnectionClosed and stops the
// sweeper. Call it when the underlying connection goes away.
func (c *Correlator) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.stopCh)
	<-c.doneCh
	c.sweeper.Stop()

	for id, call := range c.pending.Drain() {
		call.result.Fail(fmt.Errorf("rpc: call %d (message %d): %w", id, call.msgID, gerrors.ErrConnectionClosed))
	}
	return nil
}

func (c *Correlator) sweepLoop() {
	defer close(c.doneCh)
	for {
		select {
		case <-c.stopCh:
			return
		case now := <-c.sweeper.Ticks:
			c.sweep(now)
		}
	}
}

// sweep fails the calls past their deadline.
func (c *Correlator) sweep(now time.Time) {
	var expired []int64
	c.pending.Range(func(id int64, call *pendingCall) bool {
		if now.After(call.deadline) {
			expired = append(expired, id)
		}
		return true
	})

	for _, id := range expired {
		call, ok := c.pending.LoadAndDelete(id)
		if !ok {
			continue
		}
		err := gerrors.NewTimeoutError(fmt.Sprintf("rpc call of message %d", call.msgID), id, gerrors.ErrCallTimeout)
		c.logger.Warn(err)
		c.metric.RPCTimeout(context.Background())
		call.result.Fail(err)
	}
}

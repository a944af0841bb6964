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

package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/gamecore/errors"
	"github.com/tochemey/gamecore/log"
	"github.com/tochemey/gamecore/rpc"
)

const (
	connectAttempts = 5
	connectDelay    = 100 * time.Millisecond
	reconnectWait   = 2 * time.Second
)

// Option configures a Conn.
type Option func(*Conn)

// WithCodec sets the message codec. The default is rpc.NewCBORCodec.
func WithCodec(codec rpc.Codec) Option {
	return func(c *Conn) {
		c.codec = codec
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Conn) {
		c.logger = logger
	}
}

// Connect dials the NATS server at url, retrying with backoff.
func Connect(ctx context.Context, url, name string) (*nats.Conn, error) {
	opts := nats.GetDefaultOptions()
	opts.Url = url
	opts.Name = name
	opts.ReconnectWait = reconnectWait
	opts.MaxReconnect = -1

	var connection *nats.Conn
	retrier := retry.NewRetrier(connectAttempts, connectDelay, opts.ReconnectWait)
	err := retrier.RunContext(ctx, func(context.Context) error {
		var err error
		connection, err = opts.Connect()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("nats: connecting to %s: %w", url, err)
	}
	return connection, nil
}

// Conn is an rpc.Conn over NATS: it publishes on an outbound subject and
// hands the messages received on an inbound subject to a handler, one at
// a time.
type Conn struct {
	connection   *nats.Conn
	subscription *nats.Subscription
	outbound     string
	codec        rpc.Codec
	handler      rpc.Handler
	logger       log.Logger
	closed       atomic.Bool
}

var _ rpc.Conn = (*Conn)(nil)

// NewConn subscribes to inbound on connection. The NATS connection stays
// owned by the caller.
func NewConn(connection *nats.Conn, outbound, inbound string, handler rpc.Handler, opts ...Option) (*Conn, error) {
	c := &Conn{
		connection: connection,
		outbound:   outbound,
		codec:      rpc.NewCBORCodec(),
		handler:    handler,
		logger:     log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(c)
	}

	subscription, err := connection.Subscribe(inbound, c.receive)
	if err != nil {
		return nil, fmt.Errorf("nats: subscribing to %s: %w", inbound, err)
	}
	c.subscription = subscription
	return c, nil
}

// Send implements rpc.Conn.
func (c *Conn) Send(ctx context.Context, msg *rpc.Message) error {
	if c.closed.Load() {
		return gerrors.ErrConnectionClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := c.codec.Encode(msg)
	if err != nil {
		return err
	}
	if err := c.connection.Publish(c.outbound, data); err != nil {
		return fmt.Errorf("nats: publishing on %s: %w", c.outbound, err)
	}
	return nil
}

// Close implements rpc.Conn. It drops the subscription.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.subscription.Unsubscribe()
}

// Flush waits until the server processed every published message.
func (c *Conn) Flush() error {
	return c.connection.Flush()
}

func (c *Conn) receive(m *nats.Msg) {
	if c.closed.Load() {
		return
	}
	msg, err := c.codec.Decode(m.Data)
	if err != nil {
		c.logger.Warnf("nats: dropping undecodable message on %s: %v", m.Subject, err)
		return
	}
	c.handler(context.Background(), msg)
}

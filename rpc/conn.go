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

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/gamecore/errors"
)

// Conn is the outbound side of a connection.
type Conn interface {
	// Send hands msg to the transport.
	Send(ctx context.Context, msg *Message) error
	// Close tears the connection down.
	Close() error
}

// Handler receives the inbound messages of a connection.
type Handler func(ctx context.Context, msg *Message)

// PipeConn is one end of an in-memory connection. Messages are delivered
// to the peer's handler in send order, one at a time.
type PipeConn struct {
	peer    *PipeConn
	inbox   chan *Message
	handler Handler
	done    chan struct{}
	closed  atomic.Bool
	onClose func()
}

// Pipe returns the two connected ends of an in-memory connection. Messages
// sent on left reach rightHandler and the other way round. Closing either
// end closes both.
func Pipe(leftHandler, rightHandler Handler) (left, right *PipeConn) {
	left = &PipeConn{inbox: make(chan *Message, 64), handler: leftHandler, done: make(chan struct{})}
	right = &PipeConn{inbox: make(chan *Message, 64), handler: rightHandler, done: make(chan struct{})}
	left.peer, right.peer = right, left
	go left.receiveLoop()
	go right.receiveLoop()
	return left, right
}

// OnClose registers fn to run once this end is closed.
func (p *PipeConn) OnClose(fn func()) {
	p.onClose = fn
}

// Send implements Conn.
func (p *PipeConn) Send(ctx context.Context, msg *Message) error {
	if p.closed.Load() {
		return gerrors.ErrConnectionClosed
	}
	select {
	case p.peer.inbox <- msg:
		return nil
	case <-p.peer.done:
		return gerrors.ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements Conn.
func (p *PipeConn) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(p.done)
	if p.onClose != nil {
		p.onClose()
	}
	return p.peer.Close()
}

// IsClosed reports whether the connection was closed.
func (p *PipeConn) IsClosed() bool {
	return p.closed.Load()
}

func (p *PipeConn) receiveLoop() {
	ctx := context.Background()
	for {
		select {
		case <-p.done:
			return
		case msg := <-p.inbox:
			if p.handler != nil {
				p.handler(ctx, msg)
			}
		}
	}
}

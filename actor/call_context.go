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
	"sync/atomic"
)

// CallContext identifies the call tree a piece of work belongs to. It
// travels inside a context.Context through every mailbox hop so a mailbox
// can tell that an incoming call comes from its own running turn.
type CallContext struct {
	// ChainID tags the call tree. Zero means "no chain".
	ChainID int64
	// ActorID is the actor whose turn is currently running.
	ActorID ID
}

type callContextKey struct{}

var chainSeq atomic.Int64

// NewChainID returns a process-unique, non zero chain id.
func NewChainID() int64 {
	return chainSeq.Add(1)
}

// WithCallContext returns a copy of ctx carrying cc.
func WithCallContext(ctx context.Context, cc CallContext) context.Context {
	return context.WithValue(ctx, callContextKey{}, cc)
}

// CallContextFrom returns the CallContext carried by ctx.
func CallContextFrom(ctx context.Context) (CallContext, bool) {
	if ctx == nil {
		return CallContext{}, false
	}
	cc, ok := ctx.Value(callContextKey{}).(CallContext)
	return cc, ok
}

// ChainIDFrom returns the chain id carried by ctx, or zero.
func ChainIDFrom(ctx context.Context) int64 {
	cc, _ := CallContextFrom(ctx)
	return cc.ChainID
}

// withChain makes sure ctx carries a chain id, minting a new one for calls
// coming from outside any actor turn.
func withChain(ctx context.Context) (context.Context, CallContext) {
	cc, _ := CallContextFrom(ctx)
	if cc.ChainID == 0 {
		cc.ChainID = NewChainID()
		ctx = WithCallContext(ctx, cc)
	}
	return ctx, cc
}

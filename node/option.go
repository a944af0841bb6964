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

package node

import (
	"github.com/tochemey/gamecore/internal/metric"
	"github.com/tochemey/gamecore/log"
	"github.com/tochemey/gamecore/storage"
)

// Option is the interface that applies a node option.
type Option interface {
	// Apply sets the Option value of a node.
	Apply(n *Node)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*Node)

// Apply applies the options to Node
func (f OptionFunc) Apply(n *Node) {
	f(n)
}

// WithLogger replaces the logger built from the configured level.
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(n *Node) {
		n.logger = logger
	})
}

// WithMetric sets the runtime instruments. The default ones are created
// on the global OpenTelemetry meter provider.
func WithMetric(rm *metric.RuntimeMetric) Option {
	return OptionFunc(func(n *Node) {
		n.metric = rm
	})
}

// WithBackend replaces the storage backend built from the configuration.
// The node closes it on Stop.
func WithBackend(backend storage.Backend) Option {
	return OptionFunc(func(n *Node) {
		n.backend = backend
	})
}

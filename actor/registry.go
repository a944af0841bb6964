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
	"fmt"
	"reflect"
	"sync"

	gerrors "github.com/tochemey/gamecore/errors"
)

// Factory creates an unbound agent.
type Factory func() Agent

type registration struct {
	typ     reflect.Type
	factory Factory
}

// Registry is the explicit table of agents each actor kind can host. It is
// filled at startup, before the runtime accepts traffic.
type Registry struct {
	mu      sync.RWMutex
	entries map[Kind][]registration
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Kind][]registration)}
}

// Register declares that actors of kind host agents of type T built by
// factory. Registering the same type twice replaces the factory.
func Register[T Agent](reg *Registry, kind Kind, factory func() T) {
	typ := reflect.TypeFor[T]()
	reg.mu.Lock()
	defer reg.mu.Unlock()

	entry := registration{typ: typ, factory: func() Agent { return factory() }}
	for i, existing := range reg.entries[kind] {
		if existing.typ == typ {
			reg.entries[kind][i] = entry
			return
		}
	}
	reg.entries[kind] = append(reg.entries[kind], entry)
}

// AgentType returns the registry key of agent type T.
func AgentType[T Agent]() reflect.Type {
	return reflect.TypeFor[T]()
}

// Types returns the agent types registered for kind, in registration order.
func (r *Registry) Types(kind Kind) []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]reflect.Type, 0, len(r.entries[kind]))
	for _, entry := range r.entries[kind] {
		types = append(types, entry.typ)
	}
	return types
}

// Kinds returns every kind that has at least one agent registered.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.entries))
	for kind := range r.entries {
		kinds = append(kinds, kind)
	}
	return kinds
}

func (r *Registry) factory(kind Kind, typ reflect.Type) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.entries[kind] {
		if entry.typ == typ {
			return entry.factory, nil
		}
	}
	return nil, fmt.Errorf("%s for kind %d: %w", typ, kind, gerrors.ErrAgentNotRegistered)
}

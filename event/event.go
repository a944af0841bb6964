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

package event

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/tochemey/gamecore/actor"
)

// ID identifies an event type.
type ID int32

const (
	// SessionAttach is raised on the actor a session was attached to.
	SessionAttach ID = 1
	// SessionRemove is raised on the actor a session was detached from.
	SessionRemove ID = 2
)

// GlobalEventThreshold splits actor events from global ones: a global
// event with an id above it is also fanned out to every online actor.
const GlobalEventThreshold ID = 10000

// Event is the record handed to listeners.
type Event struct {
	ID      ID
	ActorID actor.ID
	Payload any
}

// Handler handles an event on behalf of agent, on the agent owner's turn.
type Handler[T actor.Agent] func(ctx context.Context, agent T, evt Event) error

// Listener is a registered event handler bound to an agent type.
type Listener struct {
	agentType reflect.Type
	handle    func(ctx context.Context, agent actor.Agent, evt Event) error
}

// AgentType returns the type of the agent the listener runs on.
func (l Listener) AgentType() reflect.Type {
	return l.agentType
}

type key struct {
	kind actor.Kind
	id   ID
}

// Registry maps (actor kind, event id) to listeners. It is filled at
// startup, before the runtime accepts traffic.
type Registry struct {
	mu        sync.RWMutex
	listeners map[key][]Listener
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{listeners: make(map[key][]Listener)}
}

// Register adds handler as a listener of eventID on actors of kind. The
// handler runs on the agent of type T, created on demand. Listeners run in
// registration order.
func Register[T actor.Agent](reg *Registry, kind actor.Kind, eventID ID, handler Handler[T]) {
	listener := Listener{
		agentType: actor.AgentType[T](),
		handle: func(ctx context.Context, agent actor.Agent, evt Event) error {
			typed, ok := agent.(T)
			if !ok {
				return fmt.Errorf("event %d: unexpected agent %T", evt.ID, agent)
			}
			return handler(ctx, typed, evt)
		},
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	k := key{kind: kind, id: eventID}
	reg.listeners[k] = append(reg.listeners[k], listener)
}

// Listeners returns the listeners of eventID on actors of kind.
func (r *Registry) Listeners(kind actor.Kind, eventID ID) []Listener {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listeners := r.listeners[key{kind: kind, id: eventID}]
	out := make([]Listener, len(listeners))
	copy(out, listeners)
	return out
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int
	for _, listeners := range r.listeners {
		n += len(listeners)
	}
	return n
}

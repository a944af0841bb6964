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
	"errors"
	"fmt"
	"runtime/debug"

	"go.uber.org/multierr"

	"github.com/tochemey/gamecore/actor"
	gerrors "github.com/tochemey/gamecore/errors"
	"github.com/tochemey/gamecore/internal/metric"
	"github.com/tochemey/gamecore/log"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger log.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetric sets the runtime metric.
func WithMetric(rm *metric.RuntimeMetric) Option {
	return func(d *Dispatcher) {
		d.metric = rm
	}
}

// WithServerID sets the server hosting the global singleton.
func WithServerID(serverID uint16) Option {
	return func(d *Dispatcher) {
		d.serverID = serverID
	}
}

// Dispatcher delivers events on the target actor's own turn, so listeners
// follow the same ordering as any other work on that actor.
type Dispatcher struct {
	directory *actor.Directory
	registry  *Registry
	online    *OnlineSet
	serverID  uint16
	logger    log.Logger
	metric    *metric.RuntimeMetric
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(directory *actor.Directory, registry *Registry, online *OnlineSet, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		directory: directory,
		registry:  registry,
		online:    online,
		serverID:  1,
		logger:    log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch queues eventID on actor actorID and returns without waiting.
// The event always runs after the work already queued on the actor, even
// when dispatched from the actor's own turn.
func (d *Dispatcher) Dispatch(ctx context.Context, actorID actor.ID, eventID ID, payload any) error {
	evt := Event{ID: eventID, ActorID: actorID, Payload: payload}
	var err error
	// a recycle may stop the mailbox between lookup and Tell
	for range 2 {
		var target *actor.Actor
		if target, err = d.directory.GetOrCreate(ctx, actorID); err != nil {
			return err
		}
		err = target.Tell(ctx, func(ctx context.Context) error {
			d.deliver(ctx, target.Current(), evt)
			return nil
		})
		if !errors.Is(err, gerrors.ErrMailboxStopped) {
			return err
		}
	}
	return err
}

// DispatchGlobal raises eventID on the server singleton. Events above
// GlobalEventThreshold are also dispatched to every online actor, each one
// queued independently.
func (d *Dispatcher) DispatchGlobal(ctx context.Context, eventID ID, payload any) error {
	serverID, err := actor.SingletonID(actor.KindServer, d.serverID)
	if err != nil {
		return err
	}
	errs := d.Dispatch(ctx, serverID, eventID, payload)
	if eventID <= GlobalEventThreshold {
		return errs
	}

	for _, id := range d.online.Snapshot() {
		if err := d.Dispatch(ctx, id, eventID, payload); err != nil {
			if errors.Is(err, gerrors.ErrDirectoryStopped) {
				return multierr.Append(errs, err)
			}
			errs = multierr.Append(errs, fmt.Errorf("actor %s: %w", id, err))
		}
	}
	return errs
}

// deliver runs every listener in order on the target's turn. A failing
// listener is logged and does not stop the others.
func (d *Dispatcher) deliver(ctx context.Context, target *actor.Actor, evt Event) {
	for _, listener := range d.registry.Listeners(target.Kind(), evt.ID) {
		if err := d.invoke(ctx, target, listener, evt); err != nil {
			d.logger.Errorf("actor %s: listener %s of event %d failed: %v",
				target.ID(), listener.agentType, evt.ID, err)
			d.metric.ListenerFailed(ctx, int32(evt.ID))
		}
	}
}

func (d *Dispatcher) invoke(ctx context.Context, target *actor.Actor, listener Listener, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = gerrors.NewPanicError(fmt.Errorf("%v\n%s", r, debug.Stack()))
		}
	}()

	agent, err := d.directory.GetComponentAgent(ctx, target.ID(), listener.agentType)
	if err != nil {
		return err
	}
	return listener.handle(ctx, agent, evt)
}

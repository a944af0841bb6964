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
	"fmt"
	"reflect"
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	gerrors "github.com/tochemey/gamecore/errors"
	"github.com/tochemey/gamecore/internal/future"
	"github.com/tochemey/gamecore/log"
)

// Saver is implemented by agents owning persisted state. The directory's
// save cycle calls it on the owner's turn.
type Saver interface {
	// SaveState writes the state when it changed and reports whether it did.
	SaveState(ctx context.Context) (bool, error)
}

// Actor is an isolated, serially executed entity. Its agents are created on
// first access and only touched on its own turn.
type Actor struct {
	id        ID
	mailbox   *Mailbox
	directory *Directory
	scheduler *Scheduler
	logger    log.Logger
	createdAt time.Time

	// turn confined
	agents      map[reflect.Type]Agent
	ordered     []Agent
	deactivated bool

	timers      mapset.Set[string]
	autoRecycle atomic.Bool
}

func newActor(id ID, mailbox *Mailbox, directory *Directory, scheduler *Scheduler, logger log.Logger) *Actor {
	a := &Actor{
		id:        id,
		mailbox:   mailbox,
		directory: directory,
		scheduler: scheduler,
		logger:    logger,
		createdAt: time.Now(),
		agents:    make(map[reflect.Type]Agent),
		timers:    mapset.NewSet[string](),
	}
	a.autoRecycle.Store(!id.IsSingleton())
	return a
}

// ID returns the actor id.
func (a *Actor) ID() ID {
	return a.id
}

// Kind returns the actor kind.
func (a *Actor) Kind() Kind {
	return a.id.Kind()
}

// Mailbox returns the actor's mailbox.
func (a *Actor) Mailbox() *Mailbox {
	return a.mailbox
}

// Directory returns the directory the actor is registered in.
func (a *Actor) Directory() *Directory {
	return a.directory
}

// CreatedAt returns when the actor was created.
func (a *Actor) CreatedAt() time.Time {
	return a.createdAt
}

// LastActive returns when the actor last started a work item.
func (a *Actor) LastActive() time.Time {
	return a.mailbox.LastActivity()
}

// AutoRecycle reports whether the actor may be recycled once idle.
func (a *Actor) AutoRecycle() bool {
	if !a.autoRecycle.Load() {
		return false
	}
	return a.directory == nil || a.directory.pinned == nil || !a.directory.pinned(a.id)
}

// SetAutoRecycle pins (false) or releases (true) the actor. Singletons stay
// pinned.
func (a *Actor) SetAutoRecycle(enabled bool) {
	if a.id.IsSingleton() {
		return
	}
	a.autoRecycle.Store(enabled)
}

// Current returns the live instance of the actor's id when this one was
// recycled before work captured against it got to run. It must run on the
// actor's turn.
func (a *Actor) Current() *Actor {
	if !a.deactivated || a.directory == nil {
		return a
	}
	if live, ok := a.directory.Get(a.id); ok {
		return live
	}
	return a
}

// Tell queues fn on the actor's mailbox without waiting.
func (a *Actor) Tell(ctx context.Context, fn func(ctx context.Context) error) error {
	return a.mailbox.Tell(ctx, fn, 0)
}

// SendAsync submits fn to the actor's mailbox.
func (a *Actor) SendAsync(ctx context.Context, fn Work) *future.Future[any] {
	return a.mailbox.SendAsync(ctx, fn, 0)
}

// TimerIDs returns the ids of the actor's live timers.
func (a *Actor) TimerIDs() []string {
	return a.timers.ToSlice()
}

// ScheduleOnce runs fn on the actor's turn after delay.
func (a *Actor) ScheduleOnce(delay time.Duration, fn func(ctx context.Context) error) (string, error) {
	if a.scheduler == nil {
		return "", gerrors.ErrSchedulerNotStarted
	}
	return a.scheduler.scheduleOnce(a, delay, fn)
}

// Schedule runs fn on the actor's turn every interval.
func (a *Actor) Schedule(interval time.Duration, fn func(ctx context.Context) error) (string, error) {
	if a.scheduler == nil {
		return "", gerrors.ErrSchedulerNotStarted
	}
	return a.scheduler.schedule(a, interval, fn)
}

// ScheduleCron runs fn on the actor's turn following a cron expression.
func (a *Actor) ScheduleCron(expression string, fn func(ctx context.Context) error) (string, error) {
	if a.scheduler == nil {
		return "", gerrors.ErrSchedulerNotStarted
	}
	return a.scheduler.scheduleCron(a, expression, fn)
}

// Unschedule cancels one of the actor's timers.
func (a *Actor) Unschedule(timerID string) error {
	if !a.timers.Contains(timerID) {
		return fmt.Errorf("timer %s: %w", timerID, gerrors.ErrTimerNotFound)
	}
	a.timers.Remove(timerID)
	if a.scheduler == nil {
		return nil
	}
	return a.scheduler.cancel(timerID)
}

// Agents returns the live agents in creation order. Call it on the actor's turn.
func (a *Actor) Agents() []Agent {
	return slices.Clone(a.ordered)
}

// agent returns the agent of type typ, creating and activating it on first
// access. It must run on the actor's turn.
func (a *Actor) agent(ctx context.Context, typ reflect.Type) (Agent, error) {
	if existing, ok := a.agents[typ]; ok {
		return existing, nil
	}
	if a.deactivated {
		return nil, fmt.Errorf("actor %s: %w", a.id, gerrors.ErrMailboxStopped)
	}

	factory, err := a.directory.registry.factory(a.Kind(), typ)
	if err != nil {
		return nil, err
	}

	agent := factory()
	if agent == nil || reflect.TypeOf(agent) != typ {
		return nil, fmt.Errorf("%s: %w", typ, gerrors.ErrAgentTypeMismatch)
	}
	agent.base().owner = a

	// registered before Active so a reentrant lookup finds it
	a.agents[typ] = agent
	a.ordered = append(a.ordered, agent)
	if err := agent.Active(ctx); err != nil {
		delete(a.agents, typ)
		a.ordered = slices.DeleteFunc(a.ordered, func(x Agent) bool { return x == agent })
		return nil, fmt.Errorf("activating %s on actor %s: %w", typ, a.id, err)
	}
	return agent, nil
}

// save flushes every agent that owns persisted state. It must run on the
// actor's turn.
func (a *Actor) save(ctx context.Context) (int, error) {
	var (
		written int
		errs    error
	)
	for _, agent := range a.ordered {
		saver, ok := agent.(Saver)
		if !ok {
			continue
		}
		ok, err := saver.SaveState(ctx)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if ok {
			written++
		}
	}
	return written, errs
}

// DeActivate tears the actor down: Inactive runs on every agent in creation
// order, timers are cancelled and the agents are dropped. A failing agent
// does not stop the others. It must run on the actor's turn.
func (a *Actor) DeActivate(ctx context.Context) error {
	if a.deactivated {
		return nil
	}
	a.deactivated = true

	var errs error
	for _, agent := range a.ordered {
		if err := agent.Inactive(ctx); err != nil {
			a.logger.Errorf("actor %s: agent %T failed to deactivate: %v", a.id, agent, err)
			errs = multierr.Append(errs, err)
		}
	}

	for _, timerID := range a.timers.ToSlice() {
		if err := a.Unschedule(timerID); err != nil {
			a.logger.Warnf("actor %s: failed to cancel timer %s: %v", a.id, timerID, err)
		}
	}

	clear(a.agents)
	a.ordered = nil
	return errs
}

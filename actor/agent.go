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
	"time"

	"github.com/tochemey/gamecore/internal/future"
)

// Agent is the callable facade of a component bound to one actor. It is
// created lazily on the owner's turn, activated once, and deactivated
// before the actor is recycled. Implementations embed AgentBase.
type Agent interface {
	// Owner returns the actor the agent is bound to.
	Owner() *Actor
	// Active runs once, on the owner's turn, right after creation. It may
	// seed default state.
	Active(ctx context.Context) error
	// Inactive runs on the owner's turn before teardown. It must release
	// what Active acquired.
	Inactive(ctx context.Context) error

	base() *AgentBase
}

// AgentBase binds an agent to its owner. Embed it in every agent.
type AgentBase struct {
	owner *Actor
}

// Owner implements Agent.
func (a *AgentBase) Owner() *Actor {
	return a.owner
}

// Active implements Agent. It does nothing.
func (a *AgentBase) Active(context.Context) error {
	return nil
}

// Inactive implements Agent. It does nothing.
func (a *AgentBase) Inactive(context.Context) error {
	return nil
}

func (a *AgentBase) base() *AgentBase {
	return a
}

// Tell queues fn on the owner's mailbox.
func (a *AgentBase) Tell(ctx context.Context, fn func(ctx context.Context) error) error {
	return a.owner.Tell(ctx, fn)
}

// SendAsync submits fn to the owner's mailbox.
func (a *AgentBase) SendAsync(ctx context.Context, fn Work) *future.Future[any] {
	return a.owner.SendAsync(ctx, fn)
}

// ScheduleOnce runs fn on the owner's turn after delay. The returned id
// cancels the timer.
func (a *AgentBase) ScheduleOnce(delay time.Duration, fn func(ctx context.Context) error) (string, error) {
	return a.owner.ScheduleOnce(delay, fn)
}

// Schedule runs fn on the owner's turn every interval.
func (a *AgentBase) Schedule(interval time.Duration, fn func(ctx context.Context) error) (string, error) {
	return a.owner.Schedule(interval, fn)
}

// ScheduleCron runs fn on the owner's turn following a cron expression.
func (a *AgentBase) ScheduleCron(expression string, fn func(ctx context.Context) error) (string, error) {
	return a.owner.ScheduleCron(expression, fn)
}

// Unschedule cancels a timer created by this agent's owner.
func (a *AgentBase) Unschedule(timerID string) error {
	return a.owner.Unschedule(timerID)
}

// Invoke runs fn on the turn of agent's owner and waits for the result.
// Called from the owner's own turn it runs inline. Agents use it to expose
// methods that are safe to call from any goroutine.
func Invoke[T any](ctx context.Context, agent Agent, fn func(ctx context.Context) (T, error)) (T, error) {
	owner := agent.Owner()
	return Ask(ctx, owner.mailbox, fn, 0)
}

// Post queues fn on the turn of agent's owner without waiting.
func Post(ctx context.Context, agent Agent, fn func(ctx context.Context) error) error {
	return agent.Owner().Tell(ctx, fn)
}

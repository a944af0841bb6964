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

// Package passivation decides when an idle actor is recycled: its agents
// are deactivated, its state flushed and it leaves the directory.
package passivation

import (
	"fmt"
	"time"
)

// Activity is the snapshot of an actor a Strategy decides on.
type Activity struct {
	// Idle is the time elapsed since the actor last ran a work item.
	Idle time.Duration
	// AutoRecycle is false while something, such as a session, pins the actor.
	AutoRecycle bool
	// Singleton is true for server singletons.
	Singleton bool
	// Queued is the number of work items waiting in the mailbox.
	Queued int64
}

// recyclable holds for every strategy: pinned actors, singletons and actors
// with pending work are never recycled.
func (a Activity) recyclable() bool {
	return a.AutoRecycle && !a.Singleton && a.Queued == 0
}

// Strategy decides whether an actor should be recycled.
type Strategy interface {
	fmt.Stringer
	// Name returns the strategy name.
	Name() string
	// ShouldRecycle reports whether the actor can be recycled now.
	ShouldRecycle(activity Activity) bool
}

// TimeBasedStrategy recycles actors that stayed idle for a given period.
type TimeBasedStrategy struct {
	timeout time.Duration
}

var _ Strategy = (*TimeBasedStrategy)(nil)

// NewTimeBasedStrategy creates a TimeBasedStrategy.
//
// Example:
//
//	strategy := NewTimeBasedStrategy(5 * time.Minute)
func NewTimeBasedStrategy(timeout time.Duration) *TimeBasedStrategy {
	return &TimeBasedStrategy{
		timeout: timeout,
	}
}

// Timeout returns the idle period after which an actor is recycled.
func (t *TimeBasedStrategy) Timeout() time.Duration {
	return t.timeout
}

// ShouldRecycle implements Strategy.
func (t *TimeBasedStrategy) ShouldRecycle(activity Activity) bool {
	return activity.recyclable() && activity.Idle >= t.timeout
}

// String returns the string representation of the TimeBasedStrategy.
func (t *TimeBasedStrategy) String() string {
	return fmt.Sprintf("Time-Based of Duration=[%s]", t.timeout)
}

// Name returns the name of the TimeBasedStrategy.
func (t *TimeBasedStrategy) Name() string {
	return "TimeBased"
}

// ImmediateStrategy recycles an actor at the first sweep after it became
// recyclable, for example right after its session was removed.
type ImmediateStrategy struct{}

var _ Strategy = (*ImmediateStrategy)(nil)

// NewImmediateStrategy creates an ImmediateStrategy.
func NewImmediateStrategy() *ImmediateStrategy {
	return &ImmediateStrategy{}
}

// ShouldRecycle implements Strategy.
func (i *ImmediateStrategy) ShouldRecycle(activity Activity) bool {
	return activity.recyclable()
}

// String returns the string representation of the ImmediateStrategy.
func (i *ImmediateStrategy) String() string {
	return "Immediate"
}

// Name returns the name of the ImmediateStrategy.
func (i *ImmediateStrategy) Name() string {
	return "Immediate"
}

// LongLivedStrategy never recycles.
type LongLivedStrategy struct{}

var _ Strategy = (*LongLivedStrategy)(nil)

// NewLongLivedStrategy creates a LongLivedStrategy.
func NewLongLivedStrategy() *LongLivedStrategy {
	return &LongLivedStrategy{}
}

// ShouldRecycle implements Strategy.
func (l *LongLivedStrategy) ShouldRecycle(Activity) bool {
	return false
}

// String returns the string representation of the LongLivedStrategy.
func (l *LongLivedStrategy) String() string {
	return "Long Lived"
}

// Name returns the name of the LongLivedStrategy.
func (l *LongLivedStrategy) Name() string {
	return "LongLived"
}

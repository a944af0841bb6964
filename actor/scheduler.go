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
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/gamecore/errors"
	"github.com/tochemey/gamecore/log"
)

// Scheduler fires actor timers. A timer never runs its callback directly:
// it Tells the callback into the owner's mailbox, so timers observe the
// same ordering as any other work.
type Scheduler struct {
	mu              sync.Mutex
	quartzScheduler quartz.Scheduler
	started         atomic.Bool
	logger          log.Logger
	stopTimeout     time.Duration
}

// NewScheduler creates a stopped Scheduler.
func NewScheduler(logger log.Logger, stopTimeout time.Duration) *Scheduler {
	quartzScheduler, _ := quartz.NewStdScheduler(quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)))
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &Scheduler{
		quartzScheduler: quartzScheduler,
		logger:          logger,
		stopTimeout:     stopTimeout,
	}
}

// Start starts the scheduler
func (x *Scheduler) Start(ctx context.Context) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.started.Load() {
		return
	}
	x.logger.Info("starting actor timers scheduler...")
	x.quartzScheduler.Start(ctx)
	x.started.Store(x.quartzScheduler.IsStarted())
	x.logger.Info("actor timers scheduler started.")
}

// Stop cancels every timer and waits for running jobs up to the stop timeout.
func (x *Scheduler) Stop(ctx context.Context) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.started.Load() {
		return
	}

	x.logger.Info("stopping actor timers scheduler...")
	_ = x.quartzScheduler.Clear()
	x.quartzScheduler.Stop()
	x.started.Store(false)

	ctx, cancel := context.WithTimeout(ctx, x.stopTimeout)
	defer cancel()
	x.quartzScheduler.Wait(ctx)
	x.logger.Info("actor timers scheduler stopped.")
}

// IsStarted reports whether timers can be registered.
func (x *Scheduler) IsStarted() bool {
	return x.started.Load()
}

func (x *Scheduler) scheduleOnce(owner *Actor, delay time.Duration, fn func(ctx context.Context) error) (string, error) {
	timerID := uuid.NewString()
	return timerID, x.register(owner, timerID, quartz.NewRunOnceTrigger(delay), func(ctx context.Context) error {
		owner.timers.Remove(timerID)
		return owner.Tell(ctx, fn)
	})
}

func (x *Scheduler) schedule(owner *Actor, interval time.Duration, fn func(ctx context.Context) error) (string, error) {
	timerID := uuid.NewString()
	return timerID, x.register(owner, timerID, quartz.NewSimpleTrigger(interval), func(ctx context.Context) error {
		return owner.Tell(ctx, fn)
	})
}

func (x *Scheduler) scheduleCron(owner *Actor, expression string, fn func(ctx context.Context) error) (string, error) {
	trigger, err := quartz.NewCronTrigger(expression)
	if err != nil {
		return "", fmt.Errorf("invalid cron expression %q: %w", expression, err)
	}
	timerID := uuid.NewString()
	return timerID, x.register(owner, timerID, trigger, func(ctx context.Context) error {
		return owner.Tell(ctx, fn)
	})
}

func (x *Scheduler) register(owner *Actor, timerID string, trigger quartz.Trigger, fire func(ctx context.Context) error) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.started.Load() {
		return gerrors.ErrSchedulerNotStarted
	}

	fnJob := job.NewFunctionJob[bool](func(ctx context.Context) (bool, error) {
		if err := fire(ctx); err != nil {
			x.logger.Warnf("actor %s: timer %s not delivered: %v", owner.ID(), timerID, err)
			return false, err
		}
		return true, nil
	})

	owner.timers.Add(timerID)
	detail := quartz.NewJobDetail(fnJob, quartz.NewJobKey(timerID))
	if err := x.quartzScheduler.ScheduleJob(detail, trigger); err != nil {
		owner.timers.Remove(timerID)
		return err
	}
	return nil
}

func (x *Scheduler) cancel(timerID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.started.Load() {
		return nil
	}
	// a one-shot timer that already fired is gone from quartz
	_ = x.quartzScheduler.DeleteJob(quartz.NewJobKey(timerID))
	return nil
}

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
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	gerrors "github.com/tochemey/gamecore/errors"
	"github.com/tochemey/gamecore/internal/metric"
	"github.com/tochemey/gamecore/internal/ticker"
	"github.com/tochemey/gamecore/internal/workerpool"
	"github.com/tochemey/gamecore/log"
	"github.com/tochemey/gamecore/passivation"
)

const (
	// DefaultSaveInterval is the period of the save cycle.
	DefaultSaveInterval = time.Minute
	// DefaultRecycleInterval is the period of the recycle sweep.
	DefaultRecycleInterval = 30 * time.Second
	// DefaultRecycleTimeout is the idle period after which an actor is recycled.
	DefaultRecycleTimeout = 10 * time.Minute
	// DefaultSaveConcurrency bounds the number of actors saved at once.
	DefaultSaveConcurrency = 64

	schedulerStopTimeout = 5 * time.Second
)

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithPool runs every mailbox on pool. The directory does not start or stop it.
func WithPool(pool *workerpool.WorkerPool) DirectoryOption {
	return func(d *Directory) {
		d.pool = pool
	}
}

// WithRegistry sets the agent registry.
func WithRegistry(registry *Registry) DirectoryOption {
	return func(d *Directory) {
		d.registry = registry
	}
}

// WithScheduler sets the timers scheduler. The directory does not start or stop it.
func WithScheduler(scheduler *Scheduler) DirectoryOption {
	return func(d *Directory) {
		d.scheduler = scheduler
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) DirectoryOption {
	return func(d *Directory) {
		d.logger = logger
	}
}

// WithMetric sets the runtime metric.
func WithMetric(rm *metric.RuntimeMetric) DirectoryOption {
	return func(d *Directory) {
		d.metric = rm
	}
}

// WithActorMailboxTimeout sets the default work item timeout of every mailbox.
func WithActorMailboxTimeout(timeout time.Duration) DirectoryOption {
	return func(d *Directory) {
		d.mailboxTimeout = timeout
	}
}

// WithActorMailboxCapacity bounds every mailbox. Zero keeps them unbounded.
func WithActorMailboxCapacity(capacity int) DirectoryOption {
	return func(d *Directory) {
		d.mailboxCapacity = capacity
	}
}

// WithPinned keeps every instance of an id for which pinned returns true
// out of recycling, whatever its own AutoRecycle flag says.
func WithPinned(pinned func(id ID) bool) DirectoryOption {
	return func(d *Directory) {
		d.pinned = pinned
	}
}

// WithSaveInterval sets the period of the save cycle. Zero disables it.
func WithSaveInterval(interval time.Duration) DirectoryOption {
	return func(d *Directory) {
		d.saveInterval = interval
	}
}

// WithSaveConcurrency bounds the number of actors saved at once.
func WithSaveConcurrency(n int) DirectoryOption {
	return func(d *Directory) {
		if n > 0 {
			d.saveConcurrency = n
		}
	}
}

// WithRecycleInterval sets the period of the recycle sweep. Zero disables it.
func WithRecycleInterval(interval time.Duration) DirectoryOption {
	return func(d *Directory) {
		d.recycleInterval = interval
	}
}

// WithRecycleStrategy sets the passivation strategy of actors of kind.
func WithRecycleStrategy(kind Kind, strategy passivation.Strategy) DirectoryOption {
	return func(d *Directory) {
		d.strategies[kind] = strategy
	}
}

// WithDefaultRecycleStrategy sets the strategy of kinds without their own.
func WithDefaultRecycleStrategy(strategy passivation.Strategy) DirectoryOption {
	return func(d *Directory) {
		d.defaultStrategy = strategy
	}
}

// Directory maps actor ids to live actors. Actors are created on first
// access and recycled once idle.
type Directory struct {
	mu     sync.RWMutex
	actors map[ID]*Actor

	registry        *Registry
	pool            *workerpool.WorkerPool
	ownsPool        bool
	scheduler       *Scheduler
	ownsScheduler   bool
	logger          log.Logger
	metric          *metric.RuntimeMetric
	mailboxTimeout  time.Duration
	mailboxCapacity int
	pinned          func(id ID) bool

	saveInterval    time.Duration
	saveConcurrency int
	recycleInterval time.Duration
	defaultStrategy passivation.Strategy
	strategies      map[Kind]passivation.Strategy

	started atomic.Bool
	stopped atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewDirectory creates a Directory. Without WithPool and WithScheduler it
// owns its own pool and scheduler, started and stopped with it.
func NewDirectory(opts ...DirectoryOption) *Directory {
	d := &Directory{
		actors:          make(map[ID]*Actor),
		logger:          log.DefaultLogger,
		mailboxTimeout:  DefaultMailboxTimeout,
		saveInterval:    DefaultSaveInterval,
		saveConcurrency: DefaultSaveConcurrency,
		recycleInterval: DefaultRecycleInterval,
		defaultStrategy: passivation.NewTimeBasedStrategy(DefaultRecycleTimeout),
		strategies:      make(map[Kind]passivation.Strategy),
		stopCh:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.registry == nil {
		d.registry = NewRegistry()
	}
	if d.pool == nil {
		d.pool = workerpool.New()
		d.ownsPool = true
	}
	if d.scheduler == nil {
		d.scheduler = NewScheduler(d.logger, schedulerStopTimeout)
		d.ownsScheduler = true
	}
	return d
}

// Registry returns the agent registry.
func (d *Directory) Registry() *Registry {
	return d.registry
}

// Start starts the owned pool and scheduler and the background save and
// recycle loops.
func (d *Directory) Start(ctx context.Context) error {
	if d.stopped.Load() {
		return gerrors.ErrDirectoryStopped
	}
	if !d.started.CompareAndSwap(false, true) {
		return nil
	}
	if d.ownsPool {
		d.pool.Start()
	}
	if d.ownsScheduler {
		d.scheduler.Start(ctx)
	}

	ctx = context.WithoutCancel(ctx)
	if d.saveInterval > 0 {
		d.loop(d.saveInterval, func() {
			if _, err := d.SaveAll(ctx); err != nil {
				d.logger.Errorf("save cycle failed: %v", err)
			}
		})
	}
	if d.recycleInterval > 0 {
		d.loop(d.recycleInterval, func() {
			d.sweep(ctx)
		})
	}

	d.logger.Infof("actor directory started (save=%s, recycle=%s)", d.saveInterval, d.recycleInterval)
	return nil
}

// Stop stops the background loops, flushes and deactivates every actor,
// then releases the owned pool and scheduler. The directory cannot be
// restarted.
func (d *Directory) Stop(ctx context.Context) error {
	if !d.stopped.CompareAndSwap(false, true) {
		return nil
	}
	close(d.stopCh)
	d.wg.Wait()

	var (
		mu   sync.Mutex
		errs error
	)
	group := new(errgroup.Group)
	group.SetLimit(d.saveConcurrency)
	for _, a := range d.snapshot() {
		group.Go(func() error {
			_, err := a.mailbox.Enqueue(ctx, func(ctx context.Context) (any, error) {
				_, saveErr := a.save(ctx)
				return nil, multierr.Combine(saveErr, d.teardown(ctx, a))
			}, true, 0).Await(ctx)
			if err != nil && !errors.Is(err, gerrors.ErrMailboxStopped) {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("actor %s: %w", a.id, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = group.Wait()

	d.mu.Lock()
	for id, a := range d.actors {
		a.mailbox.Stop()
		delete(d.actors, id)
	}
	d.mu.Unlock()

	if d.ownsScheduler {
		d.scheduler.Stop(ctx)
	}
	if d.ownsPool && d.started.Load() {
		d.pool.Stop()
	}
	d.logger.Info("actor directory stopped")
	return errs
}

// GetOrCreate returns the live actor of id, creating it when absent.
func (d *Directory) GetOrCreate(ctx context.Context, id ID) (*Actor, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%d: %w", int64(id), gerrors.ErrInvalidActorID)
	}
	if d.stopped.Load() {
		return nil, gerrors.ErrDirectoryStopped
	}

	d.mu.RLock()
	a, ok := d.actors[id]
	d.mu.RUnlock()
	if ok && !a.mailbox.IsStopped() {
		return a, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped.Load() {
		return nil, gerrors.ErrDirectoryStopped
	}
	if a, ok := d.actors[id]; ok && !a.mailbox.IsStopped() {
		return a, nil
	}

	a = newActor(id, d.newMailbox(id), d, d.scheduler, d.logger)
	d.actors[id] = a
	d.metric.ActorActivated(ctx, uint16(id.Kind()))
	d.logger.Debugf("actor %s activated", id)
	return a, nil
}

// Get returns the live actor of id.
func (d *Directory) Get(id ID) (*Actor, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.actors[id]
	return a, ok
}

// GetComponentAgent returns the agent of type typ bound to actor id,
// creating the actor and the agent on first access. Called from the
// actor's own turn it runs inline.
func (d *Directory) GetComponentAgent(ctx context.Context, id ID, typ reflect.Type) (Agent, error) {
	var err error
	// the actor may get recycled between lookup and submission: retry once
	// on a fresh instance
	for range 2 {
		var a *Actor
		a, err = d.GetOrCreate(ctx, id)
		if err != nil {
			return nil, err
		}

		var agent Agent
		agent, err = Ask(ctx, a.mailbox, func(ctx context.Context) (Agent, error) {
			return a.Current().agent(ctx, typ)
		}, 0)
		if err == nil {
			return agent, nil
		}
		if !errors.Is(err, gerrors.ErrMailboxStopped) {
			return nil, err
		}
	}
	return nil, err
}

// GetAgent is the typed form of GetComponentAgent.
func GetAgent[T Agent](ctx context.Context, d *Directory, id ID) (T, error) {
	var zero T
	agent, err := d.GetComponentAgent(ctx, id, AgentType[T]())
	if err != nil {
		return zero, err
	}
	typed, ok := agent.(T)
	if !ok {
		return zero, fmt.Errorf("%T: %w", agent, gerrors.ErrAgentTypeMismatch)
	}
	return typed, nil
}

// Recycle flushes and deactivates actor id on its turn, after the work
// already queued, then drops it. Called from a call chain the actor takes
// part in, it only queues the recycle.
func (d *Directory) Recycle(ctx context.Context, id ID) error {
	a, ok := d.Get(id)
	if !ok {
		return fmt.Errorf("actor %s: %w", id, gerrors.ErrActorNotFound)
	}

	result := a.mailbox.Enqueue(ctx, func(ctx context.Context) (any, error) {
		return nil, d.recycle(ctx, a, 0)
	}, true, 0)

	// waiting from a chain the actor is part of would deadlock
	if cc, ok := CallContextFrom(ctx); ok && (cc.ActorID == id || !a.mailbox.NeedEnqueue(cc.ChainID)) {
		return nil
	}
	_, err := result.Await(ctx)
	return err
}

// SaveAll flushes every live actor on its own turn, a bounded number at a
// time. It returns the number of records written.
func (d *Directory) SaveAll(ctx context.Context) (int, error) {
	var (
		mu      sync.Mutex
		written int
		errs    error
	)
	group := new(errgroup.Group)
	group.SetLimit(d.saveConcurrency)
	for _, a := range d.snapshot() {
		group.Go(func() error {
			n, err := Ask(ctx, a.mailbox, a.save, 0)
			mu.Lock()
			defer mu.Unlock()
			written += n
			if err != nil && !errors.Is(err, gerrors.ErrMailboxStopped) {
				errs = multierr.Append(errs, fmt.Errorf("actor %s: %w", a.id, err))
			}
			return nil
		})
	}
	_ = group.Wait()
	return written, errs
}

// Range calls fn for each live actor until it returns false.
func (d *Directory) Range(fn func(a *Actor) bool) {
	for _, a := range d.snapshot() {
		if !fn(a) {
			return
		}
	}
}

// Len returns the number of live actors.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.actors)
}

func (d *Directory) newMailbox(id ID) *Mailbox {
	opts := []MailboxOption{
		WithMailboxLogger(d.logger),
		WithMailboxMetric(d.metric),
		WithMailboxTimeout(d.mailboxTimeout),
	}
	if d.mailboxCapacity > 0 {
		opts = append(opts, WithMailboxCapacity(d.mailboxCapacity))
	}
	return NewMailbox(id, d.pool, opts...)
}

func (d *Directory) snapshot() []*Actor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	actors := make([]*Actor, 0, len(d.actors))
	for _, a := range d.actors {
		actors = append(actors, a)
	}
	return actors
}

func (d *Directory) strategy(kind Kind) passivation.Strategy {
	if strategy, ok := d.strategies[kind]; ok {
		return strategy
	}
	return d.defaultStrategy
}

func (d *Directory) loop(interval time.Duration, fn func()) {
	tk := ticker.New(interval)
	tk.Start()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer tk.Stop()
		for {
			select {
			case <-d.stopCh:
				return
			case <-tk.Ticks:
				fn()
			}
		}
	}()
}

// sweep queues a recycle on every actor its strategy deems idle. The
// decision is checked again on the actor's turn.
func (d *Directory) sweep(ctx context.Context) {
	now := time.Now()
	for _, a := range d.snapshot() {
		activity := passivation.Activity{
			Idle:        now.Sub(a.LastActive()),
			AutoRecycle: a.AutoRecycle(),
			Singleton:   a.id.IsSingleton(),
			Queued:      a.mailbox.Len(),
		}
		if !d.strategy(a.Kind()).ShouldRecycle(activity) {
			continue
		}
		expected := a.mailbox.Turns() + 1
		a.mailbox.Enqueue(ctx, func(ctx context.Context) (any, error) {
			return nil, d.recycle(ctx, a, expected)
		}, true, 0)
	}
}

// recycle runs on the actor's turn. A non zero expectedTurn makes it a
// sweep decision, abandoned when the actor ran anything else since the
// sweep or got pinned meanwhile.
func (d *Directory) recycle(ctx context.Context, a *Actor, expectedTurn int64) error {
	if a.deactivated {
		return nil
	}
	if expectedTurn > 0 {
		if a.mailbox.Turns() != expectedTurn || a.mailbox.Len() > 0 || !a.AutoRecycle() {
			return nil
		}
	}

	if _, err := a.save(ctx); err != nil {
		d.logger.Errorf("actor %s: not recycled, save failed: %v", a.id, err)
		return err
	}
	if err := d.teardown(ctx, a); err != nil {
		return err
	}
	d.metric.ActorRecycled(ctx, uint16(a.Kind()))
	d.logger.Debugf("actor %s recycled", a.id)
	return nil
}

// teardown deactivates a and removes it from the directory. It runs on the
// actor's turn. Work queued behind it moves to a fresh instance of the same
// id; once the directory is stopping it fails with ErrMailboxStopped.
func (d *Directory) teardown(ctx context.Context, a *Actor) error {
	err := a.DeActivate(ctx)

	d.mu.Lock()
	if current, ok := d.actors[a.id]; ok && current == a {
		delete(d.actors, a.id)
	}
	d.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	a.mailbox.stopAndForward(func(item *workItem) error {
		if d.stopped.Load() {
			return gerrors.ErrMailboxStopped
		}
		next, err := d.GetOrCreate(ctx, a.id)
		if err != nil {
			return err
		}
		return next.mailbox.push(item)
	})
	return err
}

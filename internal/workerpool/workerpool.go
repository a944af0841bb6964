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

// Package workerpool provides the sharded goroutine pool every mailbox
// drains on. Goroutines are reused across tasks and released after they
// have been idle for a while.
package workerpool

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tochemey/gamecore/internal/ticker"
)

const (
	maxShards = 128

	workerStateIdle    int32 = 0
	workerStateWorking int32 = 1
	workerStateClosed  int32 = 2
)

// WorkerPool runs submitted tasks on reusable goroutines.
type WorkerPool struct {
	idleTimeout    time.Duration
	numShards      int
	panicHandler   func(any)
	shards         []*shard
	mutex          sync.RWMutex
	started        atomic.Bool
	stopped        atomic.Bool
	spawnedWorkers atomic.Int64
	sweeper        *ticker.Ticker
	stopCh         chan struct{}
}

type worker struct {
	tasks    chan func()
	shard    *shard
	lastUsed atomic.Int64
	state    atomic.Int32
}

type shard struct {
	pool    *WorkerPool
	mu      sync.Mutex
	idle    []*worker // stack; the bottom holds the longest idle workers
	stopped bool
}

// New creates a WorkerPool. Start must be called before submitting work.
func New(opts ...Option) *WorkerPool {
	wp := &WorkerPool{
		idleTimeout: 10 * time.Second,
		numShards:   1,
	}

	for _, opt := range opts {
		opt.Apply(wp)
	}

	if wp.numShards < 1 {
		wp.numShards = 1
	} else if wp.numShards > maxShards {
		wp.numShards = maxShards
	}
	return wp
}

// Start allocates the shards and starts the idle sweeper. It is idempotent.
func (wp *WorkerPool) Start() {
	wp.mutex.Lock()
	defer wp.mutex.Unlock()
	if wp.started.Load() {
		return
	}

	wp.shards = make([]*shard, wp.numShards)
	for i := range wp.shards {
		wp.shards[i] = &shard{pool: wp, idle: make([]*worker, 0, 64)}
	}

	wp.stopCh = make(chan struct{})
	wp.sweeper = ticker.New(wp.idleTimeout)
	wp.sweeper.Start()
	go wp.sweep(wp.sweeper.Ticks, wp.stopCh)
	wp.started.Store(true)
}

// Stop releases every idle worker. Tasks already running finish normally;
// their workers exit once done. It is idempotent.
func (wp *WorkerPool) Stop() {
	wp.mutex.Lock()
	defer wp.mutex.Unlock()
	if !wp.started.Load() || wp.stopped.Swap(true) {
		return
	}

	close(wp.stopCh)
	wp.sweeper.Stop()
	for _, s := range wp.shards {
		s.mu.Lock()
		s.stopped = true
		for i, w := range s.idle {
			w.close()
			s.idle[i] = nil
		}
		s.idle = s.idle[:0]
		s.mu.Unlock()
	}
}

// SubmitWork hands the task to a worker. It returns false when the pool is
// not running, in which case the task is not executed.
func (wp *WorkerPool) SubmitWork(task func()) bool {
	wp.mutex.RLock()
	if !wp.started.Load() || wp.stopped.Load() {
		wp.mutex.RUnlock()
		return false
	}
	s := wp.shards[rand.IntN(wp.numShards)]
	wp.mutex.RUnlock()
	return s.dispatch(task)
}

// SpawnedWorkers returns the number of live worker goroutines.
func (wp *WorkerPool) SpawnedWorkers() int {
	return int(wp.spawnedWorkers.Load())
}

func (s *shard) dispatch(task func()) bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}

	for n := len(s.idle); n > 0; n = len(s.idle) {
		w := s.idle[n-1]
		s.idle[n-1] = nil
		s.idle = s.idle[:n-1]
		if w.state.CompareAndSwap(workerStateIdle, workerStateWorking) {
			s.mu.Unlock()
			w.tasks <- task
			return true
		}
	}
	s.mu.Unlock()

	w := &worker{tasks: make(chan func()), shard: s}
	w.state.Store(workerStateWorking)
	go w.run()
	w.tasks <- task
	return true
}

// release puts the worker back on the idle stack; false means the worker must exit.
func (s *shard) release(w *worker) bool {
	w.lastUsed.Store(time.Now().UnixNano())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	w.state.Store(workerStateIdle)
	s.idle = append(s.idle, w)
	return true
}

func (w *worker) run() {
	pool := w.shard.pool
	pool.spawnedWorkers.Add(1)
	defer pool.spawnedWorkers.Add(-1)

	for task := range w.tasks {
		w.execute(task)
		if !w.shard.release(w) {
			return
		}
	}
}

func (w *worker) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			if handler := w.shard.pool.panicHandler; handler != nil {
				handler(r)
			}
		}
	}()
	task()
}

func (w *worker) close() {
	if w.state.Swap(workerStateClosed) != workerStateClosed {
		close(w.tasks)
	}
}

// sweep periodically closes workers that stayed idle longer than idleTimeout.
func (wp *WorkerPool) sweep(ticks <-chan time.Time, stopCh <-chan struct{}) {
	for {
		select {
		case <-stopCh:
			return
		case <-ticks:
		}

		cutoff := time.Now().Add(-wp.idleTimeout).UnixNano()
		for _, s := range wp.shards {
			s.mu.Lock()
			expired := 0
			for expired < len(s.idle) && s.idle[expired].lastUsed.Load() < cutoff {
				expired++
			}
			if expired == 0 {
				s.mu.Unlock()
				continue
			}

			stale := make([]*worker, expired)
			copy(stale, s.idle[:expired])
			remaining := copy(s.idle, s.idle[expired:])
			for i := remaining; i < len(s.idle); i++ {
				s.idle[i] = nil
			}
			s.idle = s.idle[:remaining]
			s.mu.Unlock()

			for _, w := range stale {
				if w.state.CompareAndSwap(workerStateIdle, workerStateClosed) {
					close(w.tasks)
				}
			}
		}
	}
}

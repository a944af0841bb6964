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
	"sync"
	"sync/atomic"

	gods "github.com/Workiva/go-datastructures/queue"

	gerrors "github.com/tochemey/gamecore/errors"
)

// queue is the storage behind a Mailbox. It is safe for many producers and
// a single consumer; Dequeue never blocks and returns nil when empty.
type queue interface {
	Enqueue(item *workItem) error
	Dequeue() *workItem
	IsEmpty() bool
}

type mpscNode struct {
	next atomic.Pointer[mpscNode]
	data *workItem
}

var mpscNodePool = sync.Pool{New: func() any { return new(mpscNode) }}

// unboundedQueue is a lock-free MPSC linked queue. Producers swap the tail
// and link the previous node; the single consumer walks from the head.
type unboundedQueue struct {
	head  atomic.Pointer[mpscNode] // consumer only
	_pad1 [64]byte
	tail  atomic.Pointer[mpscNode] // producers only
	_pad2 [64]byte
}

var _ queue = (*unboundedQueue)(nil)

func newUnboundedQueue() *unboundedQueue {
	dummy := mpscNodePool.Get().(*mpscNode)
	dummy.next.Store(nil)
	dummy.data = nil
	q := &unboundedQueue{}
	q.head.Store(dummy)
	q.tail.Store(dummy)
	return q
}

func (q *unboundedQueue) Enqueue(item *workItem) error {
	n := mpscNodePool.Get().(*mpscNode)
	n.next.Store(nil)
	n.data = item
	prev := q.tail.Swap(n)
	prev.next.Store(n)
	return nil
}

func (q *unboundedQueue) Dequeue() *workItem {
	head := q.head.Load()
	next := head.next.Load()
	if next == nil {
		return nil
	}
	q.head.Store(next)
	item := next.data
	next.data = nil

	head.next.Store(nil)
	mpscNodePool.Put(head)
	return item
}

func (q *unboundedQueue) IsEmpty() bool {
	return q.head.Load().next.Load() == nil
}

// boundedQueue is a fixed capacity ring buffer. A full queue rejects new
// items instead of blocking the producer, which could be the consumer
// itself during a reentrant call.
type boundedQueue struct {
	ring *gods.RingBuffer
}

var _ queue = (*boundedQueue)(nil)

func newBoundedQueue(capacity int) *boundedQueue {
	return &boundedQueue{ring: gods.NewRingBuffer(uint64(capacity))}
}

func (q *boundedQueue) Enqueue(item *workItem) error {
	ok, err := q.ring.Offer(item)
	if err != nil {
		return gerrors.ErrMailboxStopped
	}
	if !ok {
		return gerrors.ErrMailboxFull
	}
	return nil
}

func (q *boundedQueue) Dequeue() *workItem {
	if q.ring.Len() == 0 {
		return nil
	}
	raw, err := q.ring.Get()
	if err != nil {
		return nil
	}
	item, _ := raw.(*workItem)
	return item
}

func (q *boundedQueue) IsEmpty() bool {
	return q.ring.Len() == 0
}

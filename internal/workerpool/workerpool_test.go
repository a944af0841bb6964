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

package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWorkerPool(t *testing.T) {
	t.Run("With tasks executed", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		pool := New(WithNumShards(4))
		pool.Start()

		var counter atomic.Int64
		var wg sync.WaitGroup
		for range 100 {
			wg.Add(1)
			require.True(t, pool.SubmitWork(func() {
				defer wg.Done()
				counter.Add(1)
			}))
		}
		wg.Wait()
		assert.EqualValues(t, 100, counter.Load())
		pool.Stop()
		require.Eventually(t, func() bool { return pool.SpawnedWorkers() == 0 }, time.Second, 10*time.Millisecond)
	})
	t.Run("With workers reused", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		pool := New()
		pool.Start()
		for range 10 {
			done := make(chan struct{})
			require.True(t, pool.SubmitWork(func() { close(done) }))
			<-done
			require.Eventually(t, func() bool { return len(pool.shards[0].idle) == 1 }, time.Second, time.Millisecond)
		}
		assert.Equal(t, 1, pool.SpawnedWorkers())
		pool.Stop()
		require.Eventually(t, func() bool { return pool.SpawnedWorkers() == 0 }, time.Second, 10*time.Millisecond)
	})
	t.Run("With idle workers released", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		pool := New(WithIdleTimeout(20 * time.Millisecond))
		pool.Start()
		done := make(chan struct{})
		require.True(t, pool.SubmitWork(func() { close(done) }))
		<-done
		require.Eventually(t, func() bool { return pool.SpawnedWorkers() == 0 }, time.Second, 10*time.Millisecond)
		pool.Stop()
	})
	t.Run("With panic recovered", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		recovered := make(chan any, 1)
		pool := New(WithPanicHandler(func(r any) { recovered <- r }))
		pool.Start()
		require.True(t, pool.SubmitWork(func() { panic("boom") }))
		select {
		case r := <-recovered:
			assert.Equal(t, "boom", r)
		case <-time.After(time.Second):
			t.Fatal("panic not recovered")
		}

		done := make(chan struct{})
		require.True(t, pool.SubmitWork(func() { close(done) }))
		<-done
		pool.Stop()
		require.Eventually(t, func() bool { return pool.SpawnedWorkers() == 0 }, time.Second, 10*time.Millisecond)
	})
	t.Run("With submit rejected when not running", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		pool := New()
		assert.False(t, pool.SubmitWork(func() {}))
		pool.Start()
		pool.Stop()
		pool.Stop()
		assert.False(t, pool.SubmitWork(func() {}))
	})
}

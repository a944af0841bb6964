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

package future

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestFuture(t *testing.T) {
	t.Run("With completion", func(t *testing.T) {
		f := New[int]()
		assert.False(t, f.IsDone())
		require.True(t, f.Complete(10))
		assert.False(t, f.Complete(20))
		assert.False(t, f.Fail(errors.New("late")))

		v, err := f.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 10, v)
		assert.True(t, f.IsDone())
	})
	t.Run("With failure", func(t *testing.T) {
		boom := errors.New("boom")
		v, err := Failed[string](boom).Await(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, v)
	})
	t.Run("With context cancelled", func(t *testing.T) {
		f := New[int]()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := f.Await(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		// the future is still usable after the caller gave up
		f.Complete(1)
		v, err := f.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})
	t.Run("With AwaitTimeout", func(t *testing.T) {
		_, err := New[int]().AwaitTimeout(10 * time.Millisecond)
		assert.ErrorIs(t, err, ErrFutureTimeout)

		v, err := Completed(3).AwaitTimeout(time.Second)
		require.NoError(t, err)
		assert.Equal(t, 3, v)
	})
	t.Run("With Go", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		f := Go(context.Background(), func(context.Context) (int, error) {
			return 42, nil
		})
		v, err := f.AwaitTimeout(time.Second)
		require.NoError(t, err)
		assert.Equal(t, 42, v)

		p := Go(context.Background(), func(context.Context) (int, error) {
			panic("kaboom")
		})
		_, err = p.AwaitTimeout(time.Second)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kaboom")
	})
}

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

package storage

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	gerrors "github.com/tochemey/gamecore/errors"
)

func startRedis(t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func TestRedis(t *testing.T) {
	addr := startRedis(t)

	t.Run("With backend behaviour", func(t *testing.T) {
		backend := NewRedis(redis.NewClient(&redis.Options{Addr: addr}), "test:behaviour:")
		t.Cleanup(func() { _ = backend.Close() })
		testBackend(t, backend)
	})
	t.Run("With large collection scan", func(t *testing.T) {
		ctx := context.Background()
		backend := NewRedis(redis.NewClient(&redis.Options{Addr: addr}), "test:scan:")
		t.Cleanup(func() { _ = backend.Close() })

		for id := range int64(1000) {
			require.NoError(t, backend.Upsert(ctx, "c", id, []byte{byte(id)}))
		}
		count := 0
		require.NoError(t, backend.Scan(ctx, "c", func(int64, []byte) bool {
			count++
			return true
		}))
		assert.Equal(t, 1000, count)
	})
	t.Run("With closed client", func(t *testing.T) {
		backend := NewRedis(redis.NewClient(&redis.Options{Addr: addr}), "test:closed:")
		require.NoError(t, backend.Close())
		require.NoError(t, backend.Close())
		err := backend.Upsert(context.Background(), "c", 1, []byte("x"))
		assert.ErrorIs(t, err, gerrors.ErrStoreClosed)
	})
}

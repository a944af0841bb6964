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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/gamecore/errors"
	"github.com/tochemey/gamecore/log"
)

func TestConfig(t *testing.T) {
	t.Run("With defaults", func(t *testing.T) {
		cfg := Default()
		require.NoError(t, cfg.Validate())
		assert.EqualValues(t, 1, cfg.ServerID)
		assert.Equal(t, log.InfoLevel, cfg.Level())
		assert.Equal(t, DriverMemory, cfg.Storage.Driver)
		assert.Equal(t, 30*time.Second, cfg.Mailbox.Timeout)
	})
	t.Run("With options", func(t *testing.T) {
		cfg := New(
			WithServerID(7),
			WithLogLevel("debug"),
			WithMailboxTimeout(time.Second),
			WithSaveInterval(5*time.Second),
			WithRecycle(StrategyImmediate, 0, time.Second),
			WithStorage(StorageConfig{Driver: DriverBolt, Path: "/tmp/game.db", Compression: "zstd"}),
			WithNATS("nats://127.0.0.1:4222", "game.node7"),
		)
		require.NoError(t, cfg.Validate())
		assert.EqualValues(t, 7, cfg.ServerID)
		assert.Equal(t, log.DebugLevel, cfg.Level())
		assert.Equal(t, time.Second, cfg.Mailbox.Timeout)
		assert.Equal(t, 5*time.Second, cfg.Persistence.SaveInterval)
		assert.Equal(t, StrategyImmediate, cfg.Recycle.Strategy)
		assert.Equal(t, "game.node7", cfg.NATS.Subject)
	})
	t.Run("With every violation reported", func(t *testing.T) {
		cfg := New(
			WithServerID(20000),
			WithLogLevel("loud"),
			WithRecycle("sometimes", 0, -time.Second),
			WithStorage(StorageConfig{Driver: DriverRedis, RedisAddr: "nowhere", Compression: "lz4"}),
			WithNATS("http://broker", "bad subject"),
		)
		err := cfg.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrInvalidConfig)
		for _, fragment := range []string{"server_id", "log_level", "recycle.strategy", "recycle.check_interval", "storage.redis_addr", "lz4", "nats.url", "nats.subject"} {
			assert.Contains(t, err.Error(), fragment)
		}
	})
	t.Run("With bolt driver missing its path", func(t *testing.T) {
		cfg := New(WithStorage(StorageConfig{Driver: DriverBolt}))
		assert.ErrorIs(t, cfg.Validate(), gerrors.ErrInvalidConfig)

		cfg = New(WithStorage(StorageConfig{Driver: "mongo"}))
		assert.ErrorIs(t, cfg.Validate(), gerrors.ErrInvalidConfig)
	})
}

func TestLoad(t *testing.T) {
	t.Run("With yaml over defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gamecore.yaml")
		content := `
server_id: 12
log_level: warn
mailbox:
  timeout: 5s
  capacity: 1024
persistence:
  save_interval: 2m
recycle:
  strategy: time-based
  idle_after: 15m
storage:
  driver: redis
  redis_addr: 127.0.0.1:6379
  compression: brotli
  cache: true
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.EqualValues(t, 12, cfg.ServerID)
		assert.Equal(t, log.WarningLevel, cfg.Level())
		assert.Equal(t, 5*time.Second, cfg.Mailbox.Timeout)
		assert.Equal(t, 1024, cfg.Mailbox.Capacity)
		assert.Equal(t, 2*time.Minute, cfg.Persistence.SaveInterval)
		assert.Equal(t, 15*time.Minute, cfg.Recycle.IdleAfter)
		assert.Equal(t, DriverRedis, cfg.Storage.Driver)
		assert.True(t, cfg.Storage.Cache)
		// untouched sections keep their defaults
		assert.Equal(t, 10*time.Second, cfg.RPC.CallTimeout)
		assert.Equal(t, "gamecore", cfg.Storage.RedisPrefix)
	})
	t.Run("With environment overrides", func(t *testing.T) {
		t.Setenv("GAMECORE_SERVER_ID", "33")
		t.Setenv("GAMECORE_LOG_LEVEL", "error")
		t.Setenv("GAMECORE_NATS_URL", "nats://10.0.0.1:4222")

		cfg, err := Parse([]byte("server_id: 2\n"))
		require.NoError(t, err)
		assert.EqualValues(t, 33, cfg.ServerID)
		assert.Equal(t, log.ErrorLevel, cfg.Level())
		assert.Equal(t, "nats://10.0.0.1:4222", cfg.NATS.URL)

		t.Setenv("GAMECORE_SERVER_ID", "many")
		_, err = Parse(nil)
		assert.ErrorIs(t, err, gerrors.ErrInvalidConfig)
	})
	t.Run("With invalid documents", func(t *testing.T) {
		_, err := Parse([]byte("server_id: [1, 2]"))
		assert.ErrorIs(t, err, gerrors.ErrInvalidConfig)

		_, err = Parse([]byte("storage:\n  driver: cassandra\n"))
		assert.ErrorIs(t, err, gerrors.ErrInvalidConfig)

		_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

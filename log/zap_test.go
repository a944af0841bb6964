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

package log

import (
	"bytes"
	"encoding/json"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZapLogger(t *testing.T) {
	t.Run("With Debug level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(DebugLevel, buffer)
		require.Equal(t, DebugLevel, logger.LogLevel())

		logger.Debugf("actor %d activated", 42)
		flushLogger(t, logger)

		msg, err := extractField(buffer.Bytes(), "msg")
		require.NoError(t, err)
		assert.Equal(t, "actor 42 activated", msg)

		lvl, err := extractField(buffer.Bytes(), "level")
		require.NoError(t, err)
		assert.Equal(t, DebugLevel.String(), lvl)
	})
	t.Run("With Info level drops debug entries", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		require.False(t, logger.Enabled(DebugLevel))
		require.True(t, logger.Enabled(ErrorLevel))

		logger.Debug("hidden")
		flushLogger(t, logger)
		require.Empty(t, buffer.String())

		logger.Warn("visible")
		flushLogger(t, logger)
		lvl, err := extractField(buffer.Bytes(), "level")
		require.NoError(t, err)
		assert.Equal(t, WarningLevel.String(), lvl)
	})
	t.Run("With unknown level falls back to debug", func(t *testing.T) {
		logger := NewZap(Level(42), new(bytes.Buffer))
		require.Equal(t, DebugLevel, logger.LogLevel())
	})
	t.Run("With structured fields", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		sub := logger.With("actor", int64(7), "kind", "player", "orphan")
		sub.Info("saved")
		flushLogger(t, sub.(*Zap))

		var m map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(buffer.Bytes(), &m))
		require.Contains(t, m, "actor")
		require.Contains(t, m, "kind")
		require.Contains(t, m, "_")
	})
	t.Run("With no fields returns same logger", func(t *testing.T) {
		logger := NewZap(InfoLevel, new(bytes.Buffer))
		assert.Same(t, logger, logger.With())
		assert.Same(t, logger, logger.With(1, 2))
	})
	t.Run("With file output buffered until flush", func(t *testing.T) {
		file, err := os.CreateTemp(t.TempDir(), "log")
		require.NoError(t, err)
		defer file.Close()

		logger := NewZap(InfoLevel, file)
		logger.Info("buffered")
		require.NoError(t, logger.Flush())

		content, err := os.ReadFile(file.Name())
		require.NoError(t, err)
		msg, err := extractField(content, "msg")
		require.NoError(t, err)
		assert.Equal(t, "buffered", msg)
	})
	t.Run("With turn scoped fields", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		turn := ForTurn(logger, stringer("player/1/7"), 99)
		turn.Error("stuck")
		flushLogger(t, turn.(*Zap))

		actor, err := extractField(buffer.Bytes(), "actor")
		require.NoError(t, err)
		assert.Equal(t, "player/1/7", actor)
		var m map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(buffer.Bytes(), &m))
		assert.Equal(t, "99", string(m["chain"]))
	})
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"debug", "info", "warn", "warning", "error", "fatal", "panic", " INFO "} {
		level, err := ParseLevel(name)
		require.NoError(t, err, name)
		require.NotEqual(t, InvalidLevel, level)
	}
	level, err := ParseLevel("verbose")
	require.Error(t, err)
	assert.Equal(t, InvalidLevel, level)
	assert.Equal(t, "invalid", level.String())
}

func TestDiscardLogger(t *testing.T) {
	logger := DiscardLogger
	logger.Info("nothing")
	logger.Errorf("nothing %d", 1)
	assert.Equal(t, InfoLevel, logger.LogLevel())
	assert.False(t, logger.Enabled(ErrorLevel))
	assert.False(t, logger.Enabled(PanicLevel))
	assert.Equal(t, DiscardLogger, logger.With("k", "v"))
	assert.Equal(t, DiscardLogger, ForTurn(logger, stringer("server/1/0"), 1))
	assert.NoError(t, logger.Flush())
}

type stringer string

func (s stringer) String() string { return string(s) }

func flushLogger(t *testing.T, logger *Zap) {
	t.Helper()
	require.NoError(t, logger.logger.Sync())
}

func extractField(raw []byte, key string) (string, error) {
	line := bytes.SplitN(bytes.TrimSpace(raw), []byte("\n"), 2)[0]
	c := make(map[string]json.RawMessage)
	if err := json.Unmarshal(line, &c); err != nil {
		return "", err
	}
	v, ok := c[key]
	if !ok {
		return "", nil
	}
	return strconv.Unquote(string(v))
}

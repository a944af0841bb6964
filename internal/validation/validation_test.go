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

package validation

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestChain(t *testing.T) {
	t.Run("With all errors", func(t *testing.T) {
		chain := New(AllErrors()).
			AddRule("mailbox.capacity", false, "must not be negative").
			AddRule("workers.shards", true, "must not be negative").
			AddRule("server_id", false, "must not exceed 8191")
		err := chain.Validate()
		require.Error(t, err)
		assert.Len(t, multierr.Errors(err), 2)
		assert.EqualError(t, err, "mailbox.capacity must not be negative; server_id must not exceed 8191")

		// running twice must not accumulate violations
		assert.Len(t, multierr.Errors(chain.Validate()), 2)
	})
	t.Run("With fail fast", func(t *testing.T) {
		err := New(FailFast()).
			AddRule("rpc.call_timeout", false, "must be positive").
			AddRule("rpc.sweep_interval", false, "must be positive").
			Validate()
		assert.EqualError(t, err, "rpc.call_timeout must be positive")
	})
	t.Run("With no violation", func(t *testing.T) {
		assert.NoError(t, New().AddRule("storage.path", true, "is required").Validate())
	})
}

func TestRuleValidator(t *testing.T) {
	assert.NoError(t, NewRuleValidator("storage.redis_db", true, "must not be negative").Validate())
	assert.EqualError(t, NewRuleValidator("storage.redis_db", false, "must not be negative").Validate(),
		"storage.redis_db must not be negative")
}

func TestAddressValidator(t *testing.T) {
	t.Run("With happy path", func(t *testing.T) {
		assert.NoError(t, NewAddressValidator("redis", "127.0.0.1:6379").Validate())
	})
	t.Run("With zero port", func(t *testing.T) {
		assert.NoError(t, NewAddressValidator("redis", "localhost:0").Validate())
	})
	t.Run("With invalid port", func(t *testing.T) {
		assert.Error(t, NewAddressValidator("redis", "127.0.0.1:-1").Validate())
		assert.Error(t, NewAddressValidator("redis", "127.0.0.1:655387").Validate())
		assert.Error(t, NewAddressValidator("redis", "127.0.0.1:abc").Validate())
	})
	t.Run("With missing host", func(t *testing.T) {
		err := NewAddressValidator("redis", ":6379").Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis")
	})
}

func TestPatternValidator(t *testing.T) {
	pattern := regexp.MustCompile(`^nats://`)
	assert.NoError(t, NewPatternValidator("nats.url", pattern, "nats://127.0.0.1:4222").Validate())
	assert.Error(t, NewPatternValidator("nats.url", pattern, "http://127.0.0.1:4222").Validate())
}

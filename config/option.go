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
	"time"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(cfg *Config)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*Config)

// Apply applies the options to Config
func (f OptionFunc) Apply(c *Config) {
	f(c)
}

// WithServerID sets the server id.
func WithServerID(id uint16) Option {
	return OptionFunc(func(c *Config) {
		c.ServerID = id
	})
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) Option {
	return OptionFunc(func(c *Config) {
		c.LogLevel = level
	})
}

// WithMailboxTimeout sets the default work item timeout.
func WithMailboxTimeout(timeout time.Duration) Option {
	return OptionFunc(func(c *Config) {
		c.Mailbox.Timeout = timeout
	})
}

// WithSaveInterval sets the period of the save cycle.
func WithSaveInterval(interval time.Duration) Option {
	return OptionFunc(func(c *Config) {
		c.Persistence.SaveInterval = interval
	})
}

// WithRecycle sets the recycle strategy, idle period and sweep interval.
func WithRecycle(strategy string, idleAfter, checkInterval time.Duration) Option {
	return OptionFunc(func(c *Config) {
		c.Recycle = RecycleConfig{Strategy: strategy, IdleAfter: idleAfter, CheckInterval: checkInterval}
	})
}

// WithStorage sets the storage configuration.
func WithStorage(storage StorageConfig) Option {
	return OptionFunc(func(c *Config) {
		c.Storage = storage
	})
}

// WithNATS enables the NATS transport.
func WithNATS(url, subject string) Option {
	return OptionFunc(func(c *Config) {
		c.NATS = NATSConfig{URL: url, Subject: subject}
	})
}

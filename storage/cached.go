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
	"errors"
	"fmt"
	"slices"

	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"

	gerrors "github.com/tochemey/gamecore/errors"
)

// Cached is a read-through, write-through Backend pairing a primary store
// with a faster cache. Concurrent misses on the same record share a single
// primary read.
type Cached struct {
	primary Backend
	cache   Backend
	group   singleflight.Group
}

var _ Backend = (*Cached)(nil)

// NewCached creates a Cached backend.
func NewCached(primary, cache Backend) *Cached {
	return &Cached{primary: primary, cache: cache}
}

// FindByID implements Backend. Cache failures fall back to the primary.
func (c *Cached) FindByID(ctx context.Context, collection string, id int64) ([]byte, error) {
	if data, err := c.cache.FindByID(ctx, collection, id); err == nil {
		return data, nil
	}

	key := fmt.Sprintf("%s/%d", collection, id)
	value, err, _ := c.group.Do(key, func() (any, error) {
		data, err := c.primary.FindByID(ctx, collection, id)
		if err != nil {
			return nil, err
		}
		// a failed cache fill only costs a later miss
		_ = c.cache.Upsert(ctx, collection, id, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(value.([]byte)), nil
}

// Upsert implements Backend. The cache is only written once the primary
// accepted the record; a failed cache write evicts the stale entry.
func (c *Cached) Upsert(ctx context.Context, collection string, id int64, data []byte) error {
	if err := c.primary.Upsert(ctx, collection, id, data); err != nil {
		return err
	}
	if err := c.cache.Upsert(ctx, collection, id, data); err != nil {
		return multierr.Append(err, c.cache.DeleteByID(ctx, collection, id))
	}
	return nil
}

// DeleteByID implements Backend.
func (c *Cached) DeleteByID(ctx context.Context, collection string, id int64) error {
	if err := c.primary.DeleteByID(ctx, collection, id); err != nil {
		return err
	}
	err := c.cache.DeleteByID(ctx, collection, id)
	if errors.Is(err, gerrors.ErrNotFound) {
		return nil
	}
	return err
}

// Scan implements Backend. Scans always read the primary.
func (c *Cached) Scan(ctx context.Context, collection string, fn func(id int64, data []byte) bool) error {
	return c.primary.Scan(ctx, collection, fn)
}

// Ping implements Backend.
func (c *Cached) Ping(ctx context.Context) error {
	return multierr.Combine(c.primary.Ping(ctx), c.cache.Ping(ctx))
}

// Close implements Backend.
func (c *Cached) Close() error {
	return multierr.Combine(c.cache.Close(), c.primary.Close())
}

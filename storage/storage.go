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

// Package storage persists entity snapshots. A Backend stores opaque bytes
// keyed by collection and id; a Repository adds typed access, queries and
// the dirty-checked save cycle on top of it.
package storage

import (
	"context"
)

// Backend is a byte oriented key-value store organised in collections.
// Implementations must be safe for concurrent use.
type Backend interface {
	// FindByID returns the stored bytes or ErrNotFound.
	FindByID(ctx context.Context, collection string, id int64) ([]byte, error)
	// Upsert inserts or replaces the record.
	Upsert(ctx context.Context, collection string, id int64, data []byte) error
	// DeleteByID removes the record. Deleting a missing record is not an error.
	DeleteByID(ctx context.Context, collection string, id int64) error
	// Scan calls fn for every record of collection until fn returns false.
	// The data slice must not be retained after fn returns.
	Scan(ctx context.Context, collection string, fn func(id int64, data []byte) bool) error
	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the backend resources.
	Close() error
}

// Page bounds the result of a query. A zero Limit means no limit.
type Page struct {
	Offset int
	Limit  int
}

// Query selects, orders and pages records. Nil Filter keeps every record;
// nil Less keeps the backend order.
type Query[S any] struct {
	Filter func(S) bool
	Less   func(a, b S) bool
	Page   Page
}

func contextErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

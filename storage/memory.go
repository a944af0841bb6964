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
	"fmt"
	"slices"
	"sync/atomic"

	gerrors "github.com/tochemey/gamecore/errors"
	"github.com/tochemey/gamecore/internal/xsync"
)

// Memory is an in-process Backend. Stored bytes are copied on the way in
// and out.
type Memory struct {
	collections *xsync.Map[string, *xsync.Map[int64, []byte]]
	closed      atomic.Bool
}

var _ Backend = (*Memory)(nil)

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{collections: xsync.NewMap[string, *xsync.Map[int64, []byte]]()}
}

func (m *Memory) collection(name string) *xsync.Map[int64, []byte] {
	records, _ := m.collections.GetOrSet(name, xsync.NewMap[int64, []byte])
	return records
}

// FindByID implements Backend.
func (m *Memory) FindByID(ctx context.Context, collection string, id int64) ([]byte, error) {
	if err := m.ensureOpen(ctx); err != nil {
		return nil, err
	}
	data, ok := m.collection(collection).Get(id)
	if !ok {
		return nil, fmt.Errorf("%s/%d: %w", collection, id, gerrors.ErrNotFound)
	}
	return slices.Clone(data), nil
}

// Upsert implements Backend.
func (m *Memory) Upsert(ctx context.Context, collection string, id int64, data []byte) error {
	if err := m.ensureOpen(ctx); err != nil {
		return err
	}
	m.collection(collection).Set(id, slices.Clone(data))
	return nil
}

// DeleteByID implements Backend.
func (m *Memory) DeleteByID(ctx context.Context, collection string, id int64) error {
	if err := m.ensureOpen(ctx); err != nil {
		return err
	}
	m.collection(collection).Delete(id)
	return nil
}

// Scan implements Backend. Records are visited in ascending id order.
func (m *Memory) Scan(ctx context.Context, collection string, fn func(id int64, data []byte) bool) error {
	if err := m.ensureOpen(ctx); err != nil {
		return err
	}
	records := m.collection(collection)
	ids := records.Keys()
	slices.Sort(ids)
	for _, id := range ids {
		data, ok := records.Get(id)
		if !ok {
			continue
		}
		if !fn(id, data) {
			return nil
		}
	}
	return nil
}

// Ping implements Backend.
func (m *Memory) Ping(ctx context.Context) error {
	return m.ensureOpen(ctx)
}

// Close implements Backend.
func (m *Memory) Close() error {
	if !m.closed.Swap(true) {
		m.collections.Drain()
	}
	return nil
}

func (m *Memory) ensureOpen(ctx context.Context) error {
	if m.closed.Load() {
		return gerrors.ErrStoreClosed
	}
	return contextErr(ctx)
}

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
	"encoding/binary"
	"fmt"
	"os"
	"slices"
	"sync/atomic"
	"time"

	bbolt "go.etcd.io/bbolt"

	gerrors "github.com/tochemey/gamecore/errors"
)

const boltFileMode os.FileMode = 0o600

var defaultBoltOptions = &bbolt.Options{Timeout: 5 * time.Second, NoGrowSync: true}

// Bolt is a Backend on top of an embedded bbolt database. Every collection
// is a bucket and ids are stored as 8-byte big-endian keys, so scans run in
// ascending id order.
//
// bbolt has single-writer/multi-reader semantics; the store only guards its
// closed state.
type Bolt struct {
	db     *bbolt.DB
	closed atomic.Bool
}

var _ Backend = (*Bolt)(nil)

// NewBolt opens or creates the database file at path.
func NewBolt(path string) (*Bolt, error) {
	optionsCopy := *defaultBoltOptions
	db, err := bbolt.Open(path, boltFileMode, &optionsCopy)
	if err != nil {
		return nil, fmt.Errorf("storage: opening boltdb %s: %w", path, err)
	}
	return &Bolt{db: db}, nil
}

func boltKey(id int64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], uint64(id))
	return key[:]
}

// FindByID implements Backend.
func (s *Bolt) FindByID(ctx context.Context, collection string, id int64) ([]byte, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(collection))
		if bucket == nil {
			return nil
		}
		if raw := bucket.Get(boltKey(id)); raw != nil {
			data = slices.Clone(raw)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: reading %s/%d: %w", collection, id, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%s/%d: %w", collection, id, gerrors.ErrNotFound)
	}
	return data, nil
}

// Upsert implements Backend.
func (s *Bolt) Upsert(ctx context.Context, collection string, id int64, data []byte) error {
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return fmt.Errorf("storage: creating bucket %s: %w", collection, err)
		}
		return bucket.Put(boltKey(id), data)
	})
}

// DeleteByID implements Backend.
func (s *Bolt) DeleteByID(ctx context.Context, collection string, id int64) error {
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(collection))
		if bucket == nil {
			return nil
		}
		return bucket.Delete(boltKey(id))
	})
}

// Scan implements Backend.
func (s *Bolt) Scan(ctx context.Context, collection string, fn func(id int64, data []byte) bool) error {
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(collection))
		if bucket == nil {
			return nil
		}
		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			if err := contextErr(ctx); err != nil {
				return err
			}
			if !fn(int64(binary.BigEndian.Uint64(k)), v) {
				return nil
			}
		}
		return nil
	})
}

// Ping implements Backend.
func (s *Bolt) Ping(ctx context.Context) error {
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}
	return s.db.View(func(*bbolt.Tx) error { return nil })
}

// Close implements Backend.
func (s *Bolt) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *Bolt) ensureOpen(ctx context.Context) error {
	if s.closed.Load() {
		return gerrors.ErrStoreClosed
	}
	return contextErr(ctx)
}

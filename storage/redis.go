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
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/redis/go-redis/v9"

	gerrors "github.com/tochemey/gamecore/errors"
)

const redisScanCount = 256

// Redis is a Backend storing every collection as one redis hash whose
// fields are the record ids.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

var _ Backend = (*Redis)(nil)

// NewRedis creates a Redis backend. prefix namespaces the hash keys. The
// backend owns client and closes it on Close.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (s *Redis) key(collection string) string {
	return s.prefix + collection
}

// FindByID implements Backend.
func (s *Redis) FindByID(ctx context.Context, collection string, id int64) ([]byte, error) {
	data, err := s.client.HGet(ctx, s.key(collection), strconv.FormatInt(id, 10)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s/%d: %w", collection, id, gerrors.ErrNotFound)
		}
		return nil, s.wrap("reading", collection, id, err)
	}
	return data, nil
}

// Upsert implements Backend.
func (s *Redis) Upsert(ctx context.Context, collection string, id int64, data []byte) error {
	if err := s.client.HSet(ctx, s.key(collection), strconv.FormatInt(id, 10), data).Err(); err != nil {
		return s.wrap("writing", collection, id, err)
	}
	return nil
}

// DeleteByID implements Backend.
func (s *Redis) DeleteByID(ctx context.Context, collection string, id int64) error {
	if err := s.client.HDel(ctx, s.key(collection), strconv.FormatInt(id, 10)).Err(); err != nil {
		return s.wrap("deleting", collection, id, err)
	}
	return nil
}

// Scan implements Backend. HSCAN may report a field twice; each id is
// handed to fn once.
func (s *Redis) Scan(ctx context.Context, collection string, fn func(id int64, data []byte) bool) error {
	seen := mapset.NewThreadUnsafeSet[int64]()
	var cursor uint64
	for {
		pairs, next, err := s.client.HScan(ctx, s.key(collection), cursor, "", redisScanCount).Result()
		if err != nil {
			return s.wrap("scanning", collection, 0, err)
		}

		for i := 0; i+1 < len(pairs); i += 2 {
			id, err := strconv.ParseInt(pairs[i], 10, 64)
			if err != nil {
				return fmt.Errorf("storage: invalid id %q in %s: %w", pairs[i], collection, err)
			}
			if !seen.Add(id) {
				continue
			}
			if !fn(id, []byte(pairs[i+1])) {
				return nil
			}
		}

		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Ping implements Backend.
func (s *Redis) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implements Backend.
func (s *Redis) Close() error {
	err := s.client.Close()
	if errors.Is(err, redis.ErrClosed) {
		return nil
	}
	return err
}

func (s *Redis) wrap(op, collection string, id int64, err error) error {
	if errors.Is(err, redis.ErrClosed) {
		err = gerrors.ErrStoreClosed
	}
	return fmt.Errorf("storage: %s %s/%d: %w", op, collection, id, err)
}

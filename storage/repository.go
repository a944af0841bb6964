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
	"sort"

	"github.com/tochemey/gamecore/entity"
	gerrors "github.com/tochemey/gamecore/errors"
	"github.com/tochemey/gamecore/hash"
	"github.com/tochemey/gamecore/internal/metric"
	"github.com/tochemey/gamecore/log"
	"github.com/tochemey/gamecore/serialization"
)

// RepositoryOption configures a Repository.
type RepositoryOption func(*repositoryConfig)

type repositoryConfig struct {
	serializer serialization.Serializer
	hasher     hash.Hasher
	logger     log.Logger
	metric     *metric.RuntimeMetric
}

// WithRepositorySerializer sets the snapshot serializer. Defaults to CBOR.
func WithRepositorySerializer(serializer serialization.Serializer) RepositoryOption {
	return func(c *repositoryConfig) {
		c.serializer = serializer
	}
}

// WithRepositoryHasher sets the hasher used for change detection.
func WithRepositoryHasher(hasher hash.Hasher) RepositoryOption {
	return func(c *repositoryConfig) {
		c.hasher = hasher
	}
}

// WithRepositoryLogger sets the logger.
func WithRepositoryLogger(logger log.Logger) RepositoryOption {
	return func(c *repositoryConfig) {
		c.logger = logger
	}
}

// WithRepositoryMetric sets the instruments recording flushes.
func WithRepositoryMetric(m *metric.RuntimeMetric) RepositoryOption {
	return func(c *repositoryConfig) {
		c.metric = m
	}
}

// Repository gives typed access to one collection of entities.
type Repository[S entity.Entity] struct {
	backend    Backend
	collection string
	newState   func() S
	config     *repositoryConfig
}

// NewRepository creates a Repository. newState returns an empty S that
// stored bytes are decoded into.
func NewRepository[S entity.Entity](backend Backend, collection string, newState func() S, opts ...RepositoryOption) *Repository[S] {
	config := &repositoryConfig{
		serializer: entity.DefaultSerializer(),
		hasher:     hash.DefaultHasher(),
		logger:     log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(config)
	}
	return &Repository[S]{
		backend:    backend,
		collection: collection,
		newState:   newState,
		config:     config,
	}
}

// Collection returns the collection name.
func (r *Repository[S]) Collection() string {
	return r.collection
}

// New returns an empty S set up as a new record with the given id.
func (r *Repository[S]) New(id int64) (S, error) {
	state := r.newState()
	if err := entity.SetID(state, id); err != nil {
		var zero S
		return zero, err
	}
	if err := entity.LoadFromDBPostHandler(state, true, r.EntityOptions()...); err != nil {
		var zero S
		return zero, err
	}
	return state, nil
}

// EntityOptions returns the tracking options entities of this repository use.
func (r *Repository[S]) EntityOptions() []entity.Option {
	return []entity.Option{
		entity.WithSerializer(r.config.serializer),
		entity.WithHasher(r.config.hasher),
		entity.WithLogger(r.config.logger),
	}
}

// FindByID loads the record. found is false when it does not exist.
func (r *Repository[S]) FindByID(ctx context.Context, id int64) (state S, found bool, err error) {
	data, err := r.backend.FindByID(ctx, r.collection, id)
	if err != nil {
		if errors.Is(err, gerrors.ErrNotFound) {
			return state, false, nil
		}
		return state, false, err
	}

	state, err = r.decode(data)
	if err != nil {
		return state, false, fmt.Errorf("storage: decoding %s/%d: %w", r.collection, id, err)
	}
	return state, true, nil
}

// Upsert writes the record unconditionally. It does not move the change
// detection baseline; use Save for the dirty-checked cycle.
func (r *Repository[S]) Upsert(ctx context.Context, state S) error {
	data, err := entity.ToBytes(state)
	if err != nil {
		return err
	}
	return r.backend.Upsert(ctx, r.collection, state.EntityID(), data)
}

// Save writes the record only when its snapshot changed since the last
// save, then commits the new baseline. It reports whether a write happened.
func (r *Repository[S]) Save(ctx context.Context, state S) (bool, error) {
	changed, data, err := entity.IsModify(state)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	if err := r.backend.Upsert(ctx, r.collection, state.EntityID(), data); err != nil {
		r.config.metric.SaveFailed(ctx, r.collection)
		return false, fmt.Errorf("storage: saving %s/%d: %w", r.collection, state.EntityID(), err)
	}

	if err := entity.AfterSaveToDB(state); err != nil {
		return true, err
	}
	r.config.metric.EntityFlushed(ctx, r.collection)
	return true, nil
}

// DeleteByID removes the record.
func (r *Repository[S]) DeleteByID(ctx context.Context, id int64) error {
	return r.backend.DeleteByID(ctx, r.collection, id)
}

// FindMany scans the collection, keeps the records accepted by the filter,
// sorts them and returns the requested page.
func (r *Repository[S]) FindMany(ctx context.Context, query Query[S]) ([]S, error) {
	var (
		matches   []S
		decodeErr error
	)
	err := r.backend.Scan(ctx, r.collection, func(id int64, data []byte) bool {
		state, err := r.decode(data)
		if err != nil {
			decodeErr = fmt.Errorf("storage: decoding %s/%d: %w", r.collection, id, err)
			return false
		}
		if query.Filter == nil || query.Filter(state) {
			matches = append(matches, state)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}

	if query.Less != nil {
		sort.SliceStable(matches, func(i, j int) bool {
			return query.Less(matches[i], matches[j])
		})
	}
	return paginate(matches, query.Page), nil
}

func (r *Repository[S]) decode(data []byte) (S, error) {
	state := r.newState()
	if err := entity.FromBytes(data, state, r.config.serializer); err != nil {
		var zero S
		return zero, err
	}
	if err := entity.LoadFromDBPostHandler(state, false, r.EntityOptions()...); err != nil {
		var zero S
		return zero, err
	}
	return state, nil
}

func paginate[S any](items []S, page Page) []S {
	if page.Offset < 0 {
		page.Offset = 0
	}
	if page.Offset >= len(items) {
		return []S{}
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}

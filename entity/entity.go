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

// Package entity defines the persisted record every component state embeds
// together with the content-hash based dirty tracking that decides when a
// record must be written back to storage.
//
// Entities are not safe for concurrent use. They are only mutated from the
// owning actor's turn, which is what makes locking unnecessary.
package entity

import (
	"fmt"
	"time"

	gerrors "github.com/tochemey/gamecore/errors"
	"github.com/tochemey/gamecore/hash"
	"github.com/tochemey/gamecore/log"
	"github.com/tochemey/gamecore/serialization"
)

// Entity is implemented by every persisted state type, usually by
// embedding Base.
type Entity interface {
	// EntityID returns the storage id.
	EntityID() int64
	// Meta returns the embedded persistence metadata.
	Meta() *Base
}

// Base carries the metadata of a persisted record. Embed it in a state
// struct to make that struct an Entity. Only exported fields are persisted.
type Base struct {
	ID          int64     `cbor:"id"`
	CreateID    int64     `cbor:"create_id"`
	CreateTime  time.Time `cbor:"create_time"`
	UpdateTime  time.Time `cbor:"update_time"`
	UpdateCount int64     `cbor:"update_count"`
	IsDeleted   bool      `cbor:"is_deleted"`
	DeleteTime  time.Time `cbor:"delete_time"`

	state       *hash.StateHash
	serializer  serialization.Serializer
	initialized bool
	persisted   bool
}

// EntityID implements Entity.
func (b *Base) EntityID() int64 {
	return b.ID
}

// Meta implements Entity.
func (b *Base) Meta() *Base {
	return b
}

// Initialized reports whether the dirty tracking has been set up.
func (b *Base) Initialized() bool {
	return b.initialized
}

// Persisted reports whether the record exists in storage.
func (b *Base) Persisted() bool {
	return b.persisted
}

var defaultSerializer serialization.Serializer = serialization.NewCBOR()

// DefaultSerializer returns the serializer used when none is configured.
func DefaultSerializer() serialization.Serializer {
	return defaultSerializer
}

type options struct {
	serializer serialization.Serializer
	hasher     hash.Hasher
	logger     log.Logger
	now        func() time.Time
}

// Option configures how an entity is tracked.
type Option func(*options)

// WithSerializer sets the snapshot serializer.
func WithSerializer(serializer serialization.Serializer) Option {
	return func(o *options) {
		o.serializer = serializer
	}
}

// WithHasher sets the snapshot hasher.
func WithHasher(hasher hash.Hasher) Option {
	return func(o *options) {
		o.hasher = hasher
	}
}

// WithLogger sets the logger used to report invariant violations.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock overrides the clock used to stamp new records.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// LoadFromDBPostHandler sets up dirty tracking once the entity is in memory.
// With isNew the entity has no baseline, so its first check reports a
// change, and a zero CreateTime is stamped. Otherwise the current snapshot
// becomes the baseline.
func LoadFromDBPostHandler(e Entity, isNew bool, opts ...Option) error {
	if e == nil {
		return gerrors.ErrNilEntity
	}

	o := &options{
		serializer: defaultSerializer,
		hasher:     hash.DefaultHasher(),
		logger:     log.DefaultLogger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	base := e.Meta()
	base.serializer = o.serializer
	base.state = hash.NewStateHash(o.hasher, o.logger)
	base.initialized = true

	if isNew {
		base.persisted = false
		if base.CreateTime.IsZero() {
			base.CreateTime = o.now().UTC()
		}
		return nil
	}

	snapshot, err := ToBytes(e)
	if err != nil {
		return err
	}
	base.state.SetBaseline(snapshot)
	base.persisted = true
	return nil
}

// ToBytes serializes the whole entity.
func ToBytes(e Entity) ([]byte, error) {
	if e == nil {
		return nil, gerrors.ErrNilEntity
	}
	serializer := e.Meta().serializer
	if serializer == nil {
		serializer = defaultSerializer
	}
	data, err := serializer.Serialize(e)
	if err != nil {
		return nil, fmt.Errorf("entity %d: %w", e.EntityID(), err)
	}
	return data, nil
}

// FromBytes decodes data into e. Call LoadFromDBPostHandler afterwards to
// start tracking changes.
func FromBytes(data []byte, e Entity, serializer serialization.Serializer) error {
	if e == nil {
		return gerrors.ErrNilEntity
	}
	if serializer == nil {
		serializer = defaultSerializer
	}
	return serializer.Deserialize(data, e)
}

// IsModify serializes e and reports whether the bytes differ from the
// persisted baseline. It never moves the baseline, so it can be called
// speculatively. An entity that was never set up is set up as new first.
func IsModify(e Entity) (bool, []byte, error) {
	if e == nil {
		return false, nil, gerrors.ErrNilEntity
	}
	base := e.Meta()
	if !base.initialized {
		if err := LoadFromDBPostHandler(e, true); err != nil {
			return false, nil, err
		}
	}

	snapshot, err := ToBytes(e)
	if err != nil {
		return false, nil, err
	}
	return base.state.IsChanged(snapshot), snapshot, nil
}

// AfterSaveToDB commits the last checked snapshot as the baseline. Call it
// once per successful write of a changed snapshot.
func AfterSaveToDB(e Entity) error {
	if e == nil {
		return gerrors.ErrNilEntity
	}
	base := e.Meta()
	if !base.initialized {
		return fmt.Errorf("entity %d: %w", e.EntityID(), gerrors.ErrStateNotChanged)
	}
	if err := base.state.AfterSaveToDB(); err != nil {
		return fmt.Errorf("entity %d: %w", e.EntityID(), err)
	}
	base.persisted = true
	return nil
}

// SetID assigns the storage id. Once the entity has been persisted its id
// can no longer change.
func SetID(e Entity, id int64) error {
	if e == nil {
		return gerrors.ErrNilEntity
	}
	base := e.Meta()
	if base.persisted && base.ID != id {
		return fmt.Errorf("entity %d: %w", base.ID, gerrors.ErrImmutableID)
	}
	base.ID = id
	return nil
}

// Touch records a mutation made at now.
func Touch(e Entity, now time.Time) {
	base := e.Meta()
	base.UpdateTime = now.UTC()
	base.UpdateCount++
}

// MarkDeleted flags the entity as soft deleted at now.
func MarkDeleted(e Entity, now time.Time) {
	base := e.Meta()
	base.IsDeleted = true
	base.DeleteTime = now.UTC()
}

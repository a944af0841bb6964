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

package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/gamecore/errors"
	"github.com/tochemey/gamecore/log"
	"github.com/tochemey/gamecore/serialization"
)

type player struct {
	Base
	Name  string           `cbor:"name"`
	Level int32            `cbor:"level"`
	Bag   map[string]int32 `cbor:"bag"`
}

func TestEntity(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return t0 }

	t.Run("With login then no-op command", func(t *testing.T) {
		p := &player{Name: "neo"}
		require.NoError(t, SetID(p, 42))
		require.NoError(t, LoadFromDBPostHandler(p, true, WithClock(clock), WithLogger(log.DiscardLogger)))
		assert.Equal(t, t0, p.CreateTime)
		assert.False(t, p.Persisted())

		changed, bytes0, err := IsModify(p)
		require.NoError(t, err)
		assert.True(t, changed)

		require.NoError(t, AfterSaveToDB(p))
		assert.True(t, p.Persisted())

		changed, again, err := IsModify(p)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, bytes0, again)
	})
	t.Run("With repeated checks before save", func(t *testing.T) {
		p := &player{Name: "trinity"}
		require.NoError(t, LoadFromDBPostHandler(p, true, WithLogger(log.DiscardLogger)))
		_, first, err := IsModify(p)
		require.NoError(t, err)
		for range 3 {
			changed, bytes, err := IsModify(p)
			require.NoError(t, err)
			assert.True(t, changed)
			assert.Equal(t, first, bytes)
		}
	})
	t.Run("With mutation detected", func(t *testing.T) {
		p := &player{Name: "morpheus", Bag: map[string]int32{}}
		require.NoError(t, LoadFromDBPostHandler(p, true, WithLogger(log.DiscardLogger)))
		_, _, err := IsModify(p)
		require.NoError(t, err)
		require.NoError(t, AfterSaveToDB(p))

		p.Bag["potion"] = 3
		Touch(p, t0)
		changed, _, err := IsModify(p)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.EqualValues(t, 1, p.UpdateCount)
		require.NoError(t, AfterSaveToDB(p))
	})
	t.Run("With implicit initialization", func(t *testing.T) {
		p := &player{Name: "oracle"}
		assert.False(t, p.Initialized())
		changed, _, err := IsModify(p)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.True(t, p.Initialized())
	})
	t.Run("With redundant save", func(t *testing.T) {
		p := &player{}
		require.NoError(t, LoadFromDBPostHandler(p, true, WithLogger(log.DiscardLogger)))
		_, _, err := IsModify(p)
		require.NoError(t, err)
		require.NoError(t, AfterSaveToDB(p))
		assert.ErrorIs(t, AfterSaveToDB(p), gerrors.ErrStateNotChanged)
	})
	t.Run("With save on uninitialized entity", func(t *testing.T) {
		assert.ErrorIs(t, AfterSaveToDB(&player{}), gerrors.ErrStateNotChanged)
	})
	t.Run("With loaded entity unchanged", func(t *testing.T) {
		src := &player{Name: "smith", Level: 9}
		require.NoError(t, SetID(src, 7))
		data, err := ToBytes(src)
		require.NoError(t, err)

		loaded := new(player)
		require.NoError(t, FromBytes(data, loaded, nil))
		require.NoError(t, LoadFromDBPostHandler(loaded, false, WithLogger(log.DiscardLogger)))
		assert.True(t, loaded.Persisted())
		assert.EqualValues(t, 7, loaded.EntityID())

		changed, snapshot, err := IsModify(loaded)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, data, snapshot)
	})
	t.Run("With immutable id once persisted", func(t *testing.T) {
		p := &player{}
		require.NoError(t, SetID(p, 1))
		require.NoError(t, SetID(p, 2))
		require.NoError(t, LoadFromDBPostHandler(p, true, WithLogger(log.DiscardLogger)))
		_, _, err := IsModify(p)
		require.NoError(t, err)
		require.NoError(t, AfterSaveToDB(p))

		assert.ErrorIs(t, SetID(p, 3), gerrors.ErrImmutableID)
		assert.NoError(t, SetID(p, 2))
		assert.EqualValues(t, 2, p.EntityID())
	})
	t.Run("With soft delete", func(t *testing.T) {
		p := &player{}
		MarkDeleted(p, t0)
		assert.True(t, p.IsDeleted)
		assert.Equal(t, t0, p.DeleteTime)
	})
	t.Run("With custom serializer", func(t *testing.T) {
		p := &player{Name: "tank"}
		require.NoError(t, LoadFromDBPostHandler(p, true, WithSerializer(serialization.NewCBOR())))
		data, err := ToBytes(p)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	})
	t.Run("With nil entity", func(t *testing.T) {
		_, _, err := IsModify(nil)
		assert.ErrorIs(t, err, gerrors.ErrNilEntity)
		assert.ErrorIs(t, LoadFromDBPostHandler(nil, true), gerrors.ErrNilEntity)
		_, err = ToBytes(nil)
		assert.ErrorIs(t, err, gerrors.ErrNilEntity)
	})
}

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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/gamecore/entity"
	"github.com/tochemey/gamecore/log"
)

type hero struct {
	entity.Base
	Name  string `cbor:"name"`
	Level int32  `cbor:"level"`
}

func newHeroRepository(backend Backend) *Repository[*hero] {
	return NewRepository(backend, "heroes", func() *hero { return new(hero) },
		WithRepositoryLogger(log.DiscardLogger))
}

type failingBackend struct {
	Backend
}

func (failingBackend) Upsert(context.Context, string, int64, []byte) error {
	return errors.New("disk full")
}

func TestRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("With save cycle", func(t *testing.T) {
		repo := newHeroRepository(NewMemory())
		assert.Equal(t, "heroes", repo.Collection())

		h, err := repo.New(42)
		require.NoError(t, err)
		h.Name = "link"

		written, err := repo.Save(ctx, h)
		require.NoError(t, err)
		assert.True(t, written)

		written, err = repo.Save(ctx, h)
		require.NoError(t, err)
		assert.False(t, written)

		h.Level = 2
		written, err = repo.Save(ctx, h)
		require.NoError(t, err)
		assert.True(t, written)

		loaded, found, err := repo.FindByID(ctx, 42)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "link", loaded.Name)
		assert.EqualValues(t, 2, loaded.Level)
		assert.True(t, loaded.Persisted())

		// a freshly loaded record is clean
		written, err = repo.Save(ctx, loaded)
		require.NoError(t, err)
		assert.False(t, written)
	})
	t.Run("With missing record", func(t *testing.T) {
		repo := newHeroRepository(NewMemory())
		_, found, err := repo.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.False(t, found)
	})
	t.Run("With failed write keeping the entity dirty", func(t *testing.T) {
		repo := newHeroRepository(failingBackend{Backend: NewMemory()})
		h, err := repo.New(1)
		require.NoError(t, err)
		_, err = repo.Save(ctx, h)
		require.Error(t, err)

		changed, _, err := entity.IsModify(h)
		require.NoError(t, err)
		assert.True(t, changed)
	})
	t.Run("With unconditional upsert and delete", func(t *testing.T) {
		repo := newHeroRepository(NewMemory())
		h, err := repo.New(5)
		require.NoError(t, err)
		require.NoError(t, repo.Upsert(ctx, h))
		_, found, err := repo.FindByID(ctx, 5)
		require.NoError(t, err)
		assert.True(t, found)

		require.NoError(t, repo.DeleteByID(ctx, 5))
		_, found, err = repo.FindByID(ctx, 5)
		require.NoError(t, err)
		assert.False(t, found)
	})
	t.Run("With FindMany", func(t *testing.T) {
		repo := newHeroRepository(NewMemory())
		levels := map[int64]int32{1: 5, 2: 40, 3: 12, 4: 33, 5: 21}
		for id, level := range levels {
			h, err := repo.New(id)
			require.NoError(t, err)
			h.Level = level
			_, err = repo.Save(ctx, h)
			require.NoError(t, err)
		}

		result, err := repo.FindMany(ctx, Query[*hero]{
			Filter: func(h *hero) bool { return h.Level >= 10 },
			Less:   func(a, b *hero) bool { return a.Level > b.Level },
			Page:   Page{Offset: 1, Limit: 2},
		})
		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.EqualValues(t, 33, result[0].Level)
		assert.EqualValues(t, 21, result[1].Level)

		all, err := repo.FindMany(ctx, Query[*hero]{})
		require.NoError(t, err)
		assert.Len(t, all, 5)

		none, err := repo.FindMany(ctx, Query[*hero]{Page: Page{Offset: 10}})
		require.NoError(t, err)
		assert.Empty(t, none)
	})
	t.Run("With undecodable record", func(t *testing.T) {
		backend := NewMemory()
		require.NoError(t, backend.Upsert(ctx, "heroes", 1, []byte{0xff}))
		repo := newHeroRepository(backend)
		_, _, err := repo.FindByID(ctx, 1)
		assert.Error(t, err)
		_, err = repo.FindMany(ctx, Query[*hero]{})
		assert.Error(t, err)
	})
}

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

package serialization

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"

	gerrors "github.com/tochemey/gamecore/errors"
)

type inventory struct {
	Owner   int64            `cbor:"owner"`
	Items   map[string]int32 `cbor:"items"`
	Tags    []string         `cbor:"tags"`
	Updated time.Time        `cbor:"updated"`
}

func TestCBOR(t *testing.T) {
	serializer := NewCBOR()
	t.Run("With deterministic map encoding", func(t *testing.T) {
		a := &inventory{Owner: 42, Items: map[string]int32{"sword": 1, "apple": 5, "bow": 2}}
		b := &inventory{Owner: 42, Items: map[string]int32{"bow": 2, "sword": 1, "apple": 5}}

		first, err := serializer.Serialize(a)
		require.NoError(t, err)
		for range 20 {
			other, err := serializer.Serialize(b)
			require.NoError(t, err)
			assert.Equal(t, first, other)
		}
	})
	t.Run("With byte identical round trip", func(t *testing.T) {
		in := &inventory{
			Owner:   7,
			Items:   map[string]int32{"gold": 100},
			Tags:    []string{"vip"},
			Updated: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		}
		data, err := serializer.Serialize(in)
		require.NoError(t, err)

		out := new(inventory)
		require.NoError(t, serializer.Deserialize(data, out))
		assert.Equal(t, in.Owner, out.Owner)
		assert.Equal(t, in.Items, out.Items)
		assert.True(t, in.Updated.Equal(out.Updated))

		again, err := serializer.Serialize(out)
		require.NoError(t, err)
		assert.Equal(t, data, again)
	})
	t.Run("With nil value", func(t *testing.T) {
		_, err := serializer.Serialize(nil)
		assert.ErrorIs(t, err, gerrors.ErrUnsupportedMessage)
	})
	t.Run("With invalid bytes", func(t *testing.T) {
		assert.Error(t, serializer.Deserialize([]byte{0xff, 0x00}, new(inventory)))
	})
}

func TestProto(t *testing.T) {
	serializer := NewProto()
	t.Run("With round trip", func(t *testing.T) {
		in, err := structpb.NewStruct(map[string]any{"b": 2, "a": "x", "c": true})
		require.NoError(t, err)

		data, err := serializer.Serialize(in)
		require.NoError(t, err)

		out := new(structpb.Struct)
		require.NoError(t, serializer.Deserialize(data, out))

		again, err := serializer.Serialize(out)
		require.NoError(t, err)
		assert.Equal(t, data, again)
	})
	t.Run("With well known type", func(t *testing.T) {
		data, err := serializer.Serialize(durationpb.New(time.Second))
		require.NoError(t, err)
		out := new(durationpb.Duration)
		require.NoError(t, serializer.Deserialize(data, out))
		assert.Equal(t, time.Second, out.AsDuration())
	})
	t.Run("With non proto value", func(t *testing.T) {
		_, err := serializer.Serialize(&inventory{})
		assert.ErrorIs(t, err, gerrors.ErrUnsupportedMessage)
		assert.ErrorIs(t, serializer.Deserialize(nil, &inventory{}), gerrors.ErrUnsupportedMessage)
	})
}

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
	"fmt"

	"google.golang.org/protobuf/proto"

	gerrors "github.com/tochemey/gamecore/errors"
)

// Proto is a Serializer for protobuf messages. Marshaling is deterministic.
type Proto struct {
	marshal   proto.MarshalOptions
	unmarshal proto.UnmarshalOptions
}

var _ Serializer = (*Proto)(nil)

// NewProto returns a ready-to-use protobuf serializer.
func NewProto() *Proto {
	return &Proto{
		marshal:   proto.MarshalOptions{Deterministic: true},
		unmarshal: proto.UnmarshalOptions{DiscardUnknown: true},
	}
}

// Serialize implements Serializer. v must be a proto.Message.
func (x *Proto) Serialize(v any) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("proto: %w: %T", gerrors.ErrUnsupportedMessage, v)
	}
	data, err := x.marshal.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("proto: failed to serialize %T: %w", v, err)
	}
	return data, nil
}

// Deserialize implements Serializer. v must be a proto.Message.
func (x *Proto) Deserialize(data []byte, v any) error {
	msg, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("proto: %w: %T", gerrors.ErrUnsupportedMessage, v)
	}
	if err := x.unmarshal.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("proto: failed to deserialize into %T: %w", v, err)
	}
	return nil
}

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

package rpc

import (
	"errors"
	"fmt"

	"github.com/tochemey/gamecore/serialization"
)

// Message is the unit exchanged over a connection. A zero CorrelationID
// marks a notification; requests and their replies share a non zero one.
type Message struct {
	ID            int32  `cbor:"1,keyasint"`
	CorrelationID int64  `cbor:"2,keyasint,omitempty"`
	Payload       []byte `cbor:"3,keyasint,omitempty"`
}

// IsNotification reports whether the message expects no reply.
func (m *Message) IsNotification() bool {
	return m.CorrelationID == 0
}

// NewReply builds the reply to request, carrying its correlation id.
func NewReply(request *Message, id int32, payload []byte) *Message {
	return &Message{ID: id, CorrelationID: request.CorrelationID, Payload: payload}
}

// Codec turns messages into bytes and back.
type Codec interface {
	Encode(msg *Message) ([]byte, error)
	Decode(data []byte) (*Message, error)
}

type serializerCodec struct {
	serializer serialization.Serializer
}

// NewCBORCodec returns a Codec writing messages as CBOR maps keyed by
// small integers.
func NewCBORCodec() Codec {
	return serializerCodec{serializer: serialization.NewCBOR()}
}

func (c serializerCodec) Encode(msg *Message) ([]byte, error) {
	if msg == nil {
		return nil, errors.New("rpc: nil message")
	}
	data, err := c.serializer.Serialize(msg)
	if err != nil {
		return nil, fmt.Errorf("rpc: encoding message %d: %w", msg.ID, err)
	}
	return data, nil
}

func (c serializerCodec) Decode(data []byte) (*Message, error) {
	msg := new(Message)
	if err := c.serializer.Deserialize(data, msg); err != nil {
		return nil, fmt.Errorf("rpc: decoding message: %w", err)
	}
	return msg, nil
}

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

	"github.com/fxamacker/cbor/v2"

	gerrors "github.com/tochemey/gamecore/errors"
)

var (
	cborEncOpts = func() cbor.EncOptions {
		opts := cbor.CoreDetEncOptions()
		opts.Time = cbor.TimeRFC3339Nano
		return opts
	}()
	cborDecOpts = cbor.DecOptions{
		MaxNestedLevels: 64,
		IndefLength:     cbor.IndefLengthForbidden,
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
	}
)

// CBOR is a deterministic CBOR Serializer. Map keys are sorted and integers
// use their shortest form. It is safe for concurrent use.
type CBOR struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

var _ Serializer = (*CBOR)(nil)

// NewCBOR returns a ready-to-use CBOR serializer.
func NewCBOR() *CBOR {
	encMode, err := cborEncOpts.EncMode()
	if err != nil {
		panic(fmt.Errorf("invalid cbor encoding options: %w", err))
	}
	decMode, err := cborDecOpts.DecMode()
	if err != nil {
		panic(fmt.Errorf("invalid cbor decoding options: %w", err))
	}
	return &CBOR{encMode: encMode, decMode: decMode}
}

// Serialize implements Serializer.
func (x *CBOR) Serialize(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("cbor: %w: nil value", gerrors.ErrUnsupportedMessage)
	}
	data, err := x.encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cbor: failed to serialize %T: %w", v, err)
	}
	return data, nil
}

// Deserialize implements Serializer.
func (x *CBOR) Deserialize(data []byte, v any) error {
	if err := x.decMode.Unmarshal(data, v); err != nil {
		return fmt.Errorf("cbor: failed to deserialize into %T: %w", v, err)
	}
	return nil
}

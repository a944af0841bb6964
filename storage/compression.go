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
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Compression names a snapshot compression algorithm.
type Compression string

const (
	// NoCompression stores snapshots as they are.
	NoCompression Compression = "none"
	// Zstd compresses snapshots with Zstandard.
	Zstd Compression = "zstd"
	// Brotli compresses snapshots with Brotli.
	Brotli Compression = "brotli"
)

// ParseCompression maps a configuration value onto a Compression.
func ParseCompression(name string) (Compression, error) {
	switch Compression(name) {
	case "", NoCompression:
		return NoCompression, nil
	case Zstd:
		return Zstd, nil
	case Brotli:
		return Brotli, nil
	default:
		return "", fmt.Errorf("storage: unknown compression %q", name)
	}
}

type codec interface {
	encode(data []byte) ([]byte, error)
	decode(data []byte) ([]byte, error)
}

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
)

type zstdCodec struct{}

func (zstdCodec) encode(data []byte) ([]byte, error) {
	return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/2+16)), nil
}

func (zstdCodec) decode(data []byte) ([]byte, error) {
	return zstdDecoder.DecodeAll(data, nil)
}

var brotliWriters = sync.Pool{
	New: func() any {
		return brotli.NewWriterLevel(nil, brotli.DefaultCompression)
	},
}

type brotliCodec struct{}

func (brotliCodec) encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := brotliWriters.Get().(*brotli.Writer)
	defer brotliWriters.Put(writer)
	writer.Reset(&buf)
	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (brotliCodec) decode(data []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
}

type compressed struct {
	Backend
	codec codec
	name  Compression
}

// WithCompression wraps backend so snapshots are compressed at rest.
// NoCompression returns backend unchanged.
func WithCompression(backend Backend, compression Compression) (Backend, error) {
	var c codec
	switch compression {
	case NoCompression, "":
		return backend, nil
	case Zstd:
		c = zstdCodec{}
	case Brotli:
		c = brotliCodec{}
	default:
		return nil, fmt.Errorf("storage: unknown compression %q", compression)
	}
	return &compressed{Backend: backend, codec: c, name: compression}, nil
}

func (x *compressed) FindByID(ctx context.Context, collection string, id int64) ([]byte, error) {
	data, err := x.Backend.FindByID(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	plain, err := x.codec.decode(data)
	if err != nil {
		return nil, fmt.Errorf("storage: %s decoding %s/%d: %w", x.name, collection, id, err)
	}
	return plain, nil
}

func (x *compressed) Upsert(ctx context.Context, collection string, id int64, data []byte) error {
	packed, err := x.codec.encode(data)
	if err != nil {
		return fmt.Errorf("storage: %s encoding %s/%d: %w", x.name, collection, id, err)
	}
	return x.Backend.Upsert(ctx, collection, id, packed)
}

func (x *compressed) Scan(ctx context.Context, collection string, fn func(id int64, data []byte) bool) error {
	var decodeErr error
	err := x.Backend.Scan(ctx, collection, func(id int64, data []byte) bool {
		plain, err := x.codec.decode(data)
		if err != nil {
			decodeErr = fmt.Errorf("storage: %s decoding %s/%d: %w", x.name, collection, id, err)
			return false
		}
		return fn(id, plain)
	})
	if err != nil {
		return err
	}
	return decodeErr
}

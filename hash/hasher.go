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

package hash

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/xxh3"
)

// Digest is a 128-bit content hash. The zero Digest means "no hash".
type Digest struct {
	Hi uint64
	Lo uint64
}

// IsZero reports whether d is the zero digest.
func (d Digest) IsZero() bool {
	return d.Hi == 0 && d.Lo == 0
}

// String returns the digest as 32 hex characters.
func (d Digest) String() string {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], d.Hi)
	binary.BigEndian.PutUint64(buf[8:], d.Lo)
	return hex.EncodeToString(buf[:])
}

// Hasher defines the hashcode generator interface.
type Hasher interface {
	// HashCode returns an unsigned 64-bit hash of key. It is used for sharding.
	HashCode(key []byte) uint64
	// Hash128 returns a 128-bit digest of data. It is used for change detection.
	Hash128(data []byte) Digest
}

type xhasher struct{}

var _ Hasher = xhasher{}

// HashCode implementation
func (x xhasher) HashCode(key []byte) uint64 {
	return xxhash.Sum64(key)
}

// Hash128 implementation
func (x xhasher) Hash128(data []byte) Digest {
	sum := xxh3.Hash128(data)
	return Digest{Hi: sum.Hi, Lo: sum.Lo}
}

// DefaultHasher returns the default hasher
func DefaultHasher() Hasher {
	return &xhasher{}
}

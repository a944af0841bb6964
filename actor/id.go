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

package actor

import (
	"fmt"
	"sync"
	"time"

	gerrors "github.com/tochemey/gamecore/errors"
	"github.com/tochemey/gamecore/internal/xsync"
)

// Kind is the logical type of an actor, packed into its ID.
type Kind uint16

const (
	kindBits     = 10
	serverIDBits = 14
	sequenceBits = 39

	sequenceShift = 0
	serverIDShift = sequenceBits
	kindShift     = sequenceBits + serverIDBits

	// MaxKind is the largest Kind an ID can carry.
	MaxKind Kind = 1<<kindBits - 1
	// MaxServerID is the largest server id an ID can carry.
	MaxServerID uint16 = 1<<serverIDBits - 1
	// MaxSequence is the largest sequence an ID can carry.
	MaxSequence int64 = 1<<sequenceBits - 1

	// counterBits is the part of the sequence used to order ids minted within one second.
	counterBits = 9
)

// KindSeparator splits per-entity kinds from server singleton kinds.
// Kinds above it are singletons and are never recycled.
const KindSeparator Kind = 128

const (
	// KindAccount identifies account actors.
	KindAccount Kind = 1
	// KindPlayer identifies player actors.
	KindPlayer Kind = 2
	// KindServer identifies the server-wide singleton actor.
	KindServer Kind = KindSeparator + 1
)

// IsSingleton reports whether actors of this kind are server singletons.
func (k Kind) IsSingleton() bool {
	return k > KindSeparator
}

// sequenceEpoch is the origin of time based sequences.
var sequenceEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// ID is the packed 64-bit identity of an actor:
//
//	bit 63      unused, keeps ids positive
//	bits 53-62  kind
//	bits 39-52  server id
//	bits 0-38   sequence
type ID int64

// MakeID packs the given parts into an ID.
func MakeID(kind Kind, serverID uint16, sequence int64) (ID, error) {
	if kind == 0 || kind > MaxKind || serverID > MaxServerID || sequence < 0 || sequence > MaxSequence {
		return 0, fmt.Errorf("kind=%d server=%d sequence=%d: %w", kind, serverID, sequence, gerrors.ErrInvalidActorID)
	}
	return ID(int64(kind)<<kindShift | int64(serverID)<<serverIDShift | sequence<<sequenceShift), nil
}

// SingletonID returns the ID of the singleton actor of kind hosted on serverID.
func SingletonID(kind Kind, serverID uint16) (ID, error) {
	return MakeID(kind, serverID, 0)
}

// Kind returns the actor kind.
func (id ID) Kind() Kind {
	return Kind(uint64(id) >> kindShift & uint64(MaxKind))
}

// ServerID returns the id of the server that minted the ID.
func (id ID) ServerID() uint16 {
	return uint16(uint64(id) >> serverIDShift & uint64(MaxServerID))
}

// Sequence returns the sequence part.
func (id ID) Sequence() int64 {
	return int64(id) & MaxSequence
}

// IsSingleton reports whether the ID belongs to a server singleton.
func (id ID) IsSingleton() bool {
	return id.Kind().IsSingleton()
}

// Valid reports whether the ID is positive and carries a non zero kind.
func (id ID) Valid() bool {
	return id > 0 && id.Kind() != 0
}

// String returns kind/server/sequence.
func (id ID) String() string {
	return fmt.Sprintf("%d/%d/%d", id.Kind(), id.ServerID(), id.Sequence())
}

// IDGenerator mints IDs of one kind for one server. Sequences are built
// from the seconds elapsed since 2024-01-01 and a per-second counter, and
// never go backwards even when the clock does.
type IDGenerator struct {
	mu       sync.Mutex
	kind     Kind
	serverID uint16
	last     int64
	now      func() time.Time
}

// NewIDGenerator creates an IDGenerator.
func NewIDGenerator(kind Kind, serverID uint16) (*IDGenerator, error) {
	if _, err := MakeID(kind, serverID, 0); err != nil {
		return nil, err
	}
	return &IDGenerator{kind: kind, serverID: serverID, now: time.Now}, nil
}

// Next returns a new ID.
func (g *IDGenerator) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	seconds := int64(g.now().Sub(sequenceEpoch) / time.Second)
	candidate := seconds << counterBits
	if candidate <= g.last {
		candidate = g.last + 1
	}
	g.last = candidate & MaxSequence
	// the bounds were checked by NewIDGenerator
	id, _ := MakeID(g.kind, g.serverID, g.last)
	return id
}

var generators = xsync.NewMap[uint32, *IDGenerator]()

// NewID mints an ID from the process wide generator of (kind, serverID).
func NewID(kind Kind, serverID uint16) (ID, error) {
	if _, err := MakeID(kind, serverID, 0); err != nil {
		return 0, err
	}
	gen, _ := generators.GetOrSet(uint32(kind)<<16|uint32(serverID), func() *IDGenerator {
		return &IDGenerator{kind: kind, serverID: serverID, now: time.Now}
	})
	return gen.Next(), nil
}

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
	"fmt"

	gerrors "github.com/tochemey/gamecore/errors"
	"github.com/tochemey/gamecore/log"
)

// StateHash tracks whether a serialized snapshot differs from the last
// persisted one. It is not safe for concurrent use; it is only touched
// from the owning actor's turn or from the save cycle running on it.
type StateHash struct {
	hasher  Hasher
	logger  log.Logger
	cached  Digest
	pending Digest
}

// NewStateHash creates a StateHash with no baseline. A nil hasher or
// logger falls back to the defaults.
func NewStateHash(hasher Hasher, logger log.Logger) *StateHash {
	if hasher == nil {
		hasher = DefaultHasher()
	}
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &StateHash{hasher: hasher, logger: logger}
}

// IsChanged hashes snapshot and compares it with the persisted baseline.
// It records the digest as pending but never touches the baseline, so it
// can be called any number of times. Without a baseline it always reports
// a change.
func (s *StateHash) IsChanged(snapshot []byte) bool {
	s.pending = s.hasher.Hash128(snapshot)
	return s.cached.IsZero() || s.pending != s.cached
}

// AfterSaveToDB commits the pending digest as the new baseline. It must
// follow a successful write of a changed snapshot. When the pending digest
// equals the baseline the write was redundant, which is a caller bug: it is
// logged and ErrStateNotChanged is returned.
func (s *StateHash) AfterSaveToDB() error {
	if s.pending == s.cached {
		err := fmt.Errorf("baseline=%s: %w", s.cached, gerrors.ErrStateNotChanged)
		s.logger.Error(err)
		return err
	}
	s.cached = s.pending
	return nil
}

// SetBaseline marks snapshot as the persisted state, typically right after
// it was loaded from storage.
func (s *StateHash) SetBaseline(snapshot []byte) {
	s.cached = s.hasher.Hash128(snapshot)
	s.pending = s.cached
}

// Reset drops the baseline so the next check reports a change.
func (s *StateHash) Reset() {
	s.cached = Digest{}
	s.pending = Digest{}
}

// Cached returns the digest of the last persisted snapshot.
func (s *StateHash) Cached() Digest {
	return s.cached
}

// Pending returns the digest computed by the last IsChanged call.
func (s *StateHash) Pending() Digest {
	return s.pending
}

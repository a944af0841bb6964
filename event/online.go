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

package event

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/tochemey/gamecore/actor"
)

// OnlineSet tracks the actors that currently have a session attached.
// It is safe for concurrent use.
type OnlineSet struct {
	set mapset.Set[actor.ID]
}

// NewOnlineSet creates an empty OnlineSet.
func NewOnlineSet() *OnlineSet {
	return &OnlineSet{set: mapset.NewSet[actor.ID]()}
}

// Add marks id online. It reports whether id was offline.
func (o *OnlineSet) Add(id actor.ID) bool {
	return o.set.Add(id)
}

// Remove marks id offline.
func (o *OnlineSet) Remove(id actor.ID) {
	o.set.Remove(id)
}

// Contains reports whether id is online.
func (o *OnlineSet) Contains(id actor.ID) bool {
	return o.set.Contains(id)
}

// Snapshot returns the online ids.
func (o *OnlineSet) Snapshot() []actor.ID {
	return o.set.ToSlice()
}

// Len returns the number of online actors.
func (o *OnlineSet) Len() int {
	return o.set.Cardinality()
}

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
	"context"
	"fmt"
	"time"

	"github.com/flowchartsman/retry"

	"github.com/tochemey/gamecore/entity"
	"github.com/tochemey/gamecore/storage"
)

const (
	stateLoadAttempts = 3
	stateLoadDelay    = 10 * time.Millisecond
	stateLoadMaxDelay = 200 * time.Millisecond
)

// StateAgent is the base of agents bound to one persisted entity, stored
// under the owner's id. Embed it by value and build it with NewStateAgent.
// Agents overriding Active or Inactive must call the StateAgent versions.
type StateAgent[S entity.Entity] struct {
	AgentBase
	repo   *storage.Repository[S]
	seed   func(S)
	state  S
	loaded bool
}

var _ Saver = (*StateAgent[entity.Entity])(nil)

// NewStateAgent creates a StateAgent backed by repo. seed, when not nil,
// initialises the state of a record that does not exist yet.
func NewStateAgent[S entity.Entity](repo *storage.Repository[S], seed func(S)) StateAgent[S] {
	return StateAgent[S]{repo: repo, seed: seed}
}

// Active loads the state, retrying transient storage failures, or creates
// it when absent.
func (a *StateAgent[S]) Active(ctx context.Context) error {
	id := int64(a.Owner().ID())
	retrier := retry.NewRetrier(stateLoadAttempts, stateLoadDelay, stateLoadMaxDelay)
	err := retrier.RunContext(ctx, func(ctx context.Context) error {
		state, found, err := a.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			if state, err = a.repo.New(id); err != nil {
				return err
			}
			if a.seed != nil {
				a.seed(state)
			}
		}
		a.state = state
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading %s/%d: %w", a.repo.Collection(), id, err)
	}
	a.loaded = true
	return nil
}

// Inactive flushes the state one last time.
func (a *StateAgent[S]) Inactive(ctx context.Context) error {
	_, err := a.SaveState(ctx)
	return err
}

// State returns the entity. Only touch it on the owner's turn.
func (a *StateAgent[S]) State() S {
	return a.state
}

// SaveState implements Saver.
func (a *StateAgent[S]) SaveState(ctx context.Context) (bool, error) {
	if !a.loaded {
		return false, nil
	}
	return a.repo.Save(ctx, a.state)
}

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
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tochemey/gamecore/actor"
	"github.com/tochemey/gamecore/log"
)

const (
	questCompleted ID = 100
	seasonStarted  ID = GlobalEventThreshold + 1
	maintenance    ID = 50
)

type journalAgent struct {
	actor.AgentBase
	entries []string
}

func (j *journalAgent) record(entry string) {
	j.entries = append(j.entries, entry)
}

func (j *journalAgent) Entries(ctx context.Context) ([]string, error) {
	return actor.Invoke(ctx, j, func(context.Context) ([]string, error) {
		return slices.Clone(j.entries), nil
	})
}

func (j *journalAgent) Record(ctx context.Context, entry string) error {
	return actor.Post(ctx, j, func(context.Context) error {
		j.record(entry)
		return nil
	})
}

type fixture struct {
	directory  *actor.Directory
	dispatcher *Dispatcher
	online     *OnlineSet
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	agents := actor.NewRegistry()
	for _, kind := range []actor.Kind{actor.KindPlayer, actor.KindServer} {
		actor.Register(agents, kind, func() *journalAgent { return new(journalAgent) })
	}

	listeners := NewRegistry()
	Register(listeners, actor.KindPlayer, questCompleted, func(_ context.Context, j *journalAgent, evt Event) error {
		j.record(fmt.Sprintf("first:%v", evt.Payload))
		return nil
	})
	Register(listeners, actor.KindPlayer, questCompleted, func(context.Context, *journalAgent, Event) error {
		return errors.New("listener failure")
	})
	Register(listeners, actor.KindPlayer, questCompleted, func(context.Context, *journalAgent, Event) error {
		panic("listener panic")
	})
	Register(listeners, actor.KindPlayer, questCompleted, func(_ context.Context, j *journalAgent, evt Event) error {
		j.record("last")
		return nil
	})
	for _, kind := range []actor.Kind{actor.KindPlayer, actor.KindServer} {
		for _, id := range []ID{seasonStarted, maintenance} {
			Register(listeners, kind, id, func(_ context.Context, j *journalAgent, evt Event) error {
				j.record(fmt.Sprintf("global:%d", evt.ID))
				return nil
			})
		}
	}

	directory := actor.NewDirectory(
		actor.WithRegistry(agents),
		actor.WithLogger(log.DiscardLogger),
		actor.WithSaveInterval(0),
		actor.WithRecycleInterval(0))
	require.NoError(t, directory.Start(context.Background()))

	online := NewOnlineSet()
	return &fixture{
		directory:  directory,
		online:     online,
		dispatcher: NewDispatcher(directory, listeners, online, WithLogger(log.DiscardLogger), WithServerID(1)),
	}
}

func (f *fixture) journal(t *testing.T, id actor.ID) *journalAgent {
	t.Helper()
	j, err := actor.GetAgent[*journalAgent](context.Background(), f.directory, id)
	require.NoError(t, err)
	return j
}

func (f *fixture) entries(t *testing.T, id actor.ID) []string {
	t.Helper()
	entries, err := f.journal(t, id).Entries(context.Background())
	require.NoError(t, err)
	return entries
}

func player(t *testing.T, seq int64) actor.ID {
	t.Helper()
	id, err := actor.MakeID(actor.KindPlayer, 1, seq)
	require.NoError(t, err)
	return id
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("With failing listeners isolated", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		f := newFixture(t)
		id := player(t, 1)

		require.NoError(t, f.dispatcher.Dispatch(ctx, id, questCompleted, "dragon"))
		require.Eventually(t, func() bool {
			return len(f.entries(t, id)) == 2
		}, 5*time.Second, 10*time.Millisecond)
		assert.Equal(t, []string{"first:dragon", "last"}, f.entries(t, id))
		require.NoError(t, f.directory.Stop(ctx))
	})
	t.Run("With event queued behind the running turn", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		f := newFixture(t)
		id := player(t, 1)
		j := f.journal(t, id)

		release := make(chan struct{})
		started := make(chan struct{})
		busy := j.SendAsync(ctx, func(context.Context) (any, error) {
			close(started)
			<-release
			j.record("command")
			return nil, nil
		})
		<-started

		require.NoError(t, f.dispatcher.Dispatch(ctx, id, questCompleted, "orc"))
		require.NoError(t, j.Record(ctx, "after"))
		close(release)
		_, err := busy.Await(ctx)
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return len(f.entries(t, id)) == 4
		}, 5*time.Second, 10*time.Millisecond)
		assert.Equal(t, []string{"command", "first:orc", "last", "after"}, f.entries(t, id))
		require.NoError(t, f.directory.Stop(ctx))
	})
	t.Run("With dispatch from the actor's own turn never inline", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		f := newFixture(t)
		id := player(t, 1)
		j := f.journal(t, id)

		_, err := actor.Invoke(ctx, j, func(ctx context.Context) (bool, error) {
			if err := f.dispatcher.Dispatch(ctx, id, questCompleted, "self"); err != nil {
				return false, err
			}
			j.record("turn")
			return true, nil
		})
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return len(f.entries(t, id)) == 3
		}, 5*time.Second, 10*time.Millisecond)
		assert.Equal(t, []string{"turn", "first:self", "last"}, f.entries(t, id))
		require.NoError(t, f.directory.Stop(ctx))
	})
	t.Run("With global event fanned out to online actors", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		f := newFixture(t)
		online, offline := player(t, 1), player(t, 2)
		f.journal(t, offline)
		f.online.Add(online)
		server, err := actor.SingletonID(actor.KindServer, 1)
		require.NoError(t, err)

		require.NoError(t, f.dispatcher.DispatchGlobal(ctx, seasonStarted, nil))
		require.Eventually(t, func() bool {
			return len(f.entries(t, online)) == 1 && len(f.entries(t, server)) == 1
		}, 5*time.Second, 10*time.Millisecond)
		assert.Equal(t, []string{fmt.Sprintf("global:%d", seasonStarted)}, f.entries(t, online))
		assert.Empty(t, f.entries(t, offline))
		require.NoError(t, f.directory.Stop(ctx))
	})
	t.Run("With server event below the threshold", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		f := newFixture(t)
		online := player(t, 1)
		f.online.Add(online)
		server, err := actor.SingletonID(actor.KindServer, 1)
		require.NoError(t, err)

		require.NoError(t, f.dispatcher.DispatchGlobal(ctx, maintenance, nil))
		require.Eventually(t, func() bool {
			return len(f.entries(t, server)) == 1
		}, 5*time.Second, 10*time.Millisecond)
		assert.Empty(t, f.entries(t, online))
		require.NoError(t, f.directory.Stop(ctx))
	})
	t.Run("With stopped directory", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		f := newFixture(t)
		require.NoError(t, f.directory.Stop(ctx))
		assert.Error(t, f.dispatcher.Dispatch(ctx, player(t, 1), questCompleted, nil))
	})
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	assert.Empty(t, reg.Listeners(actor.KindPlayer, questCompleted))

	Register(reg, actor.KindPlayer, questCompleted, func(context.Context, *journalAgent, Event) error { return nil })
	Register(reg, actor.KindAccount, questCompleted, func(context.Context, *journalAgent, Event) error { return nil })

	listeners := reg.Listeners(actor.KindPlayer, questCompleted)
	require.Len(t, listeners, 1)
	assert.Equal(t, actor.AgentType[*journalAgent](), listeners[0].AgentType())
	assert.Equal(t, 2, reg.Len())
}

func TestOnlineSet(t *testing.T) {
	set := NewOnlineSet()
	id := player(t, 1)
	assert.True(t, set.Add(id))
	assert.False(t, set.Add(id))
	assert.True(t, set.Contains(id))
	assert.Equal(t, 1, set.Len())
	assert.Equal(t, []actor.ID{id}, set.Snapshot())

	set.Remove(id)
	assert.False(t, set.Contains(id))
	assert.Zero(t, set.Len())
}

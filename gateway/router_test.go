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

package gateway

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tochemey/gamecore/actor"
	gerrors "github.com/tochemey/gamecore/errors"
	"github.com/tochemey/gamecore/event"
	"github.com/tochemey/gamecore/log"
	"github.com/tochemey/gamecore/rpc"
	"github.com/tochemey/gamecore/session"
)

const (
	msgLogin    int32 = 1
	msgLoginAck int32 = 2
	msgChat     int32 = 3
	msgChatAck  int32 = 4
	msgUnknown  int32 = 42
	msgPing     int32 = 5
)

func newDirectory(t *testing.T) *actor.Directory {
	t.Helper()
	directory := actor.NewDirectory(
		actor.WithLogger(log.DiscardLogger),
		actor.WithSaveInterval(0),
		actor.WithRecycleInterval(0))
	require.NoError(t, directory.Start(context.Background()))
	return directory
}

// payloadResolver reads the target actor id from the payload.
func payloadResolver(_ context.Context, _ rpc.Conn, msg *rpc.Message) (actor.ID, error) {
	id, err := strconv.ParseInt(string(msg.Payload), 10, 64)
	if err != nil {
		return 0, err
	}
	return actor.ID(id), nil
}

func TestRouter(t *testing.T) {
	ctx := context.Background()

	t.Run("With message handled on the target's turn", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		directory := newDirectory(t)
		router := NewRouter(directory, log.DiscardLogger)
		target, err := actor.MakeID(actor.KindPlayer, 1, 7)
		require.NoError(t, err)

		router.Handle(msgLogin, Route{
			Resolve: payloadResolver,
			Handle: func(ctx context.Context, a *actor.Actor, conn rpc.Conn, msg *rpc.Message) error {
				cc, _ := actor.CallContextFrom(ctx)
				return conn.Send(ctx, rpc.NewReply(msg, msgLoginAck, []byte(cc.ActorID.String())))
			},
		})

		replies := make(chan *rpc.Message, 1)
		var server *rpc.PipeConn
		server, client := rpc.Pipe(
			func(ctx context.Context, msg *rpc.Message) { _ = router.Route(ctx, server, msg) },
			func(_ context.Context, msg *rpc.Message) { replies <- msg },
		)
		defer client.Close()

		require.NoError(t, client.Send(ctx, &rpc.Message{ID: msgLogin, CorrelationID: 9, Payload: []byte(strconv.FormatInt(int64(target), 10))}))
		select {
		case reply := <-replies:
			assert.Equal(t, msgLoginAck, reply.ID)
			assert.EqualValues(t, 9, reply.CorrelationID)
			assert.Equal(t, target.String(), string(reply.Payload))
		case <-time.After(5 * time.Second):
			t.Fatal("no reply")
		}
		_, ok := directory.Get(target)
		assert.True(t, ok)
		require.NoError(t, directory.Stop(ctx))
	})
	t.Run("With unknown message id", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		directory := newDirectory(t)
		router := NewRouter(directory, log.DiscardLogger)
		conn, peer := rpc.Pipe(nil, nil)
		defer peer.Close()

		err := router.Route(ctx, conn, &rpc.Message{ID: msgUnknown})
		assert.ErrorIs(t, err, gerrors.ErrHandlerNotFound)
		assert.False(t, conn.IsClosed())
		require.NoError(t, directory.Stop(ctx))
	})
	t.Run("With unresolvable actor closing the connection", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		directory := newDirectory(t)
		router := NewRouter(directory, log.DiscardLogger)
		router.Handle(msgLogin, Route{Resolve: payloadResolver, Handle: func(context.Context, *actor.Actor, rpc.Conn, *rpc.Message) error {
			return errors.New("unexpected")
		}})
		conn, peer := rpc.Pipe(nil, nil)
		defer peer.Close()

		err := router.Route(ctx, conn, &rpc.Message{ID: msgLogin, Payload: []byte("garbage")})
		assert.ErrorIs(t, err, gerrors.ErrUnresolvableActor)
		assert.True(t, conn.IsClosed())

		conn, peer = rpc.Pipe(nil, nil)
		defer peer.Close()
		err = router.Route(ctx, conn, &rpc.Message{ID: msgLogin, Payload: []byte("0")})
		assert.ErrorIs(t, err, gerrors.ErrUnresolvableActor)
		assert.ErrorIs(t, err, gerrors.ErrInvalidActorID)
		assert.True(t, conn.IsClosed())
		require.NoError(t, directory.Stop(ctx))
	})
	t.Run("With reply completing a server initiated call", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		directory := newDirectory(t)
		router := NewRouter(directory, log.DiscardLogger)

		var (
			server *rpc.PipeConn
			client *rpc.PipeConn
		)
		server, client = rpc.Pipe(
			func(ctx context.Context, msg *rpc.Message) { _ = router.Route(ctx, server, msg) },
			func(ctx context.Context, msg *rpc.Message) {
				_ = client.Send(ctx, rpc.NewReply(msg, msgPing+1, msg.Payload))
			},
		)
		defer client.Close()

		correlator := rpc.NewCorrelator(server, rpc.WithCorrelatorLogger(log.DiscardLogger))
		defer correlator.Close()
		router.Bind(server, correlator)
		defer router.Unbind(server)

		reply, err := correlator.Call(ctx, &rpc.Message{ID: msgPing, Payload: []byte("pong")}, 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, "pong", string(reply.Payload))
		require.NoError(t, directory.Stop(ctx))
	})
	t.Run("With session resolver", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		directory := newDirectory(t)
		online := event.NewOnlineSet()
		dispatcher := event.NewDispatcher(directory, event.NewRegistry(), online, event.WithLogger(log.DiscardLogger))
		manager := session.NewManager(directory, dispatcher, online, log.DiscardLogger)
		router := NewRouter(directory, log.DiscardLogger)

		handled := make(chan actor.ID, 1)
		router.Handle(msgChat, Route{
			Resolve: SessionResolver(manager),
			Handle: func(_ context.Context, a *actor.Actor, _ rpc.Conn, _ *rpc.Message) error {
				handled <- a.ID()
				return nil
			},
		})

		conn, peer := rpc.Pipe(nil, nil)
		defer peer.Close()
		id, err := actor.MakeID(actor.KindPlayer, 1, 3)
		require.NoError(t, err)
		_, err = manager.Attach(ctx, id, conn)
		require.NoError(t, err)

		require.NoError(t, router.Route(ctx, conn, &rpc.Message{ID: msgChat}))
		select {
		case got := <-handled:
			assert.Equal(t, id, got)
		case <-time.After(5 * time.Second):
			t.Fatal("chat not handled")
		}

		stranger, strangerPeer := rpc.Pipe(nil, nil)
		defer strangerPeer.Close()
		err = router.Route(ctx, stranger, &rpc.Message{ID: msgChat})
		assert.ErrorIs(t, err, gerrors.ErrUnresolvableActor)
		assert.True(t, stranger.IsClosed())

		handledFixed := make(chan actor.ID, 1)
		server, err := actor.SingletonID(actor.KindServer, 1)
		require.NoError(t, err)
		router.Handle(msgChatAck, Route{
			Resolve: FixedResolver(server),
			Handle: func(_ context.Context, a *actor.Actor, _ rpc.Conn, _ *rpc.Message) error {
				handledFixed <- a.ID()
				return nil
			},
		})
		require.NoError(t, router.Route(ctx, conn, &rpc.Message{ID: msgChatAck}))
		assert.Equal(t, server, <-handledFixed)
		require.NoError(t, directory.Stop(ctx))
	})
}

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
	"fmt"
	"sync"

	"github.com/tochemey/gamecore/actor"
	gerrors "github.com/tochemey/gamecore/errors"
	"github.com/tochemey/gamecore/internal/xsync"
	"github.com/tochemey/gamecore/log"
	"github.com/tochemey/gamecore/rpc"
	"github.com/tochemey/gamecore/session"
)

// Resolver returns the actor an inbound message targets.
type Resolver func(ctx context.Context, conn rpc.Conn, msg *rpc.Message) (actor.ID, error)

// Route binds an inbound message id to its target and handler.
type Route struct {
	// Resolve finds the target actor.
	Resolve Resolver
	// Handle runs on the target actor's turn.
	Handle func(ctx context.Context, target *actor.Actor, conn rpc.Conn, msg *rpc.Message) error
}

// Router turns inbound messages into work on the target actor's mailbox.
type Router struct {
	mu          sync.RWMutex
	routes      map[int32]Route
	directory   *actor.Directory
	correlators *xsync.Map[rpc.Conn, *rpc.Correlator]
	logger      log.Logger
}

// NewRouter creates a Router.
func NewRouter(directory *actor.Directory, logger log.Logger) *Router {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &Router{
		routes:      make(map[int32]Route),
		directory:   directory,
		correlators: xsync.NewMap[rpc.Conn, *rpc.Correlator](),
		logger:      logger,
	}
}

// Handle registers the route of msgID, replacing any previous one.
func (r *Router) Handle(msgID int32, route Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[msgID] = route
}

// Bind lets replies received on conn complete the calls of correlator.
func (r *Router) Bind(conn rpc.Conn, correlator *rpc.Correlator) {
	r.correlators.Set(conn, correlator)
}

// Unbind forgets the correlator of conn.
func (r *Router) Unbind(conn rpc.Conn) {
	r.correlators.Delete(conn)
}

// Route dispatches msg received on conn. Replies to pending calls complete
// them. Other messages are queued on the target actor. A message whose
// target cannot be resolved closes conn.
func (r *Router) Route(ctx context.Context, conn rpc.Conn, msg *rpc.Message) error {
	if correlator, ok := r.correlators.Get(conn); ok && correlator.Reply(msg) {
		return nil
	}

	r.mu.RLock()
	route, ok := r.routes[msg.ID]
	r.mu.RUnlock()
	if !ok {
		err := fmt.Errorf("message %d: %w", msg.ID, gerrors.ErrHandlerNotFound)
		r.logger.Warn(err)
		return err
	}

	var err error
	for range 2 {
		var target *actor.Actor
		if target, err = r.resolve(ctx, conn, route, msg); err != nil {
			return err
		}
		err = target.Tell(ctx, func(ctx context.Context) error {
			return route.Handle(ctx, target.Current(), conn, msg)
		})
		// recycled between lookup and Tell
		if !errors.Is(err, gerrors.ErrMailboxStopped) {
			return err
		}
	}
	return err
}

func (r *Router) resolve(ctx context.Context, conn rpc.Conn, route Route, msg *rpc.Message) (*actor.Actor, error) {
	id, err := route.Resolve(ctx, conn, msg)
	if err == nil {
		var target *actor.Actor
		if target, err = r.directory.GetOrCreate(ctx, id); err == nil {
			return target, nil
		}
	}

	r.logger.Errorf("message %d: closing connection, target unresolvable: %v", msg.ID, err)
	if closeErr := conn.Close(); closeErr != nil {
		r.logger.Warnf("message %d: closing connection: %v", msg.ID, closeErr)
	}
	return nil, fmt.Errorf("message %d: %w: %w", msg.ID, gerrors.ErrUnresolvableActor, err)
}

// SessionResolver targets the actor the connection's session is attached to.
func SessionResolver(manager *session.Manager) Resolver {
	return func(_ context.Context, conn rpc.Conn, msg *rpc.Message) (actor.ID, error) {
		id, ok := manager.ActorOf(conn)
		if !ok {
			return 0, fmt.Errorf("message %d: connection has no session", msg.ID)
		}
		return id, nil
	}
}

// FixedResolver always targets id, such as a server singleton.
func FixedResolver(id actor.ID) Resolver {
	return func(context.Context, rpc.Conn, *rpc.Message) (actor.ID, error) {
		return id, nil
	}
}

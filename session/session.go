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

package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tochemey/gamecore/actor"
	"github.com/tochemey/gamecore/event"
	"github.com/tochemey/gamecore/log"
	"github.com/tochemey/gamecore/rpc"
)

// Session binds a client connection to the actor it plays.
type Session struct {
	ID         string
	ActorID    actor.ID
	Conn       rpc.Conn
	AttachedAt time.Time
}

// Manager tracks the attached sessions. While a session is attached its
// actor is pinned and listed as online.
type Manager struct {
	mu         sync.Mutex
	sessions   map[actor.ID]*Session
	byConn     map[rpc.Conn]actor.ID
	directory  *actor.Directory
	dispatcher *event.Dispatcher
	online     *event.OnlineSet
	logger     log.Logger
}

// NewManager creates a Manager.
func NewManager(directory *actor.Directory, dispatcher *event.Dispatcher, online *event.OnlineSet, logger log.Logger) *Manager {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &Manager{
		sessions:   make(map[actor.ID]*Session),
		byConn:     make(map[rpc.Conn]actor.ID),
		directory:  directory,
		dispatcher: dispatcher,
		online:     online,
		logger:     logger,
	}
}

// Attach binds conn to actorID, replacing and closing an older session of
// the same actor. The actor stops being recycled, is marked online and
// receives a SessionAttach event with the new session as payload. The
// online set pins the id itself, so an instance created after a recycle
// stays pinned too.
func (m *Manager) Attach(ctx context.Context, actorID actor.ID, conn rpc.Conn) (*Session, error) {
	added := m.online.Add(actorID)
	target, err := m.directory.GetOrCreate(ctx, actorID)
	if err != nil {
		if _, attached := m.Get(actorID); added && !attached {
			m.online.Remove(actorID)
		}
		return nil, err
	}
	target.SetAutoRecycle(false)

	session := &Session{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		Conn:       conn,
		AttachedAt: time.Now(),
	}

	m.mu.Lock()
	previous := m.sessions[actorID]
	if previous != nil {
		delete(m.byConn, previous.Conn)
	}
	m.sessions[actorID] = session
	m.byConn[conn] = actorID
	m.mu.Unlock()

	if previous != nil && previous.Conn != conn {
		m.logger.Infof("actor %s: session %s replaced by %s", actorID, previous.ID, session.ID)
		if err := previous.Conn.Close(); err != nil {
			m.logger.Warnf("actor %s: closing replaced session %s: %v", actorID, previous.ID, err)
		}
	}

	if err := m.dispatcher.Dispatch(ctx, actorID, event.SessionAttach, session); err != nil {
		return session, err
	}
	return session, nil
}

// Detach removes the session of actorID and marks it offline. The
// SessionRemove event is queued after the actor's pending work; once it
// ran the actor becomes recyclable again unless a new session attached
// meanwhile. It reports whether there was a session.
func (m *Manager) Detach(ctx context.Context, actorID actor.ID) (bool, error) {
	return m.detach(ctx, actorID, nil)
}

// DetachConn detaches the session owning conn, if any.
func (m *Manager) DetachConn(ctx context.Context, conn rpc.Conn) (bool, error) {
	actorID, ok := m.ActorOf(conn)
	if !ok {
		return false, nil
	}
	return m.detach(ctx, actorID, conn)
}

// ActorOf returns the actor conn is attached to.
func (m *Manager) ActorOf(conn rpc.Conn) (actor.ID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byConn[conn]
	return id, ok
}

// detach removes the session of actorID, only when it still uses conn
// unless conn is nil.
func (m *Manager) detach(ctx context.Context, actorID actor.ID, conn rpc.Conn) (bool, error) {
	m.mu.Lock()
	session, ok := m.sessions[actorID]
	if ok && conn != nil && session.Conn != conn {
		ok = false
	}
	if ok {
		delete(m.sessions, actorID)
		delete(m.byConn, session.Conn)
	}
	m.mu.Unlock()
	if !ok {
		return false, nil
	}

	m.online.Remove(actorID)
	target, found := m.directory.Get(actorID)
	if !found {
		return true, nil
	}

	if err := m.dispatcher.Dispatch(ctx, actorID, event.SessionRemove, session); err != nil {
		return true, err
	}
	return true, target.Tell(ctx, func(context.Context) error {
		if _, attached := m.Get(actorID); !attached {
			target.Current().SetAutoRecycle(true)
		}
		return nil
	})
}

// Get returns the session of actorID.
func (m *Manager) Get(actorID actor.ID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[actorID]
	return session, ok
}

// Len returns the number of attached sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

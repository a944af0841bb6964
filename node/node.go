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

// Package node assembles a game server from its configuration: the worker
// pool, actor directory, storage backend, event dispatcher, sessions and
// the gateway router, started and stopped in dependency order.
package node

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/atomic"

	"github.com/tochemey/gamecore/actor"
	"github.com/tochemey/gamecore/config"
	"github.com/tochemey/gamecore/entity"
	gerrors "github.com/tochemey/gamecore/errors"
	"github.com/tochemey/gamecore/event"
	"github.com/tochemey/gamecore/gateway"
	"github.com/tochemey/gamecore/internal/errorschain"
	"github.com/tochemey/gamecore/internal/metric"
	"github.com/tochemey/gamecore/internal/workerpool"
	"github.com/tochemey/gamecore/log"
	"github.com/tochemey/gamecore/passivation"
	"github.com/tochemey/gamecore/rpc"
	rpcnats "github.com/tochemey/gamecore/rpc/nats"
	"github.com/tochemey/gamecore/session"
	"github.com/tochemey/gamecore/storage"
)

const schedulerStopTimeout = 5 * time.Second

// Node is one game server process.
type Node struct {
	cfg    *config.Config
	logger log.Logger
	metric *metric.RuntimeMetric

	pool       *workerpool.WorkerPool
	scheduler  *actor.Scheduler
	backend    storage.Backend
	agents     *actor.Registry
	directory  *actor.Directory
	listeners  *event.Registry
	online     *event.OnlineSet
	dispatcher *event.Dispatcher
	sessions   *session.Manager
	router     *gateway.Router

	natsConn   *nats.Conn
	transport  *rpcnats.Conn
	correlator *rpc.Correlator

	mu      sync.Mutex
	started atomic.Bool
	stopped atomic.Bool
}

// New builds a Node from cfg. Nothing runs until Start.
func New(cfg *config.Config, opts ...Option) (*Node, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := &Node{cfg: cfg}
	for _, opt := range opts {
		opt.Apply(n)
	}

	if n.logger == nil {
		n.logger = log.NewZap(cfg.Level(), os.Stdout)
	}
	if n.metric == nil {
		rm, err := metric.Default()
		if err != nil {
			return nil, fmt.Errorf("node: %w", err)
		}
		n.metric = rm
	}
	if n.backend == nil {
		backend, err := openBackend(cfg.Storage)
		if err != nil {
			return nil, err
		}
		n.backend = backend
	}

	poolOpts := []workerpool.Option{
		workerpool.WithIdleTimeout(cfg.Workers.IdleAfter),
		workerpool.WithPanicHandler(func(recovered any) {
			n.logger.Errorf("worker recovered from panic: %v", recovered)
		}),
	}
	if cfg.Workers.Shards > 0 {
		poolOpts = append(poolOpts, workerpool.WithNumShards(cfg.Workers.Shards))
	}
	n.pool = workerpool.New(poolOpts...)
	n.scheduler = actor.NewScheduler(n.logger, schedulerStopTimeout)
	n.agents = actor.NewRegistry()

	n.online = event.NewOnlineSet()
	n.directory = actor.NewDirectory(
		actor.WithPool(n.pool),
		actor.WithScheduler(n.scheduler),
		actor.WithRegistry(n.agents),
		actor.WithLogger(n.logger),
		actor.WithMetric(n.metric),
		actor.WithActorMailboxTimeout(mailboxTimeout(cfg.Mailbox)),
		actor.WithActorMailboxCapacity(cfg.Mailbox.Capacity),
		actor.WithSaveInterval(cfg.Persistence.SaveInterval),
		actor.WithSaveConcurrency(cfg.Persistence.SaveConcurrency),
		actor.WithRecycleInterval(cfg.Recycle.CheckInterval),
		actor.WithDefaultRecycleStrategy(recycleStrategy(cfg.Recycle)),
		actor.WithPinned(n.online.Contains),
	)

	n.listeners = event.NewRegistry()
	n.dispatcher = event.NewDispatcher(n.directory, n.listeners, n.online,
		event.WithLogger(n.logger),
		event.WithMetric(n.metric),
		event.WithServerID(cfg.ServerID),
	)
	n.sessions = session.NewManager(n.directory, n.dispatcher, n.online, n.logger)
	n.router = gateway.NewRouter(n.directory, n.logger)
	return n, nil
}

// Config returns the node configuration.
func (n *Node) Config() *config.Config { return n.cfg }

// Logger returns the node logger.
func (n *Node) Logger() log.Logger { return n.logger }

// Backend returns the storage backend.
func (n *Node) Backend() storage.Backend { return n.backend }

// Agents returns the registry component agents are declared in.
func (n *Node) Agents() *actor.Registry { return n.agents }

// Directory returns the actor directory.
func (n *Node) Directory() *actor.Directory { return n.directory }

// Listeners returns the registry event listeners are declared in.
func (n *Node) Listeners() *event.Registry { return n.listeners }

// Online returns the set of actors with an attached session.
func (n *Node) Online() *event.OnlineSet { return n.online }

// Dispatcher returns the event dispatcher.
func (n *Node) Dispatcher() *event.Dispatcher { return n.dispatcher }

// Sessions returns the session manager.
func (n *Node) Sessions() *session.Manager { return n.sessions }

// Router returns the gateway router.
func (n *Node) Router() *gateway.Router { return n.router }

// Transport returns the NATS connection messages are routed from, or nil
// when no NATS url is configured or the node is not started.
func (n *Node) Transport() rpc.Conn {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.transport == nil {
		return nil
	}
	return n.transport
}

// NewCorrelator creates a correlator over conn using the node rpc settings.
func (n *Node) NewCorrelator(conn rpc.Conn) *rpc.Correlator {
	return rpc.NewCorrelator(conn,
		rpc.WithCorrelatorLogger(n.logger),
		rpc.WithCorrelatorMetric(n.metric),
		rpc.WithDefaultTimeout(n.cfg.RPC.CallTimeout),
		rpc.WithSweepInterval(n.cfg.RPC.SweepInterval),
	)
}

// NewRepository creates a repository of collection on the node backend.
func NewRepository[S entity.Entity](n *Node, collection string, newState func() S) *storage.Repository[S] {
	return storage.NewRepository(n.backend, collection, newState,
		storage.WithRepositoryLogger(n.logger),
		storage.WithRepositoryMetric(n.metric),
	)
}

// Start checks the storage backend, then starts the worker pool, the
// timers, the directory loops and, when configured, the NATS transport.
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.stopped.Load() {
		return gerrors.ErrNodeStopped
	}
	if n.started.Load() {
		return nil
	}

	if err := n.backend.Ping(ctx); err != nil {
		return fmt.Errorf("node: storage unreachable: %w", err)
	}

	n.pool.Start()
	n.scheduler.Start(ctx)
	if err := n.directory.Start(ctx); err != nil {
		n.scheduler.Stop(ctx)
		n.pool.Stop()
		return err
	}

	if n.cfg.NATS.URL != "" {
		if err := n.startTransport(ctx); err != nil {
			_ = n.directory.Stop(ctx)
			n.scheduler.Stop(ctx)
			n.pool.Stop()
			return err
		}
	}

	n.started.Store(true)
	n.logger.Infof("node %d started", n.cfg.ServerID)
	return nil
}

// Stop closes the transport, flushes and deactivates every actor, then
// stops the timers, the worker pool and the storage backend. Every step
// runs and the failures are returned together.
func (n *Node) Stop(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.stopped.CompareAndSwap(false, true) {
		return nil
	}

	chain := errorschain.New(errorschain.ReturnAll())
	if n.transport != nil {
		n.router.Unbind(n.transport)
		chain.AddErrorFn(n.correlator.Close).
			AddErrorFn(n.transport.Close).
			AddErrorFn(func() error {
				if err := n.natsConn.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
					return err
				}
				return nil
			})
		n.transport = nil
	}

	chain.AddErrorFn(func() error { return n.directory.Stop(ctx) })
	if n.started.Load() {
		n.scheduler.Stop(ctx)
		n.pool.Stop()
	}
	chain.AddErrorFn(n.backend.Close)

	err := chain.Error()
	if err != nil {
		n.logger.Errorf("node %d stopped with errors: %v", n.cfg.ServerID, err)
	} else {
		n.logger.Infof("node %d stopped", n.cfg.ServerID)
	}
	_ = n.logger.Flush()
	return err
}

// startTransport connects to NATS and routes every inbound message
// through the gateway router. Replies to outbound calls made with the
// transport correlator are matched before routing.
func (n *Node) startTransport(ctx context.Context) error {
	connection, err := rpcnats.Connect(ctx, n.cfg.NATS.URL, fmt.Sprintf("gamecore-%d", n.cfg.ServerID))
	if err != nil {
		return err
	}

	var (
		transport *rpcnats.Conn
		ready     = make(chan struct{})
	)
	handler := func(ctx context.Context, msg *rpc.Message) {
		<-ready
		if err := n.router.Route(ctx, transport, msg); err != nil {
			n.logger.Warnf("message %d not routed: %v", msg.ID, err)
		}
	}

	subject := n.cfg.NATS.Subject
	transport, err = rpcnats.NewConn(connection, subject+".out", subject+".in", handler,
		rpcnats.WithLogger(n.logger))
	if err != nil {
		connection.Close()
		return err
	}
	close(ready)
	if err := transport.Flush(); err != nil {
		_ = transport.Close()
		connection.Close()
		return fmt.Errorf("node: %w", err)
	}

	n.natsConn = connection
	n.transport = transport
	n.correlator = n.NewCorrelator(transport)
	n.router.Bind(transport, n.correlator)
	n.logger.Infof("listening on nats subject %s.in", subject)
	return nil
}

func openBackend(cfg config.StorageConfig) (storage.Backend, error) {
	var backend storage.Backend
	switch cfg.Driver {
	case config.DriverBolt:
		bolt, err := storage.NewBolt(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("node: %w", err)
		}
		backend = bolt
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		backend = storage.NewRedis(client, cfg.RedisPrefix)
	default:
		backend = storage.NewMemory()
	}

	compression, err := storage.ParseCompression(cfg.Compression)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	if backend, err = storage.WithCompression(backend, compression); err != nil {
		return nil, err
	}
	if cfg.Cache {
		backend = storage.NewCached(backend, storage.NewMemory())
	}
	return backend, nil
}

func mailboxTimeout(cfg config.MailboxConfig) time.Duration {
	if cfg.Timeout == 0 {
		return actor.DefaultMailboxTimeout
	}
	return cfg.Timeout
}

func recycleStrategy(cfg config.RecycleConfig) passivation.Strategy {
	switch cfg.Strategy {
	case config.StrategyImmediate:
		return passivation.NewImmediateStrategy()
	case config.StrategyLongLived:
		return passivation.NewLongLivedStrategy()
	default:
		return passivation.NewTimeBasedStrategy(cfg.IdleAfter)
	}
}

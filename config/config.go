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

package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tochemey/gamecore/actor"
	gerrors "github.com/tochemey/gamecore/errors"
	"github.com/tochemey/gamecore/internal/errorschain"
	"github.com/tochemey/gamecore/internal/validation"
	"github.com/tochemey/gamecore/log"
	"github.com/tochemey/gamecore/storage"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverBolt   = "bolt"
	DriverRedis  = "redis"
)

// Recycle strategies.
const (
	StrategyTimeBased = "time-based"
	StrategyImmediate = "immediate"
	StrategyLongLived = "long-lived"
)

// envPrefix prefixes the environment variables overriding a loaded file.
const envPrefix = "GAMECORE_"

var (
	natsURLPattern = regexp.MustCompile(`^(nats|tls)://[^\s/]+(:\d+)?$`)
	subjectPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+(\.[A-Za-z0-9_\-*>]+)*$`)
)

// MailboxConfig configures actor mailboxes.
type MailboxConfig struct {
	// Timeout bounds a work item. Negative disables the bound.
	Timeout time.Duration `yaml:"timeout"`
	// Capacity bounds each mailbox. Zero keeps them unbounded.
	Capacity int `yaml:"capacity"`
}

// RPCConfig configures call correlation.
type RPCConfig struct {
	CallTimeout   time.Duration `yaml:"call_timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// PersistenceConfig configures the save cycle.
type PersistenceConfig struct {
	SaveInterval    time.Duration `yaml:"save_interval"`
	SaveConcurrency int           `yaml:"save_concurrency"`
}

// RecycleConfig configures the recycle sweep.
type RecycleConfig struct {
	Strategy      string        `yaml:"strategy"`
	IdleAfter     time.Duration `yaml:"idle_after"`
	CheckInterval time.Duration `yaml:"check_interval"`
}

// WorkersConfig configures the shared worker pool.
type WorkersConfig struct {
	Shards    int           `yaml:"shards"`
	IdleAfter time.Duration `yaml:"idle_after"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Driver      string `yaml:"driver"`
	Path        string `yaml:"path"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisDB     int    `yaml:"redis_db"`
	RedisPrefix string `yaml:"redis_prefix"`
	Compression string `yaml:"compression"`
	// Cache puts an in-memory read-through cache in front of the backend.
	Cache bool `yaml:"cache"`
}

// NATSConfig configures the NATS transport. An empty URL disables it.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Config is the runtime configuration of a node.
type Config struct {
	ServerID    uint16            `yaml:"server_id"`
	LogLevel    string            `yaml:"log_level"`
	Mailbox     MailboxConfig     `yaml:"mailbox"`
	RPC         RPCConfig         `yaml:"rpc"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Recycle     RecycleConfig     `yaml:"recycle"`
	Workers     WorkersConfig     `yaml:"workers"`
	Storage     StorageConfig     `yaml:"storage"`
	NATS        NATSConfig        `yaml:"nats"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		ServerID: 1,
		LogLevel: log.InfoLevel.String(),
		Mailbox: MailboxConfig{
			Timeout: actor.DefaultMailboxTimeout,
		},
		RPC: RPCConfig{
			CallTimeout:   10 * time.Second,
			SweepInterval: 100 * time.Millisecond,
		},
		Persistence: PersistenceConfig{
			SaveInterval:    actor.DefaultSaveInterval,
			SaveConcurrency: actor.DefaultSaveConcurrency,
		},
		Recycle: RecycleConfig{
			Strategy:      StrategyTimeBased,
			IdleAfter:     actor.DefaultRecycleTimeout,
			CheckInterval: actor.DefaultRecycleInterval,
		},
		Workers: WorkersConfig{
			IdleAfter: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver:      DriverMemory,
			RedisPrefix: "gamecore",
			Compression: string(storage.NoCompression),
		},
		NATS: NATSConfig{
			Subject: "gamecore",
		},
	}
}

// New returns the default configuration with opts applied.
func New(opts ...Option) *Config {
	cfg := Default()
	for _, opt := range opts {
		opt.Apply(cfg)
	}
	return cfg
}

// Load reads the YAML file at path over the defaults, then applies the
// GAMECORE_* environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse is Load on in-memory YAML.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w: %w", gerrors.ErrInvalidConfig, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Level returns the parsed log level.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Validate checks the configuration and reports every violation.
func (c *Config) Validate() error {
	chain := validation.New(validation.AllErrors()).
		AddRule("server_id", c.ServerID <= actor.MaxServerID, fmt.Sprintf("must not exceed %d", actor.MaxServerID)).
		AddRule("rpc.call_timeout", c.RPC.CallTimeout > 0, "must be positive").
		AddRule("rpc.sweep_interval", c.RPC.SweepInterval > 0, "must be positive").
		AddRule("persistence.save_interval", c.Persistence.SaveInterval >= 0, "must not be negative").
		AddRule("persistence.save_concurrency", c.Persistence.SaveConcurrency > 0, "must be positive").
		AddRule("recycle.check_interval", c.Recycle.CheckInterval >= 0, "must not be negative").
		AddRule("recycle.idle_after", c.Recycle.Strategy != StrategyTimeBased || c.Recycle.IdleAfter > 0, "must be positive").
		AddRule("mailbox.capacity", c.Mailbox.Capacity >= 0, "must not be negative").
		AddRule("workers.shards", c.Workers.Shards >= 0, "must not be negative").
		AddRule("workers.idle_after", c.Workers.IdleAfter > 0, "must be positive")

	switch c.Recycle.Strategy {
	case StrategyTimeBased, StrategyImmediate, StrategyLongLived:
	default:
		chain.AddRule("recycle.strategy", false, fmt.Sprintf("%q is not supported", c.Recycle.Strategy))
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverBolt:
		chain.AddRule("storage.path", c.Storage.Path != "", "is required by the bolt driver")
	case DriverRedis:
		chain.AddValidator(validation.NewAddressValidator("storage.redis_addr", c.Storage.RedisAddr)).
			AddRule("storage.redis_db", c.Storage.RedisDB >= 0, "must not be negative")
	default:
		chain.AddRule("storage.driver", false, fmt.Sprintf("%q is not supported", c.Storage.Driver))
	}

	if c.NATS.URL != "" {
		chain.AddValidator(validation.NewPatternValidator("nats.url", natsURLPattern, c.NATS.URL)).
			AddValidator(validation.NewPatternValidator("nats.subject", subjectPattern, c.NATS.Subject))
	}

	err := errorschain.New(errorschain.ReturnAll()).
		AddErrorFn(chain.Validate).
		AddErrorFn(func() error {
			if _, err := log.ParseLevel(c.LogLevel); err != nil {
				return fmt.Errorf("log_level: %w", err)
			}
			return nil
		}).
		AddErrorFn(func() error {
			_, err := storage.ParseCompression(c.Storage.Compression)
			return err
		}).
		Error()
	if err != nil {
		return fmt.Errorf("config: %w: %w", gerrors.ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(envPrefix + "SERVER_ID"); ok {
		id, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return fmt.Errorf("config: %sSERVER_ID: %w: %w", envPrefix, gerrors.ErrInvalidConfig, err)
		}
		c.ServerID = uint16(id)
	}
	if v, ok := os.LookupEnv(envPrefix + "LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv(envPrefix + "REDIS_ADDR"); ok {
		c.Storage.RedisAddr = v
	}
	if v, ok := os.LookupEnv(envPrefix + "NATS_URL"); ok {
		c.NATS.URL = v
	}
	return nil
}

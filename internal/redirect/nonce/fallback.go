package nonce

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// FallbackStore fronts a durable store with a process-local MemoryStore. When the durable
// backend errors, the call is answered by the local ledger and the outage is reported; it is
// never swallowed silently.
type FallbackStore struct {
	primary       Store
	local         *MemoryStore
	logger        *zap.Logger
	onUnavailable func(error)
}

// NewFallbackStore wraps primary. onUnavailable may be nil.
func NewFallbackStore(primary Store, local *MemoryStore, logger *zap.Logger, onUnavailable func(error)) *FallbackStore {
	if onUnavailable == nil {
		onUnavailable = func(error) {}
	}
	return &FallbackStore{
		primary:       primary,
		local:         local,
		logger:        logger,
		onUnavailable: onUnavailable,
	}
}

func (f *FallbackStore) Reserve(ctx context.Context, jti string) (bool, error) {
	used, err := f.primary.Reserve(ctx, jti)
	if err != nil {
		f.logger.Error("durable nonce store unavailable, replay protection degraded to this process",
			zap.Error(err),
		)
		f.onUnavailable(err)
		return f.local.Reserve(ctx, jti)
	}
	if used {
		return true, nil
	}

	// Mirror durable reservations locally. A jti redeemed locally during an outage is still
	// refused here after the durable store recovers.
	return f.local.Reserve(ctx, jti)
}

func (f *FallbackStore) Ping(ctx context.Context) error {
	if p, ok := f.primary.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Options selects and configures a backend for Open.
type Options struct {
	Driver        string
	TTL           time.Duration
	Redis         *RedisStore
	SQLite        *SQLiteStore
	Logger        *zap.Logger
	OnUnavailable func(error)
	PingTimeout   time.Duration
}

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Open selects the nonce store once, at construction. A durable backend that cannot be
// reached at startup is still wrapped in a FallbackStore, so every Reserve retries it and
// service recovers on its own once the backend comes back. The outage is logged and reported.
func Open(ctx context.Context, opts Options) (Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	onUnavailable := opts.OnUnavailable
	if onUnavailable == nil {
		onUnavailable = func(error) {}
	}
	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 2 * time.Second
	}
	local := NewMemoryStore(opts.TTL)

	var durable interface {
		Store
		Pinger
	}
	switch opts.Driver {
	case DriverMemory, "":
		logger.Warn("using process-local nonce store, replay protection limited to this process")
		return local, nil
	case DriverRedis:
		if opts.Redis == nil {
			return nil, fmt.Errorf("nonce store: redis driver selected without a redis store")
		}
		durable = opts.Redis
	case DriverSQLite:
		if opts.SQLite == nil {
			return nil, fmt.Errorf("nonce store: sqlite driver selected without a sqlite store")
		}
		durable = opts.SQLite
	default:
		return nil, fmt.Errorf("nonce store: unknown driver %q", opts.Driver)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := durable.Ping(pingCtx); err != nil {
		logger.Error("durable nonce store unreachable at startup, degraded until it recovers",
			zap.String("driver", opts.Driver),
			zap.Error(err),
		)
		onUnavailable(err)
	} else {
		logger.Info("nonce store ready", zap.String("driver", opts.Driver), zap.Duration("ttl", opts.TTL))
	}

	return NewFallbackStore(durable, local, logger, onUnavailable), nil
}

package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/botflow/internal/config"
	"github.com/aretw0/botflow/pkg/adapters/bolt"
	"github.com/aretw0/botflow/pkg/adapters/file"
	"github.com/aretw0/botflow/pkg/adapters/memory"
	"github.com/aretw0/botflow/pkg/adapters/redis"
	"github.com/aretw0/botflow/pkg/adapters/sqlite"
	"github.com/aretw0/botflow/pkg/persistence"
	"github.com/aretw0/botflow/pkg/ports"
)

// Persistence is an opened state store plus the locker that matches it.
type Persistence struct {
	Store  ports.StateStore
	Locker ports.DistributedLocker // nil unless the backend is shared between replicas
	close  func() error
}

// Close releases the backend.
func (p *Persistence) Close() error {
	if p.close == nil {
		return nil
	}
	return p.close()
}

// OpenStore opens the backend selected by cfg and applies the configured decorators.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (*Persistence, error) {
	p, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Encryption.Key == "" {
		return p, nil
	}
	dec, err := encryption(cfg.Encryption)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.Store = persistence.Chain(p.Store, dec)
	return p, nil
}

func encryption(cfg config.EncryptionConfig) (persistence.Decorator, error) {
	active, err := persistence.DecodeKey(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("store.encryption.key: %w", err)
	}
	ec := persistence.EncryptionConfig{ActiveKey: active}
	for i, k := range cfg.FallbackKeys {
		key, err := persistence.DecodeKey(k)
		if err != nil {
			return nil, fmt.Errorf("store.encryption.fallback_keys[%d]: %w", i, err)
		}
		ec.FallbackKeys = append(ec.FallbackKeys, key)
	}
	return persistence.Encrypted(ec)
}

func openBackend(ctx context.Context, cfg config.StoreConfig) (*Persistence, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return &Persistence{Store: memory.NewStore()}, nil

	case config.BackendFile:
		return &Persistence{Store: file.New(cfg.Path)}, nil

	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &Persistence{Store: store, close: store.Close}, nil

	case config.BackendBolt:
		store, err := bolt.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &Persistence{Store: store, close: store.Close}, nil

	case config.BackendRedis:
		opts := []redis.Option{redis.WithPrefix(cfg.Redis.Prefix + "state:")}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
		}
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return &Persistence{
			Store:  store,
			Locker: redis.NewLocker(store.Client(), cfg.Redis.Prefix),
			close:  store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

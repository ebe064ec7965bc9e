package nonce

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "quantum:nonce:"

// RedisStore records nonces with SET NX PX, so uniqueness and expiry are enforced by redis
// itself and hold across every process sharing the instance.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) Reserve(ctx context.Context, jti string) (bool, error) {
	if s.client == nil {
		return false, fmt.Errorf("redis nonce store: nil client")
	}
	set, err := s.client.SetNX(ctx, s.prefix+jti, 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis nonce store: reserve: %w", err)
	}
	return !set, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("redis nonce store: nil client")
	}
	return s.client.Ping(ctx).Err()
}

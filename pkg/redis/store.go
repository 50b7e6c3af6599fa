package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the distributed tier of tenant.Cache on top of go-redis.
// A missing key is reported as ok == false, never as an error.
type Store struct {
	db        redis.UniversalClient
	opTimeout time.Duration
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithOperationTimeout bounds each call so a slow Redis degrades to a cache miss
// instead of stalling resolution. Zero disables the bound.
func WithOperationTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		s.opTimeout = d
	}
}

func NewStore(client redis.UniversalClient, opts ...StoreOption) *Store {
	s := &Store{db: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	val, err := s.db.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores value under key. A non-positive ttl means no expiration.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if ttl < 0 {
		ttl = 0
	}
	return s.db.Set(ctx, key, value, ttl).Err()
}

// Del removes keys. Missing keys are not an error.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.db.Del(ctx, keys...).Err()
}

// Conn returns the underlying Redis client for advanced operations.
func (s *Store) Conn() redis.UniversalClient {
	return s.db
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

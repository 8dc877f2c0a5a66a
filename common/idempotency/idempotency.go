// Package idempotency remembers which booking a client Idempotency-Key
// produced, so a retried POST returns the original booking instead of
// reserving inventory twice.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingMarker = "pending"

var (
	// ErrInFlight means another request holding the same key has not finished.
	ErrInFlight = errors.New("idempotent request still in flight")
)

// Store is the contract the booking engine relies on.
type Store interface {
	// Reserve claims key. It returns the booking id when the key already
	// completed, "" when the caller now owns the key, or ErrInFlight.
	Reserve(ctx context.Context, key string) (string, error)
	// Complete records the booking id for a reserved key.
	Complete(ctx context.Context, key, bookingID string) error
	// Release forgets a reserved key after a failed attempt.
	Release(ctx context.Context, key string) error
}

// RedisStore keeps keys in Redis with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl, prefix: "idempotency:booking:"}
}

// Key scopes a client key to one user.
func Key(userID int64, clientKey string) string {
	return fmt.Sprintf("%d:%s", userID, clientKey)
}

func (s *RedisStore) Reserve(ctx context.Context, key string) (string, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, pendingMarker, s.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return "", nil
	}

	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; treat as in flight rather than racing again.
		return "", ErrInFlight
	}
	if err != nil {
		return "", fmt.Errorf("read idempotency key: %w", err)
	}
	if val == pendingMarker {
		return "", ErrInFlight
	}
	return val, nil
}

func (s *RedisStore) Complete(ctx context.Context, key, bookingID string) error {
	if err := s.client.Set(ctx, s.prefix+key, bookingID, s.ttl).Err(); err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable; used by the health endpoint.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

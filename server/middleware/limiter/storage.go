package limiter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"bizpilot/pkg/breaker"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// Storage is an interface for storing and retrieving token buckets
type Storage interface {
	// Get retrieves a token bucket for the given key, or nil if there is none
	Get(ctx context.Context, key string) (*TokenBucket, error)

	// Set stores a token bucket for the given key
	Set(ctx context.Context, key string, bucket *TokenBucket) error

	// SetIfNotExists stores the bucket only if the key is free
	SetIfNotExists(ctx context.Context, key string, bucket *TokenBucket) (bool, error)

	// Delete removes a token bucket for the given key
	Delete(ctx context.Context, key string) error

	// Reset clears all stored token buckets
	Reset(ctx context.Context) error
}

type InMemoryStorage struct {
	buckets map[string]*TokenBucket
	mu      sync.RWMutex
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		buckets: make(map[string]*TokenBucket),
	}
}

func (s *InMemoryStorage) Get(_ context.Context, key string) (*TokenBucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.buckets[key], nil
}

func (s *InMemoryStorage) Set(_ context.Context, key string, bucket *TokenBucket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buckets[key] = bucket
	return nil
}

func (s *InMemoryStorage) SetIfNotExists(_ context.Context, key string, bucket *TokenBucket) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.buckets[key]; exists {
		return false, nil
	}
	s.buckets[key] = bucket
	return true, nil
}

func (s *InMemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.buckets, key)
	return nil
}

func (s *InMemoryStorage) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buckets = make(map[string]*TokenBucket)
	return nil
}

const redisKeyPrefix = "ratelimit:"

// RedisStorage shares buckets between instances. Calls go through a circuit
// breaker so a dead Redis is skipped quickly instead of timing out per request.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
	cb     *gobreaker.CircuitBreaker
}

func NewRedisStorage(client *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client: client,
		ttl:    ttl,
		cb: breaker.New(breaker.Config{
			Name:        "redis-ratelimit",
			MaxRequests: 3,
			Interval:    30 * time.Second,
			Timeout:     15 * time.Second,
		}),
	}
}

func (s *RedisStorage) Get(ctx context.Context, key string) (*TokenBucket, error) {
	data, err := breaker.ExecuteCtx(ctx, s.cb, func() ([]byte, error) {
		data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	bucket := &TokenBucket{}
	if err := json.Unmarshal(data, bucket); err != nil {
		return nil, fmt.Errorf("failed to decode bucket: %w", err)
	}

	return bucket, nil
}

func (s *RedisStorage) Set(ctx context.Context, key string, bucket *TokenBucket) error {
	data, err := marshalBucket(bucket)
	if err != nil {
		return err
	}

	_, err = breaker.ExecuteCtx(ctx, s.cb, func() (struct{}, error) {
		return struct{}{}, s.client.Set(ctx, redisKeyPrefix+key, data, s.ttl).Err()
	})
	return err
}

// SetIfNotExists uses SETNX so concurrent instances agree on the first bucket
func (s *RedisStorage) SetIfNotExists(ctx context.Context, key string, bucket *TokenBucket) (bool, error) {
	data, err := marshalBucket(bucket)
	if err != nil {
		return false, err
	}

	return breaker.ExecuteCtx(ctx, s.cb, func() (bool, error) {
		return s.client.SetNX(ctx, redisKeyPrefix+key, data, s.ttl).Result()
	})
}

func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	_, err := breaker.ExecuteCtx(ctx, s.cb, func() (struct{}, error) {
		return struct{}{}, s.client.Del(ctx, redisKeyPrefix+key).Err()
	})
	return err
}

// Reset removes only the limiter's own keys
func (s *RedisStorage) Reset(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func marshalBucket(bucket *TokenBucket) ([]byte, error) {
	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	data, err := json.Marshal(bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bucket: %w", err)
	}
	return data, nil
}

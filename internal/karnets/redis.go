package karnets

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/signet-works/signet/internal/logx"
)

// RedisCache is the networked karnet backend. TTL enforcement is delegated
// to Redis key expiry; entries share a configured namespace so several
// services can use one instance.
type RedisCache struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewRedisCache connects to the given Redis URI (redis://...) and scopes
// all keys under namespace.
func NewRedisCache(uri, namespace string, ttl time.Duration) (*RedisCache, error) {
	if uri == "" {
		return nil, errors.New("redis uri is required")
	}
	if namespace == "" {
		return nil, errors.New("karnet namespace is required")
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse redis uri: %w", err)
	}
	return &RedisCache{
		client:    redis.NewClient(opts),
		namespace: namespace,
		ttl:       ttl,
	}, nil
}

func (r *RedisCache) key(karnet string) string {
	return r.namespace + ":" + karnet
}

func (r *RedisCache) Set(ctx context.Context, karnet string, secretEncrypted []byte) error {
	if err := r.client.Set(ctx, r.key(karnet), secretEncrypted, r.ttl).Err(); err != nil {
		return fmt.Errorf("set karnet: %w", err)
	}
	logx.Debugf("karnets: stored secret for karnet %s", karnet)
	return nil
}

func (r *RedisCache) Get(ctx context.Context, karnet string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key(karnet)).Bytes()
	if err == redis.Nil {
		r.misses.Add(1)
		cacheMisses.Inc()
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get karnet: %w", err)
	}
	r.hits.Add(1)
	cacheHits.Inc()
	return val, nil
}

func (r *RedisCache) Delete(ctx context.Context, karnet string) error {
	if err := r.client.Del(ctx, r.key(karnet)).Err(); err != nil {
		return fmt.Errorf("delete karnet: %w", err)
	}
	return nil
}

func (r *RedisCache) Metrics() Metrics {
	return Metrics{Hits: r.hits.Load(), Misses: r.misses.Load()}
}

// Close releases the underlying Redis connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

var _ Cache = (*RedisCache)(nil)
var _ Cache = (*MemoryCache)(nil)

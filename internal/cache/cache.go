// Package cache holds answer caches keyed by a digest of the prompt.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"docqa/internal/redis"
)

// KeyPrefix namespaces answer keys in a shared redis database.
const KeyPrefix = "docqa:answer:"

// Store is the minimal surface the answer cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// MemoryStore is a bounded in-process LRU whose entries expire after ttl.
type MemoryStore struct {
	entries *expirable.LRU[string, string]
}

func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{entries: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.entries.Get(key)
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.entries.Add(key, value)
	return nil
}

func (m *MemoryStore) Len() int {
	return m.entries.Len()
}

// RedisStore shares answers between replicas through redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	return r.client.Get(ctx, key)
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, r.ttl)
}

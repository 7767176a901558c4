package cache

import (
	"context"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"docqa/internal/config"
	"docqa/internal/redis"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2, time.Minute)

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v err %v", ok, err)
	}

	if err := store.Set(ctx, "a", "1"); err != nil {
		t.Fatalf("Set a: %v", err)
	}
	if err := store.Set(ctx, "b", "2"); err != nil {
		t.Fatalf("Set b: %v", err)
	}
	v, ok, err := store.Get(ctx, "a")
	if err != nil || !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v, %v", v, ok, err)
	}

	// "b" is now least recently used and gets evicted.
	if err := store.Set(ctx, "c", "3"); err != nil {
		t.Fatalf("Set c: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if store.Len() != 2 {
		t.Fatalf("Len = %d", store.Len())
	}
}

func TestMemoryStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(4, 20*time.Millisecond)
	if err := store.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		if _, ok, _ := store.Get(ctx, "k"); !ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("entry did not expire")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRedisStore(t *testing.T) {
	client := newTestRedisClient(t, KeyPrefix)
	ctx := context.Background()
	store := NewRedisStore(client, time.Minute)
	key := "q-" + strconv.FormatInt(time.Now().UnixNano(), 36)

	if _, ok, err := store.Get(ctx, key); err != nil || ok {
		t.Fatalf("Get before Set = ok %v err %v", ok, err)
	}
	if err := store.Set(ctx, key, "42"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := store.Get(ctx, key)
	if err != nil || !ok || v != "42" {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}

	// A client with another namespace must not see the entry.
	other := NewRedisStore(newTestRedisClient(t, "docqa:other:"), time.Minute)
	if _, ok, err := other.Get(ctx, key); err != nil || ok {
		t.Fatalf("other namespace Get = ok %v err %v", ok, err)
	}
}

func newTestRedisClient(t *testing.T, prefix string) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis-backed cache tests")
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("atoi port: %v", err)
	}
	db := 0
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			db = parsed
		}
	}
	cfg := &config.Config{Redis: config.RedisConfig{Host: host, Port: port, DB: db}}
	client, err := redis.NewRedisClient(context.Background(), cfg, prefix)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

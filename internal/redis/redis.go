package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docqa/internal/config"

	redis "github.com/redis/go-redis/v9"
)

const pingTimeout = 3 * time.Second

var errNotInitialized = errors.New("redis client not initialized")

// Client wraps the go-redis client with the service's key namespace.
type Client struct {
	inner  *redis.Client
	prefix string
}

// Options translates the redis section of the config into go-redis options.
func Options(cfg config.RedisConfig) *redis.Options {
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 6379
	}
	return &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewRedisClient connects and pings the server. Every key passed to the
// client is stored under prefix.
func NewRedisClient(ctx context.Context, cfg *config.Config, prefix string) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	client := redis.NewClient(Options(cfg.Redis))
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", client.Options().Addr, err)
	}
	return &Client{inner: client, prefix: prefix}, nil
}

func (c *Client) key(k string) string {
	return c.prefix + k
}

// Set stores a string value; ttl 0 keeps it forever.
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if c == nil || c.inner == nil {
		return errNotInitialized
	}
	return c.inner.Set(ctx, c.key(key), value, ttl).Err()
}

// Get reports found=false on a miss instead of returning redis.Nil.
func (c *Client) Get(ctx context.Context, key string) (value string, found bool, err error) {
	if c == nil || c.inner == nil {
		return "", false, errNotInitialized
	}
	value, err = c.inner.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (c *Client) Close() error {
	if c == nil || c.inner == nil {
		return nil
	}
	return c.inner.Close()
}

package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPingTimeout = 2 * time.Second

// RedisOptions configures the connection backing the verify-attempt limiter
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// PingTimeout bounds the startup reachability check
	PingTimeout time.Duration
}

// RedisClient is the limiter's Redis connection
type RedisClient struct {
	*redis.Client
	pingTimeout time.Duration
}

// NewRedis builds a client without connecting; commands dial lazily, so an
// unreachable server surfaces as limiter errors rather than a startup failure
func NewRedis(opts RedisOptions) *RedisClient {
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = defaultPingTimeout
	}
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.PingTimeout,
	})
	return &RedisClient{Client: client, pingTimeout: opts.PingTimeout}
}

// Ping checks reachability within the configured timeout
func (c *RedisClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.pingTimeout)
	defer cancel()
	return c.Client.Ping(ctx).Err()
}

// Package redisx wraps the go-redis client with the dial/pool defaults and
// startup diagnostics this codebase's services share, adapted from the
// teacher's redis.Client wrapper.
package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client wraps *redis.Client with a named logger and connection diagnostics.
type Client struct {
	*redis.Client
	log *zap.Logger
}

// NewClient dials addr/db with conservative timeouts and logs the initial
// ping outcome; it does not fail construction if the ping fails, since
// Redis may come up after this process does.
func NewClient(addr string, db int, log *zap.Logger) *Client {
	opts := &redis.Options{
		Addr:         addr,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	}

	c := &Client{
		Client: redis.NewClient(opts),
		log:    log.Named("redis"),
	}

	c.ping(context.Background())

	return c
}

func (c *Client) ping(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	opts := c.Options()
	log := c.log.With(zap.String("addr", opts.Addr), zap.Int("db", opts.DB))

	start := time.Now()
	err := c.Client.Ping(ctx).Err()
	elapsed := time.Since(start)

	if err != nil {
		log.Warn("connection failed", zap.Error(err), zap.Duration("ping_rtt", elapsed))
		return
	}
	log.Info("connection established", zap.Duration("ping_rtt", elapsed))
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	return c.Client.Close()
}

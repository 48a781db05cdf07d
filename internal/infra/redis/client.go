package redis

import (
	"context"
	"fmt"
	"time"

	"genquota-server/internal/domain"

	"github.com/go-redis/redis/v8"
)

const pingTimeout = 5 * time.Second

// NewClient parses a redis:// or rediss:// URL, connects and verifies the connection.
func NewClient(ctx context.Context, url string, logger domain.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Info("Redis connection established", "addr", opts.Addr, "db", opts.DB)
	return client, nil
}

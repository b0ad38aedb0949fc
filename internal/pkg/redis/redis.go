package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// connectTimeout bounds the startup ping; a Redis that is configured but
// unreachable should fail fast instead of hanging server boot.
const connectTimeout = 5 * time.Second

// Config holds the connection settings for the ticket store's Redis.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects to Redis and verifies it is reachable before the
// ticket store starts depending on it.
func NewClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

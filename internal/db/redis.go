package db

import (
	"context"

	"LiveTable/internal/logger"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

// InitRedis takes the address explicitly rather than reading the environment.
func InitRedis(addr string) {
	if addr == "" {
		addr = "localhost:6379"
		logger.Warn("redis_default_addr", nil)
	}

	RDB = redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

func PingRedis(ctx context.Context) error {
	return RDB.Ping(ctx).Err()
}

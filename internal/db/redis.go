package db

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ramblingpm/raceplanner-sub001/internal/config"
)

const redisPingTimeout = 2 * time.Second

// ConnectRedis returns a client for the shared backfill lock and the
// cross-node progress channel. It returns nil when no address is configured
// or the server does not answer a ping, which leaves the API on its
// in-process lock and local hub.
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DialTimeout: redisPingTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis %s unreachable, backfill runs stay node-local: %v", cfg.RedisAddr, err)
		_ = client.Close()
		return nil
	}
	return client
}

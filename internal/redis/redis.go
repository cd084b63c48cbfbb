package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shailum17/BazaarBuddy-sub000/internal/config"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/log"
)

var (
	client *redis.Client
)

// Init initialize the Redis client used by the fan-out event bridge.
// Optional: when disabled in config the hub runs purely in-process.
func Init(cfg *config.Config) error {
	if !cfg.Redis.Enabled {
		log.Info("Redis bridge disabled, fan-out stays process-local")
		return nil
	}

	client = redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.GetAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect redis: %w", err)
	}

	log.Info("Redis connected successfully")
	return nil
}

// GetClient get the Redis client, nil when the bridge is disabled
func GetClient() *redis.Client {
	return client
}

// Close close the Redis connection
func Close() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

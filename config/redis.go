package config

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// ConnectRedis returns a connected client, or nil when REDIS_ADDR is unset
// or the server does not answer. Callers fall back to a process-local lock.
func ConnectRedis(ctx context.Context, cfg Config, logger zerolog.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		logger.Info().Msg("REDIS_ADDR not set, scheduler lock is process-local")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis connection failed, scheduler lock is process-local")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")
	return client
}

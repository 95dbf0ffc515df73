package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectRedis returns a client for url, or nil when url is empty or the
// server cannot be reached. The service runs without a cache in that case.
func ConnectRedis(ctx context.Context, url string, log *zap.Logger) *redis.Client {
	if url == "" {
		log.Info("Redis not configured, running without cache")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("⚠️  Redis URL invalid, running without cache", zap.Error(err))
		return nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️  Redis not available, running without cache", zap.Error(err))
		_ = client.Close()
		return nil
	}

	log.Info("✅ Redis connected successfully")
	return client
}

package cache

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"

	"github.com/AbdallahIsmaili/DeepBTC/internal/domain"

	"github.com/redis/go-redis/v9"
)

// latestRunKey holds the most recent retention report for downstream readers.
const latestRunKey = "deepbtc:latest_run"

var Client *redis.Client

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

// InitRedis connects when REDIS_URL is set; the snapshot is optional and the
// pipeline runs without it.
func InitRedis(ctx context.Context) {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		return
	}

	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := parseRedisURL(addr)
		if err != nil {
			log.Fatalf("failed to parse REDIS_URL: %v", err)
		}
		opts = parsed
	}

	Client = newRedisClient(opts)
	if err := pingRedis(ctx, Client); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")
}

// StoreLatestReport publishes the run's retention report under a fixed key.
func StoreLatestReport(ctx context.Context, report *domain.RetentionReport) error {
	if Client == nil {
		return nil
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return Client.Set(ctx, latestRunKey, payload, 0).Err()
}

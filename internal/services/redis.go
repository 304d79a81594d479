package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// RentalUpdatesChannel carries rental lifecycle events for other
// subscribers (e.g. additional API instances bridging to their own hubs).
const RentalUpdatesChannel = "rental:updates"

// InitRedis initializes the Redis client
func InitRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// SetStationAvailability caches the available-bike count for a station.
func SetStationAvailability(ctx context.Context, stationID uint, available int) error {
	key := fmt.Sprintf("station:availability:%d", stationID)
	return RedisClient.Set(ctx, key, available, time.Hour).Err()
}

// GetStationAvailability retrieves the cached available-bike count.
func GetStationAvailability(ctx context.Context, stationID uint) (int, error) {
	key := fmt.Sprintf("station:availability:%d", stationID)
	return RedisClient.Get(ctx, key).Int()
}

// CacheReport stores a computed report payload under the given key.
func CacheReport(ctx context.Context, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return RedisClient.Set(ctx, "report:"+key, data, 5*time.Minute).Err()
}

// GetCachedReport retrieves a cached report payload into out. Returns
// redis.Nil when the report is not cached.
func GetCachedReport(ctx context.Context, key string, out interface{}) error {
	data, err := RedisClient.Get(ctx, "report:"+key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), out)
}

// PublishRentalUpdate publishes a rental status update to Redis pub/sub
func PublishRentalUpdate(ctx context.Context, transactionID uint, status string, data map[string]interface{}) error {
	updateData := map[string]interface{}{
		"transactionId": transactionID,
		"status":        status,
		"data":          data,
		"timestamp":     time.Now().Unix(),
	}

	jsonData, err := json.Marshal(updateData)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, RentalUpdatesChannel, jsonData).Err()
}

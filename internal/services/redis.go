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

	ctx := context.Background()
	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// SetPhotographerPresence caches a photographer's live position
func SetPhotographerPresence(ctx context.Context, photographerID uint, lat, lng, accuracy float64) error {
	if RedisClient == nil {
		return nil
	}

	presence := map[string]interface{}{
		"lat":      lat,
		"lng":      lng,
		"accuracy": accuracy,
		"updated":  time.Now().Unix(),
	}

	data, err := json.Marshal(presence)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("photographer:location:%d", photographerID)
	return RedisClient.Set(ctx, key, data, time.Hour).Err()
}

// GetPhotographerPresence retrieves a photographer's cached position
func GetPhotographerPresence(ctx context.Context, photographerID uint) (lat, lng float64, err error) {
	if RedisClient == nil {
		return 0, 0, redis.Nil
	}

	key := fmt.Sprintf("photographer:location:%d", photographerID)
	data, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}

	var presence map[string]interface{}
	if err := json.Unmarshal([]byte(data), &presence); err != nil {
		return 0, 0, err
	}

	lat, _ = presence["lat"].(float64)
	lng, _ = presence["lng"].(float64)
	return lat, lng, nil
}

// SetPhotographerAccepting caches whether a photographer accepts requests
func SetPhotographerAccepting(ctx context.Context, photographerID uint, accepting bool) error {
	if RedisClient == nil {
		return nil
	}

	key := fmt.Sprintf("photographer:accepting:%d", photographerID)
	value := "true"
	if !accepting {
		value = "false"
	}
	return RedisClient.Set(ctx, key, value, time.Hour).Err()
}

// ClearPhotographerPresence drops a photographer's cached presence keys when
// they go offline
func ClearPhotographerPresence(ctx context.Context, photographerID uint) error {
	if RedisClient == nil {
		return nil
	}

	return RedisClient.Del(ctx,
		fmt.Sprintf("photographer:location:%d", photographerID),
		fmt.Sprintf("photographer:accepting:%d", photographerID),
	).Err()
}

// SetNearbyPhotographers caches a matching scan result for a location
func SetNearbyPhotographers(ctx context.Context, lat, lng float64, photographers []map[string]interface{}) error {
	if RedisClient == nil {
		return nil
	}

	key := fmt.Sprintf("nearby:photographers:%.6f:%.6f", lat, lng)
	data, err := json.Marshal(photographers)
	if err != nil {
		return err
	}
	return RedisClient.Set(ctx, key, data, 5*time.Minute).Err()
}

// PublishPhotographerLocation publishes a presence update to Redis pub/sub
func PublishPhotographerLocation(ctx context.Context, photographerID uint, lat, lng float64, isOnline bool) error {
	if RedisClient == nil {
		return nil
	}

	update := map[string]interface{}{
		"photographerId": photographerID,
		"location": map[string]float64{
			"lat": lat,
			"lng": lng,
		},
		"isOnline":  isOnline,
		"timestamp": time.Now().Unix(),
	}

	data, err := json.Marshal(update)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "photographer:location:updates", data).Err()
}

// PublishRequestUpdate publishes a request status change to Redis pub/sub
func PublishRequestUpdate(ctx context.Context, requestID uint, status string, data map[string]interface{}) error {
	if RedisClient == nil {
		return nil
	}

	update := map[string]interface{}{
		"requestId": requestID,
		"status":    status,
		"data":      data,
		"timestamp": time.Now().Unix(),
	}

	jsonData, err := json.Marshal(update)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "request:updates", jsonData).Err()
}

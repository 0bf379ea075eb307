package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"strconv"       // Key formatting
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache keys for the per-user read caches. Both are invalidated together
// on every mutation because any wallet or transaction change moves the
// statistics too.
func WalletsCacheKey(userID uint) string {
	return "cache:billeteras:user:" + strconv.FormatUint(uint64(userID), 10)
}

func StatsCacheKey(userID uint) string {
	return "cache:estadisticas:user:" + strconv.FormatUint(uint64(userID), 10)
}

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// InvalidateUserCache drops both per-user read caches after a mutation
func InvalidateUserCache(ctx context.Context, rdb *redis.Client, userID uint) {
	if rdb == nil {
		return
	}
	_ = rdb.Del(ctx, WalletsCacheKey(userID), StatsCacheKey(userID)).Err()
}

// cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client stays nil when no redis address is configured; every helper
// below then reports ErrDisabled.
var Client *redis.Client

var ErrDisabled = errors.New("cache disabled")

type CachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

func InitRedis(ctx context.Context, addr string, logger *zap.Logger) error {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("redis_connection_failed",
			zap.Error(err),
			zap.String("addr", addr),
		)
		client.Close()
		return err
	}

	logger.Info("redis_connected", zap.String("addr", addr))
	Client = client
	return nil
}

func Enabled() bool {
	return Client != nil
}

func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !Enabled() {
		return ErrDisabled
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return Client.Set(ctx, key, data, expiration).Err()
}

// Get reads key and unmarshals it into dest.
func Get(ctx context.Context, key string, dest interface{}) error {
	if !Enabled() {
		return ErrDisabled
	}
	val, err := Client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return fmt.Errorf("cache miss: %w", err)
	} else if err != nil {
		return fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(val, dest); err != nil {
		return fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return nil
}

// DeletePattern removes every key matching pattern, e.g. "cache:*".
func DeletePattern(ctx context.Context, pattern string) error {
	if !Enabled() {
		return ErrDisabled
	}
	var cursor uint64
	for {
		keys, next, err := Client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		if len(keys) > 0 {
			if err := Client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete keys failed: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}

// IncrementCounter bumps key and sets its TTL on the first increment.
func IncrementCounter(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	if !Enabled() {
		return 0, ErrDisabled
	}
	val, err := Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	if val == 1 {
		if err := Client.Expire(ctx, key, expiration).Err(); err != nil {
			return val, err
		}
	}

	return val, nil
}

// GenerationKey lives outside the "cache:" namespace so pattern deletes
// never reset it.
const GenerationKey = "response_cache:generation"

// Generation returns the current response cache generation, 0 if unset.
func Generation(ctx context.Context) (int64, error) {
	if !Enabled() {
		return 0, ErrDisabled
	}
	gen, err := Client.Get(ctx, GenerationKey).Int64()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("read generation failed: %w", err)
	}
	return gen, nil
}

// BumpGeneration makes every key built from an older generation unreachable.
func BumpGeneration(ctx context.Context) (int64, error) {
	if !Enabled() {
		return 0, ErrDisabled
	}
	gen, err := Client.Incr(ctx, GenerationKey).Result()
	if err != nil {
		return 0, fmt.Errorf("bump generation failed: %w", err)
	}
	return gen, nil
}

func Close() error {
	if Client != nil {
		return Client.Close()
	}
	return nil
}

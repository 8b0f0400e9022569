package clientstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists client state in redis so clock-in records survive a
// gateway restart and are shared between instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func clockInKey(userID int) string {
	return fmt.Sprintf("gocard:clockin:%d", userID)
}

func cacheKey(key string) string {
	return "gocard:cache:" + key
}

func (s *RedisStore) SetClockInStart(ctx context.Context, userID int, start time.Time, ttl time.Duration) error {
	return s.client.Set(ctx, clockInKey(userID), start.Format(time.RFC3339), ttl).Err()
}

func (s *RedisStore) ClockInStart(ctx context.Context, userID int) (time.Time, error) {
	raw, err := s.client.Get(ctx, clockInKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("redis get: %w", err)
	}
	start, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, ErrNotFound
	}
	return start, nil
}

func (s *RedisStore) ClearClockInStart(ctx context.Context, userID int) error {
	return s.client.Del(ctx, clockInKey(userID)).Err()
}

func (s *RedisStore) SetCached(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, cacheKey(key), value, ttl).Err()
}

func (s *RedisStore) GetCached(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Get(ctx, cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return raw, nil
}

func (s *RedisStore) DeleteCached(ctx context.Context, key string) error {
	return s.client.Del(ctx, cacheKey(key)).Err()
}

func (s *RedisStore) Clear(ctx context.Context, userID int) error {
	return s.ClearClockInStart(ctx, userID)
}

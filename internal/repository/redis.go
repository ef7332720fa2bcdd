package repository

import (
	"context"
	"errors"
	"fmt"

	"carrental/internal/config"

	"github.com/redis/go-redis/v9"
)

// RedisSnapshotRepository stores the encoded snapshot under a single key.
type RedisSnapshotRepository struct {
	client *redis.Client
	key    string
}

// NewRedisClient builds a Redis client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisSnapshotRepository(client *redis.Client, prefix, key string) *RedisSnapshotRepository {
	return &RedisSnapshotRepository{
		client: client,
		key:    prefix + key,
	}
}

func (r *RedisSnapshotRepository) Key() string {
	return r.key
}

func (r *RedisSnapshotRepository) Load(ctx context.Context) ([]byte, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot from redis: %w", err)
	}
	return val, nil
}

func (r *RedisSnapshotRepository) Save(ctx context.Context, data []byte) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set snapshot in redis: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

const DefaultTaskCacheTTL = 60 * time.Second

// TaskListKey holds the whole shared task list.
const TaskListKey = "tasks:all"

// TaskListGenKey counts list invalidations so a fill that raced a write can tell.
const TaskListGenKey = "tasks:all:gen"

type TaskCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTaskCache(client *redis.Client, ttl time.Duration) *TaskCache {
	if ttl <= 0 {
		ttl = DefaultTaskCacheTTL
	}
	return &TaskCache{client: client, ttl: ttl}
}

// Get returns nil, nil on a cache miss.
func (c *TaskCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Set stores data as JSON with the cache TTL.
func (c *TaskCache) Set(ctx context.Context, key string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, jsonData, c.ttl).Err()
}

func (c *TaskCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Generation returns the list invalidation count, 0 when no write happened yet.
func (c *TaskCache) Generation(ctx context.Context) (int64, error) {
	n, err := c.client.Get(ctx, TaskListGenKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

// InvalidateList bumps the generation and drops the cached list in one transaction.
func (c *TaskCache) InvalidateList(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, TaskListGenKey)
		pipe.Del(ctx, TaskListKey)
		return nil
	})
	return err
}

package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tpcc-service/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	customersPrefix   = "customers:"
	lockPrefix        = "lock:"
	idempotencyPrefix = "idempotency:"

	scanBatch = 500
)

type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient connects to Redis. Cached customer lists expire after ttl.
func NewClient(addr, password string, db int, ttl time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, ttl: ttl}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func customersKey(warehouseID, districtID int32, last string) string {
	return fmt.Sprintf("%s%d:%d:%s", customersPrefix, warehouseID, districtID, last)
}

// GetCustomers returns the cached customers of a district with the given surname
func (c *Client) GetCustomers(ctx context.Context, warehouseID, districtID int32, last string) ([]models.CustomerInfo, bool, error) {
	raw, err := c.rdb.Get(ctx, customersKey(warehouseID, districtID, last)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var customers []models.CustomerInfo
	if err := json.Unmarshal(raw, &customers); err != nil {
		return nil, false, fmt.Errorf("corrupt customer cache entry: %w", err)
	}
	return customers, true, nil
}

// PutCustomers caches a surname lookup
func (c *Client) PutCustomers(ctx context.Context, warehouseID, districtID int32, last string, customers []models.CustomerInfo) error {
	raw, err := json.Marshal(customers)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, customersKey(warehouseID, districtID, last), raw, c.ttl).Err()
}

// InvalidateCustomers drops every cached surname lookup
func (c *Client) InvalidateCustomers(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, customersPrefix+"*", scanBatch).Iterator()
	keys := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == scanBatch {
			if err := c.del(ctx, keys); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return c.del(ctx, keys)
}

func (c *Client) del(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	pipe := c.rdb.Pipeline()
	for _, k := range keys {
		pipe.Del(ctx, k)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// SetIdempotencyKey stores an idempotency key with TTL
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, idempotencyPrefix+key, value, ttl).Err()
}

// CheckIdempotencyKey checks if an idempotency key exists
func (c *Client) CheckIdempotencyKey(ctx context.Context, key string) (bool, error) {
	result, err := c.rdb.Exists(ctx, idempotencyPrefix+key).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, lockPrefix+lockKey, "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, lockPrefix+lockKey).Err()
}

package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sales-service/internal/models"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a new Redis client and verifies the connection
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

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func orderKey(id int64) string {
	return fmt.Sprintf("order:%d", id)
}

// GetOrder returns the cached row for id. The bool is false on a cache miss.
func (c *Client) GetOrder(ctx context.Context, id int64) (*models.OrderRecord, bool, error) {
	raw, err := c.rdb.Get(ctx, orderKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get failed: %w", err)
	}

	var order models.OrderRecord
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, false, fmt.Errorf("cache decode failed: %w", err)
	}
	return &order, true, nil
}

// generationTTL outlives any store read between Generation and FillOrder.
const generationTTL = 24 * time.Hour

func generationKey(id int64) string {
	return fmt.Sprintf("order:%d:gen", id)
}

// Generation returns the invalidation counter for id; 0 if never invalidated.
func (c *Client) Generation(ctx context.Context, id int64) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache generation read failed: %w", err)
	}
	return gen, nil
}

// FillOrder caches a row read from the store, but only while the generation
// of its id still equals gen. A row read before a concurrent invalidation is
// dropped instead of cached.
func (c *Client) FillOrder(ctx context.Context, order *models.OrderRecord, gen int64) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return err
	}

	genKey := generationKey(order.ID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, orderKey(order.ID), raw, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// InvalidateOrder bumps the generation of id and drops its cached row
func (c *Client) InvalidateOrder(ctx context.Context, id int64) error {
	genKey := generationKey(id)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, orderKey(id))
		return nil
	})
	return err
}

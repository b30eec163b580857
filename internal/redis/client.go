package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leasing_market/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	coefficientTableKey   = "pricing:coefficients:v%d"
	coefficientVersionKey = "pricing:coefficients:version"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

type Client struct {
	rdb *redis.Client
}

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) error {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	return json.Unmarshal(val, dest)
}

func (c *Client) Delete(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// Coefficient table cache. Tables are stored under the current version and
// invalidating bumps it.
func (c *Client) CoefficientTableVersion(ctx context.Context) (int64, error) {
	version, err := c.rdb.Get(ctx, coefficientVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get %s: %w", coefficientVersionKey, err)
	}
	return version, nil
}

func (c *Client) SetCoefficientTable(ctx context.Context, version int64, rows []models.LeaserCoefficient, ttl time.Duration) error {
	return c.SetJSON(ctx, fmt.Sprintf(coefficientTableKey, version), rows, ttl)
}

func (c *Client) GetCoefficientTable(ctx context.Context, version int64) ([]models.LeaserCoefficient, error) {
	var rows []models.LeaserCoefficient
	if err := c.GetJSON(ctx, fmt.Sprintf(coefficientTableKey, version), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) InvalidateCoefficientTable(ctx context.Context) error {
	return c.rdb.Incr(ctx, coefficientVersionKey).Err()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"willtank/internal/logger"
)

// ErrUnavailable is returned by strict operations when Redis is unreachable or not configured.
var ErrUnavailable = errors.New("cache unavailable")

// Client wraps redis.Client. Get/Set/Delete fail safe and behave like a cache
// miss when Redis is down; the *Strict variants surface errors for data that
// has no other home (login codes, refresh tokens).
type Client struct {
	client *redis.Client
}

// New creates a new Redis client.
func New(addr, password string, db int) *Client {
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	return &Client{client: redis.NewClient(opts)}
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return ErrUnavailable
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Get returns value or nil if missing or redis unavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := c.GetStrict(ctx, key)
	if err != nil {
		logger.FromContext(ctx).Debug("cache get failed", "key", key, "error", err)
		return nil, nil
	}
	return res, nil
}

// Set stores value with TTL, ignoring redis errors.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.SetStrict(ctx, key, value, ttl); err != nil {
		logger.FromContext(ctx).Debug("cache set failed", "key", key, "error", err)
	}
	return nil
}

// Delete removes a key, ignoring redis errors.
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.DeleteStrict(ctx, key); err != nil {
		logger.FromContext(ctx).Debug("cache delete failed", "key", key, "error", err)
	}
	return nil
}

// GetStrict returns nil, nil on a miss and an error when redis fails.
func (c *Client) GetStrict(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, ErrUnavailable
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SetStrict stores value with TTL and reports redis errors.
func (c *Client) SetStrict(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return ErrUnavailable
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}

// DeleteStrict removes keys and reports redis errors.
func (c *Client) DeleteStrict(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil {
		return ErrUnavailable
	}
	return c.client.Del(ctx, keys...).Err()
}

// IncrStrict increments a counter, starting its TTL on the first increment.
func (c *Client) IncrStrict(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if c == nil || c.client == nil {
		return 0, ErrUnavailable
	}
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 && ttl > 0 {
		if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", unpack(KEYS))
end
return 0
`)

// CompareAndDelete deletes key, and any extra keys, only while key still
// holds value. It reports whether the delete happened.
func (c *Client) CompareAndDelete(ctx context.Context, key string, value []byte, extra ...string) (bool, error) {
	if c == nil || c.client == nil {
		return false, ErrUnavailable
	}
	keys := append([]string{key}, extra...)
	n, err := compareAndDelete.Run(ctx, c.client, keys, value).Int64()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

// CachedResult is the serialized form of a successful extraction, keyed by
// audio digest so an identical voice note never burns model time twice.
type CachedResult struct {
	Invoice    *models.InvoiceRecord `json:"invoice"`
	Confidence string                `json:"confidence"`
	PDFObject  string                `json:"pdf_object"`
	InvoiceID  string                `json:"invoice_id"`
}

// Cache is the caching interface. All cache operations go through here.
// Implementations must be safe for concurrent use.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	SetResult(ctx context.Context, digest string, result CachedResult, ttl time.Duration) error
	GetResult(ctx context.Context, digest string) (CachedResult, bool, error)
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
}

// RedisCache implements the Cache interface using go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new RedisCache from a Redis URL.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *RedisCache) SetResult(ctx context.Context, digest string, result CachedResult, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, ResultKey(digest), payload, ttl).Err()
}

func (c *RedisCache) GetResult(ctx context.Context, digest string) (CachedResult, bool, error) {
	val, err := c.client.Get(ctx, ResultKey(digest)).Bytes()
	if err == redis.Nil {
		return CachedResult{}, false, nil
	}
	if err != nil {
		return CachedResult{}, false, err
	}
	var result CachedResult
	if err := json.Unmarshal(val, &result); err != nil {
		return CachedResult{}, false, err
	}
	return result, true, nil
}

func (c *RedisCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

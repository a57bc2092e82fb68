package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	appcosting "github.com/erp/costing/internal/application/costing"
	"github.com/erp/costing/internal/domain/inventory"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultKeyPrefix = "costing:preview:"

// RedisOptions configures the Redis client used by the preview cache
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
	// OpTimeout bounds every cache call so a slow Redis never stalls a request
	OpTimeout time.Duration
	TTL       time.Duration
	KeyPrefix string
}

// RedisPreviewCache shares previews between instances. Each stock position
// has an index set listing its preview keys so Invalidate can drop them.
type RedisPreviewCache struct {
	client    *redis.Client
	ttl       time.Duration
	opTimeout time.Duration
	prefix    string
	logger    *zap.Logger
}

// NewRedisPreviewCache connects and pings Redis
func NewRedisPreviewCache(ctx context.Context, opts RedisOptions, logger *zap.Logger) (*RedisPreviewCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", opts.Addr, err)
	}
	return NewRedisPreviewCacheWithClient(client, opts, logger), nil
}

// NewRedisPreviewCacheWithClient wraps an existing client
func NewRedisPreviewCacheWithClient(client *redis.Client, opts RedisOptions, logger *zap.Logger) *RedisPreviewCache {
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	opTimeout := opts.OpTimeout
	if opTimeout <= 0 {
		opTimeout = 100 * time.Millisecond
	}
	return &RedisPreviewCache{
		client:    client,
		ttl:       opts.TTL,
		opTimeout: opTimeout,
		prefix:    prefix,
		logger:    logger.Named("preview_cache"),
	}
}

func (c *RedisPreviewCache) entryKey(key string) string {
	return c.prefix + key
}

func (c *RedisPreviewCache) indexKey(key inventory.StockKey) string {
	return c.prefix + "idx:" + key.String()
}

// Get returns a cached preview. Redis errors count as a miss.
func (c *RedisPreviewCache) Get(ctx context.Context, key string) (*appcosting.CostPreviewResponse, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	val, err := c.client.Get(ctx, c.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("preview cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	var preview appcosting.CostPreviewResponse
	if err := json.Unmarshal(val, &preview); err != nil {
		c.logger.Warn("preview cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &preview, true
}

// Set stores preview under key and records it in the position index. The
// stock key is the part of key before the first '|'.
func (c *RedisPreviewCache) Set(ctx context.Context, key string, preview *appcosting.CostPreviewResponse) {
	if preview == nil {
		return
	}
	payload, err := json.Marshal(preview)
	if err != nil {
		c.logger.Warn("preview cache encode failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	idx := c.prefix + "idx:" + stockPart(key)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.entryKey(key), payload, c.ttl)
	pipe.SAdd(ctx, idx, c.entryKey(key))
	if c.ttl > 0 {
		pipe.Expire(ctx, idx, 2*c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("preview cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes every preview of the stock position
func (c *RedisPreviewCache) Invalidate(ctx context.Context, key inventory.StockKey) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	idx := c.indexKey(key)
	members, err := c.client.SMembers(ctx, idx).Result()
	if err != nil {
		c.logger.Warn("preview cache invalidation failed", zap.String("stock_key", key.String()), zap.Error(err))
		return
	}
	if err := c.client.Del(ctx, append(members, idx)...).Err(); err != nil {
		c.logger.Warn("preview cache invalidation failed", zap.String("stock_key", key.String()), zap.Error(err))
	}
}

// Ping checks connectivity
func (c *RedisPreviewCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the client
func (c *RedisPreviewCache) Close() error {
	return c.client.Close()
}

func stockPart(key string) string {
	stock, _, _ := strings.Cut(key, "|")
	return stock
}

var _ appcosting.PreviewCache = (*RedisPreviewCache)(nil)

package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/config"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
)

const (
	normalizedKeyPrefix     = "reports:normalized"
	normalizedDataPrefix    = normalizedKeyPrefix + ":data:"
	normalizedVersionPrefix = normalizedKeyPrefix + ":version:"
)

// Entry is the result of a cache read. Version is the generation of the
// type at read time; a view computed after a miss is stored under it, so a
// write that invalidates in between leaves the stale view unreachable.
type Entry struct {
	Records []domain.NormalizedRecord
	Version int64
	Hit     bool
}

// NormalizedCache holds the deduplicated, normalized view of each report
// type. Entries are dropped whenever a report of that type changes.
type NormalizedCache interface {
	Get(ctx context.Context, reportType string) (Entry, error)
	Set(ctx context.Context, reportType string, version int64, records []domain.NormalizedRecord) error
	Invalidate(ctx context.Context, reportType string) error
	InvalidateAll(ctx context.Context) error
}

type redisNormalizedCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopNormalizedCache struct{}

// NewNormalizedCache returns a Redis-backed cache, or a no-op cache when
// caching is disabled.
func NewNormalizedCache(cfg config.CacheConfig) (NormalizedCache, error) {
	if !cfg.Enabled {
		return &noopNormalizedCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisNormalizedCache(client, ttl), nil
}

func NewRedisNormalizedCache(client *redis.Client, ttl time.Duration) NormalizedCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisNormalizedCache{client: client, ttl: ttl}
}

func NewNoopNormalizedCache() NormalizedCache {
	return &noopNormalizedCache{}
}

func (c *redisNormalizedCache) version(ctx context.Context, reportType string) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(reportType)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get version failed: %w", err)
	}
	return v, nil
}

func (c *redisNormalizedCache) Get(ctx context.Context, reportType string) (Entry, error) {
	v, err := c.version(ctx, reportType)
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{Version: v}

	payload, err := c.client.Get(ctx, normalizedKey(reportType, v)).Bytes()
	if err == redis.Nil {
		return entry, nil
	}
	if err != nil {
		return entry, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, &entry.Records); err != nil {
		return entry, fmt.Errorf("failed to decode cached records: %w", err)
	}
	entry.Hit = true

	return entry, nil
}

func (c *redisNormalizedCache) Set(ctx context.Context, reportType string, version int64, records []domain.NormalizedRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	if err := c.client.Set(ctx, normalizedKey(reportType, version), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

// Invalidate moves the type to a new generation and drops the previous view.
func (c *redisNormalizedCache) Invalidate(ctx context.Context, reportType string) error {
	v, err := c.client.Incr(ctx, versionKey(reportType)).Result()
	if err != nil {
		return fmt.Errorf("redis incr failed: %w", err)
	}
	if err := c.client.Del(ctx, normalizedKey(reportType, v-1)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *redisNormalizedCache) InvalidateAll(ctx context.Context) error {
	err := scanKeys(ctx, c.client, normalizedVersionPrefix, scanBatchSize, func(keys []string) error {
		pipe := c.client.Pipeline()
		for _, k := range keys {
			pipe.Incr(ctx, k)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("redis incr failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return deleteKeysWithPrefix(ctx, c.client, normalizedDataPrefix, scanBatchSize)
}

func (n *noopNormalizedCache) Get(ctx context.Context, reportType string) (Entry, error) {
	return Entry{}, nil
}

func (n *noopNormalizedCache) Set(ctx context.Context, reportType string, version int64, records []domain.NormalizedRecord) error {
	return nil
}

func (n *noopNormalizedCache) Invalidate(ctx context.Context, reportType string) error {
	return nil
}

func (n *noopNormalizedCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// typeHash hashes the type so that arbitrary type names make safe keys.
func typeHash(reportType string) string {
	hash := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(reportType))))
	return hex.EncodeToString(hash[:])
}

func normalizedKey(reportType string, version int64) string {
	return fmt.Sprintf("%s%s:%d", normalizedDataPrefix, typeHash(reportType), version)
}

func versionKey(reportType string) string {
	return normalizedVersionPrefix + typeHash(reportType)
}

package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"LiveTable/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Cache stores encoded result pages.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedExecutor answers repeated statements from Cache. Cached rows travel
// as JSON, so numbers come back as float64 and times as strings.
type CachedExecutor struct {
	Next  Executor
	Cache Cache
	TTL   time.Duration
}

func (e CachedExecutor) Query(ctx context.Context, sqlStr string, args ...any) ([]Row, error) {
	if e.Cache == nil || e.TTL <= 0 {
		return e.Next.Query(ctx, sqlStr, args...)
	}
	key, err := pageCacheKey(sqlStr, args)
	if err != nil {
		return e.Next.Query(ctx, sqlStr, args...)
	}

	if data, ok, err := e.Cache.Get(ctx, key); err != nil {
		logger.Warn("page_cache_get_failed", map[string]any{"error": err.Error()})
	} else if ok {
		var rows []Row
		if err := json.Unmarshal(data, &rows); err == nil {
			return rows, nil
		}
		logger.Warn("page_cache_corrupt", map[string]any{"key": key})
	}

	rows, err := e.Next.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(rows)
	if err != nil {
		logger.Warn("page_cache_marshal_failed", map[string]any{"error": err.Error()})
		return rows, nil
	}
	if err := e.Cache.Set(ctx, key, data, e.TTL); err != nil {
		logger.Warn("page_cache_set_failed", map[string]any{"error": err.Error()})
	}
	return rows, nil
}

func pageCacheKey(sqlStr string, args []any) (string, error) {
	data, err := canonicalJSON(map[string]any{"sql": sqlStr, "args": args})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return "page:" + hex.EncodeToString(sum[:]), nil
}

func canonicalJSON(value any) ([]byte, error) {
	var b strings.Builder
	if err := encodeCanonical(&b, value); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func encodeCanonical(b *strings.Builder, value any) error {
	switch v := value.(type) {
	case []any:
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := encodeCanonical(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			encKey, _ := json.Marshal(k)
			b.Write(encKey)
			b.WriteByte(':')
			if err := encodeCanonical(b, v[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		// the Go type is part of the key: 1 and "1" bind differently
		enc, err := json.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%T:", v)
		b.Write(enc)
	}
	return nil
}

const memoryCacheSweepFreq = time.Minute

type memoryCacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is an in-process Cache bounded by MaxBytes.
type MemoryCache struct {
	mu         sync.Mutex
	items      map[string]*memoryCacheEntry
	lastSweep  time.Time
	totalBytes int64
	maxBytes   int64
	now        func() time.Time
}

func NewMemoryCache(maxBytes int64) *MemoryCache {
	return &MemoryCache{
		items:    make(map[string]*memoryCacheEntry),
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.maybeSweepLocked(now)
	entry, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	if now.After(entry.expiresAt) {
		c.deleteLocked(key, entry)
		return nil, false, nil
	}
	return entry.data, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.maybeSweepLocked(now)

	size := int64(len(key) + len(value))
	if c.maxBytes > 0 && size > c.maxBytes {
		logger.Warn("page_cache_item_too_large", map[string]any{
			"item_bytes": size,
			"max_bytes":  c.maxBytes,
		})
		return nil
	}
	if existing, ok := c.items[key]; ok {
		c.deleteLocked(key, existing)
	}
	if c.maxBytes > 0 && c.totalBytes+size > c.maxBytes {
		logger.Warn("page_cache_memory_limit_exceeded", map[string]any{
			"item_bytes":  size,
			"total_bytes": c.totalBytes,
			"max_bytes":   c.maxBytes,
		})
		return nil
	}
	c.items[key] = &memoryCacheEntry{data: value, expiresAt: now.Add(ttl)}
	c.totalBytes += size
	return nil
}

// Len is the number of live entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *MemoryCache) deleteLocked(key string, entry *memoryCacheEntry) {
	delete(c.items, key)
	c.totalBytes -= int64(len(key) + len(entry.data))
}

func (c *MemoryCache) maybeSweepLocked(now time.Time) {
	if !c.lastSweep.IsZero() && now.Sub(c.lastSweep) < memoryCacheSweepFreq {
		return
	}
	for key, entry := range c.items {
		if now.After(entry.expiresAt) {
			c.deleteLocked(key, entry)
		}
	}
	c.lastSweep = now
}

// RedisCache keeps pages in Redis so several instances share them.
type RedisCache struct {
	Client *redis.Client
}

func (c RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

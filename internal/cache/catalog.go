// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// catalog.go provides a Valkey-backed cache for public catalog responses.
// Entries are JSON documents keyed by the normalized query. Any admin
// mutation bumps the generation counter and clears the namespace; readers
// put the generation in their keys, so a result computed before the bump
// can never be read back after it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// catalogKeyPrefix is the Valkey key prefix for cached catalog responses.
	catalogKeyPrefix = "catalog:"

	// catalogGenKey holds the generation counter. It sits outside the
	// prefix so InvalidateAll never scans it away.
	catalogGenKey = "catalog-generation"

	// DefaultCatalogTTL is how long a cached listing stays valid.
	DefaultCatalogTTL = 2 * time.Minute
)

// CatalogCache stores public catalog query results in Valkey.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a catalog cache backed by the given Valkey client.
func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl == 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogCache{client: client, ttl: ttl}
}

// Get decodes the cached value for key into dest. Returns false on a miss
// or on any cache error, which callers treat as a miss.
func (cc *CatalogCache) Get(ctx context.Context, key string, dest any) bool {
	val, err := cc.client.Get(ctx, catalogKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		slog.Warn("catalog cache get error", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		slog.Warn("catalog cache decode error", "key", key, "error", err)
		return false
	}
	slog.Debug("catalog cache hit", "key", key)
	return true
}

// Set stores value under key with the configured TTL.
func (cc *CatalogCache) Set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Warn("catalog cache encode error", "key", key, "error", err)
		return
	}
	if err := cc.client.Set(ctx, catalogKeyPrefix+key, data, cc.ttl).Err(); err != nil {
		slog.Warn("catalog cache set error", "key", key, "error", err)
	}
}

// Generation returns the current cache generation. ok is false when Valkey
// cannot be read, in which case callers bypass the cache.
func (cc *CatalogCache) Generation(ctx context.Context) (gen int64, ok bool) {
	gen, err := cc.client.Get(ctx, catalogGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		slog.Warn("catalog cache generation error", "error", err)
		return 0, false
	}
	return gen, true
}

// InvalidateAll bumps the generation and removes every cached catalog entry
// by scanning for the prefix.
func (cc *CatalogCache) InvalidateAll(ctx context.Context) {
	if err := cc.client.Incr(ctx, catalogGenKey).Err(); err != nil {
		slog.Warn("catalog cache generation bump error", "error", err)
	}

	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := cc.client.Scan(ctx, cursor, catalogKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("catalog cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := cc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("catalog cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("catalog cache cleared", "deleted", deleted)
	}
}

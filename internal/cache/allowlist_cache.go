// Package cache holds the Redis-backed lookup cache in front of the
// allow-list store. The cache is strictly optional: a nil cache (or an
// unreachable Redis) degrades to hitting the database on every lookup.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vathakkar/ai-voice-concierge/internal/domain"
	"github.com/vathakkar/ai-voice-concierge/internal/repository"
	"github.com/vathakkar/ai-voice-concierge/pkg/logger"
	appredis "github.com/vathakkar/ai-voice-concierge/pkg/redis"
	"go.uber.org/zap"
)

// negativeEntry marks a cached "not allow-listed" result so absent numbers
// do not hammer the database on every spam call.
const negativeEntry = "null"

// DefaultTTL bounds staleness after direct database edits.
const DefaultTTL = 5 * time.Minute

// CachedAllowlist wraps an AllowlistRepository with a Redis lookup cache.
// Mutations pass through and invalidate the cached entry for the number.
type CachedAllowlist struct {
	inner    repository.AllowlistRepository
	redisSvc appredis.ServiceInterface
	ttl      time.Duration
}

var _ repository.AllowlistRepository = (*CachedAllowlist)(nil)

// NewCachedAllowlist wraps inner with a Redis cache. redisSvc may be nil.
func NewCachedAllowlist(inner repository.AllowlistRepository, redisSvc appredis.ServiceInterface, ttl time.Duration) *CachedAllowlist {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedAllowlist{inner: inner, redisSvc: redisSvc, ttl: ttl}
}

// Lookup consults the cache first and falls back to the store, caching both
// hits and misses.
func (c *CachedAllowlist) Lookup(ctx context.Context, rawNumber string) (*domain.AllowlistEntry, error) {
	normalized := repository.NormalizePhoneNumber(rawNumber)

	if entry, found := c.cachedLookup(ctx, normalized); found {
		return entry, nil
	}

	entry, err := c.inner.Lookup(ctx, normalized)
	if err != nil {
		return nil, err
	}
	c.storeLookup(ctx, normalized, entry)
	return entry, nil
}

// Add passes through and invalidates the cached lookup.
func (c *CachedAllowlist) Add(ctx context.Context, rawNumber, contactName, category string) (bool, error) {
	ok, err := c.inner.Add(ctx, rawNumber, contactName, category)
	if ok {
		c.invalidate(ctx, repository.NormalizePhoneNumber(rawNumber))
	}
	return ok, err
}

// Remove passes through and invalidates the cached lookup.
func (c *CachedAllowlist) Remove(ctx context.Context, rawNumber string) (bool, error) {
	ok, err := c.inner.Remove(ctx, rawNumber)
	if ok {
		c.invalidate(ctx, repository.NormalizePhoneNumber(rawNumber))
	}
	return ok, err
}

// Restore passes through and invalidates the cached lookup.
func (c *CachedAllowlist) Restore(ctx context.Context, rawNumber string) (bool, error) {
	ok, err := c.inner.Restore(ctx, rawNumber)
	if ok {
		c.invalidate(ctx, repository.NormalizePhoneNumber(rawNumber))
	}
	return ok, err
}

// List always goes to the store; the admin surface is not latency sensitive.
func (c *CachedAllowlist) List(ctx context.Context) ([]*domain.AllowlistEntry, error) {
	return c.inner.List(ctx)
}

func (c *CachedAllowlist) cachedLookup(ctx context.Context, normalized string) (*domain.AllowlistEntry, bool) {
	if c.redisSvc == nil {
		return nil, false
	}
	key := c.redisSvc.GenerateKey(appredis.AllowlistLookup, normalized)
	val, err := c.redisSvc.GetValue(ctx, key)
	if err != nil {
		if err != appredis.ErrKeyNotExist {
			logger.Base().Warn("allow-list cache read failed", zap.Error(err))
		}
		return nil, false
	}
	if val == negativeEntry {
		return nil, true
	}
	var entry domain.AllowlistEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		logger.Base().Warn("allow-list cache entry corrupt, ignoring", zap.Error(err))
		return nil, false
	}
	return &entry, true
}

func (c *CachedAllowlist) storeLookup(ctx context.Context, normalized string, entry *domain.AllowlistEntry) {
	if c.redisSvc == nil {
		return
	}
	key := c.redisSvc.GenerateKey(appredis.AllowlistLookup, normalized)
	val := negativeEntry
	if entry != nil {
		data, err := json.Marshal(entry)
		if err != nil {
			return
		}
		val = string(data)
	}
	if err := c.redisSvc.SetValue(ctx, key, val, c.ttl); err != nil {
		logger.Base().Warn("allow-list cache write failed", zap.Error(err))
	}
}

func (c *CachedAllowlist) invalidate(ctx context.Context, normalized string) {
	if c.redisSvc == nil {
		return
	}
	key := c.redisSvc.GenerateKey(appredis.AllowlistLookup, normalized)
	if err := c.redisSvc.DelValue(ctx, key); err != nil {
		logger.Base().Warn("allow-list cache invalidation failed", zap.Error(err))
	}
}

// Package query is the declarative read layer over the gateway: fetches are
// addressed by structured keys, identical fetches in flight are deduplicated,
// cached results are served stale-while-revalidate, and mutations drop the
// key prefixes they declare through the central invalidation table.
package query

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/singleflight"

	"github.com/evermart/storefront/internal/constants"
	inErrors "github.com/evermart/storefront/internal/errors"
	"github.com/evermart/storefront/internal/log"
)

var tracer = otel.Tracer(constants.AppName)

// Key addresses one cached read: resource name first, parameters after.
type Key []string

func (k Key) String() string {
	return strings.Join(k, "/")
}

func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, part := range prefix {
		if k[i] != part {
			return false
		}
	}
	return true
}

type entry struct {
	value     any
	fetchedAt time.Time
	ttl       time.Duration
}

func (e entry) stale(now time.Time) bool {
	return now.After(e.fetchedAt.Add(e.ttl))
}

type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	group      singleflight.Group
	defaultTtl time.Duration
}

func NewCache(defaultTtl time.Duration) *Cache {
	return &Cache{entries: map[string]entry{}, defaultTtl: defaultTtl}
}

// Fetch returns the cached value for key when fresh; serves a stale value
// immediately while revalidating in the background; and on a miss runs fn,
// deduplicated across concurrent callers of the same key.
func (c *Cache) Fetch(
	ctx context.Context,
	key Key,
	fn func(context.Context) (any, error),
) (any, error) {
	ctx, span := tracer.Start(ctx, "Cache Fetch "+key.String())
	defer span.End()

	logger := zerolog.Ctx(ctx).
		With().
		Str(log.KeyTag, "Cache Fetch").
		Str(log.KeyCacheKey, key.String()).
		Logger()

	now := time.Now()
	c.mu.RLock()
	cached, ok := c.entries[key.String()]
	c.mu.RUnlock()

	if ok && !cached.stale(now) {
		cacheHits.Inc()
		logger.Trace().Msg("serving fresh cached value")
		return cached.value, nil
	}

	if ok {
		cacheStale.Inc()
		logger.Trace().Msg("serving stale value, revalidating in background")
		go c.revalidate(context.WithoutCancel(ctx), key, fn)
		return cached.value, nil
	}

	cacheMisses.Inc()
	logger.Trace().Msg("cache miss, fetching")
	value, err, _ := c.group.Do(key.String(), func() (any, error) {
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.put(key, value)
		return value, nil
	})
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msgf("failed fetching key=%s with error=%s", key, err.Error())
		return nil, err
	}
	return value, nil
}

func (c *Cache) revalidate(ctx context.Context, key Key, fn func(context.Context) (any, error)) {
	logger := zerolog.Ctx(ctx).
		With().
		Str(log.KeyTag, "Cache revalidate").
		Str(log.KeyCacheKey, key.String()).
		Logger()

	_, err, _ := c.group.Do(key.String(), func() (any, error) {
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.put(key, value)
		return value, nil
	})
	if err != nil {
		// Keep the stale entry; the next access will try again.
		logger.Info().Err(err).Msgf("background revalidation failed with error=%s", err.Error())
	}
}

func (c *Cache) put(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.String()] = entry{value: value, fetchedAt: time.Now(), ttl: c.defaultTtl}
}

// Get exposes the raw cached value, primarily for optimistic updates that
// need a snapshot to roll back to.
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, ok := c.entries[key.String()]
	if !ok {
		return nil, false
	}
	return cached.value, true
}

// Set overwrites a cached value in place, keeping its freshness window.
func (c *Cache) Set(key Key, value any) {
	c.put(key, value)
}

// Invalidate drops every entry whose key starts with one of the prefixes.
func (c *Cache) Invalidate(prefixes ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for cachedKey := range c.entries {
		parts := Key(strings.Split(cachedKey, "/"))
		for _, prefix := range prefixes {
			if parts.HasPrefix(prefix) {
				delete(c.entries, cachedKey)
				cacheInvalidations.Inc()
				break
			}
		}
	}
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]entry{}
}

// FetchAs is the typed front door over Cache.Fetch.
func FetchAs[T any](
	ctx context.Context,
	c *Cache,
	key Key,
	fn func(context.Context) (T, error),
) (T, error) {
	value, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, nil
	}
	return typed, nil
}

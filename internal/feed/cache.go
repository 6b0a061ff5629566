package feed

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"marketdesk/internal/storage"
)

// Cache is the persisted merge-cache for one feed. Merging reconciles a
// freshly fetched page against the cached items by identity, so a feed
// survives network failures and restarts without losing or duplicating
// entries.
type Cache[T Cacheable[T]] struct {
	store  storage.StringStore
	key    string
	limit  int
	logger zerolog.Logger
}

// NewCache builds a cache persisted under key, bounded to limit items.
func NewCache[T Cacheable[T]](store storage.StringStore, key string, limit int, logger zerolog.Logger) *Cache[T] {
	if limit <= 0 {
		limit = 60
	}
	return &Cache[T]{
		store:  store,
		key:    key,
		limit:  limit,
		logger: logger.With().Str("component", "feed_cache").Str("key", key).Logger(),
	}
}

// Load returns the cached items. A missing or corrupt payload yields an
// empty slice, never an error.
func (c *Cache[T]) Load(ctx context.Context) []T {
	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		c.logger.Warn().Err(err).Msg("cache read failed; treating as empty")
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		c.logger.Warn().Err(err).Msg("cache payload corrupt; treating as empty")
		return nil
	}
	return items
}

// Merge overlays incoming items onto the cached set, drops identity-less
// items, sorts by descending event time, truncates to the limit, and
// persists the result as the new cache.
func (c *Cache[T]) Merge(ctx context.Context, incoming []T) []T {
	existing := c.Load(ctx)

	byID := make(map[string]T, len(existing)+len(incoming))
	order := make([]string, 0, len(existing)+len(incoming))
	for _, item := range append(existing, incoming...) {
		id := item.Identity()
		if id == "" {
			continue
		}
		if cached, ok := byID[id]; ok {
			byID[id] = cached.Overlay(item)
			continue
		}
		byID[id] = item
		order = append(order, id)
	}

	merged := make([]T, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].EventTime().After(merged[j].EventTime())
	})
	if len(merged) > c.limit {
		merged = merged[:c.limit]
	}

	c.persist(ctx, merged)
	return merged
}

func (c *Cache[T]) persist(ctx context.Context, items []T) {
	encoded, err := json.Marshal(items)
	if err != nil {
		c.logger.Error().Err(err).Msg("encode cache payload")
		return
	}
	if err := c.store.Set(ctx, c.key, string(encoded)); err != nil {
		c.logger.Error().Err(err).Msg("persist cache")
	}
}

// WindowWithLatest keeps the items inside the recency window and, for every
// group key not represented there, adds that group's single most recent
// item regardless of age. A tracked group with any history is therefore
// never rendered empty. The result is sorted by descending event time.
func WindowWithLatest[T Record](items []T, window time.Duration, groupKey func(T) string, now time.Time) []T {
	cutoff := now.Add(-window)

	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EventTime().After(sorted[j].EventTime())
	})

	within := make([]T, 0, len(sorted))
	seen := make(map[string]bool)
	for _, item := range sorted {
		ts := item.EventTime()
		if ts.IsZero() || ts.Before(cutoff) {
			continue
		}
		within = append(within, item)
		if id := item.Identity(); id != "" {
			seen[id] = true
		}
	}

	latestByGroup := make(map[string]T)
	groupOrder := make([]string, 0)
	for _, item := range sorted {
		key := groupKey(item)
		if key == "" {
			continue
		}
		if _, ok := latestByGroup[key]; !ok {
			latestByGroup[key] = item
			groupOrder = append(groupOrder, key)
		}
	}
	for _, key := range groupOrder {
		item := latestByGroup[key]
		id := item.Identity()
		if id == "" || seen[id] {
			continue
		}
		within = append(within, item)
		seen[id] = true
	}

	sort.SliceStable(within, func(i, j int) bool {
		return within[i].EventTime().After(within[j].EventTime())
	})
	return within
}

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bodybest/backend/internal/domain"
)

const (
	replacementPrefix = "mealReplacements_"
	dayDateLayout     = "2006-01-02"
)

// ReplacementCache persists user-selected meal substitutions in date-stamped
// buckets. A replacement cached for date D is never returned once the local
// date advances past D; stale buckets are swept on every access.
type ReplacementCache struct {
	store         domain.KVStore
	logger        *zap.Logger
	retentionDays int
	now           func() time.Time

	// Serializes the bucket read-modify-write; the store's own locking does
	// not cover the compound operation
	mu sync.Mutex
}

// NewReplacementCache creates a replacement cache over a key-value store.
// retentionDays bounds the sweep window (default 2).
func NewReplacementCache(store domain.KVStore, retentionDays int, logger *zap.Logger) *ReplacementCache {
	if retentionDays <= 0 {
		retentionDays = 2
	}
	return &ReplacementCache{
		store:         store,
		logger:        logger,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// bucket maps "dayKey_mealIndex" entry keys to cached replacements
type bucket map[string]domain.CachedReplacement

func entryKey(dayKey string, mealIndex int) string {
	return fmt.Sprintf("%s_%d", dayKey, mealIndex)
}

func bucketKey(date string) string {
	return replacementPrefix + date
}

// CacheMealReplacement stores a replacement for a plan slot inside today's
// bucket.
func (c *ReplacementCache) CacheMealReplacement(ctx context.Context, dayKey string, mealIndex int, meal domain.MealData) error {
	if dayKey == "" || mealIndex < 0 {
		return domain.ErrInvalidRequest
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().Local()
	today := now.Format(dayDateLayout)
	c.purgeStale(ctx, now)

	b := c.loadBucket(ctx, today)
	b[entryKey(dayKey, mealIndex)] = domain.CachedReplacement{
		DayKey:        dayKey,
		MealIndex:     mealIndex,
		Meal:          meal,
		CachedAt:      now,
		OriginalDay:   dayKey,
		OriginalIndex: mealIndex,
	}

	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encoding replacement bucket: %w", err)
	}
	return c.store.Set(ctx, bucketKey(today), payload)
}

// GetCachedMealReplacement returns the replacement stored today for a plan
// slot, or domain.ErrCacheMiss.
func (c *ReplacementCache) GetCachedMealReplacement(ctx context.Context, dayKey string, mealIndex int) (*domain.MealData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().Local()
	today := now.Format(dayDateLayout)
	c.purgeStale(ctx, now)

	b := c.loadBucket(ctx, today)
	entry, ok := b[entryKey(dayKey, mealIndex)]
	if !ok {
		return nil, domain.ErrCacheMiss
	}

	meal := entry.Meal
	return &meal, nil
}

// GetEffectiveMealData is the single entry point for the rendering layer:
// the valid-for-today replacement if present, else the original meal. Cache
// mechanics never surface to the caller.
func (c *ReplacementCache) GetEffectiveMealData(ctx context.Context, original domain.MealData, dayKey string, mealIndex int) domain.MealData {
	cached, err := c.GetCachedMealReplacement(ctx, dayKey, mealIndex)
	if err != nil {
		return original
	}
	return *cached
}

// loadBucket reads and decodes a dated bucket. Corrupt payloads self-heal:
// the bucket is dropped with a warning and treated as empty.
func (c *ReplacementCache) loadBucket(ctx context.Context, date string) bucket {
	key := bucketKey(date)

	payload, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			c.logger.Warn("replacement bucket read failed", zap.String("key", key), zap.Error(err))
		}
		return bucket{}
	}

	var b bucket
	if err := json.Unmarshal(payload, &b); err != nil {
		c.logger.Warn("dropping corrupt replacement bucket",
			zap.String("key", key),
			zap.Error(fmt.Errorf("%w: %v", domain.ErrCacheCorrupt, err)))
		if delErr := c.store.Delete(ctx, key); delErr != nil {
			c.logger.Warn("purging corrupt bucket failed", zap.String("key", key), zap.Error(delErr))
		}
		return bucket{}
	}
	if b == nil {
		b = bucket{}
	}
	return b
}

// purgeStale removes buckets older than the retention window. Buckets for a
// past date inside the window are kept on disk but never read, since the
// access paths only consult today's bucket.
func (c *ReplacementCache) purgeStale(ctx context.Context, now time.Time) {
	keys, err := c.store.Keys(ctx, replacementPrefix)
	if err != nil {
		c.logger.Warn("replacement sweep failed", zap.Error(err))
		return
	}

	// ISO dates compare correctly as strings
	today := now.Format(dayDateLayout)
	cutoff := now.AddDate(0, 0, -c.retentionDays).Format(dayDateLayout)

	// The most recent validly dated bucket is the active one; it is dropped
	// as soon as its stamped date is no longer today. Older buckets fall to
	// the retention sweep, and keys whose suffix does not parse as a date are
	// purged without influencing the ordering.
	active := ""
	dated := make(map[string]bool, len(keys))
	for _, key := range keys {
		date := key[len(replacementPrefix):]
		if _, err := time.ParseInLocation(dayDateLayout, date, now.Location()); err != nil {
			continue
		}
		dated[key] = true
		if date > active {
			active = date
		}
	}

	for _, key := range keys {
		date := key[len(replacementPrefix):]
		stale := !dated[key] || date < cutoff || (date == active && date != today)
		if !stale {
			continue
		}
		if delErr := c.store.Delete(ctx, key); delErr != nil {
			c.logger.Warn("purging stale bucket failed", zap.String("key", key), zap.Error(delErr))
			continue
		}
		c.logger.Debug("purged replacement bucket", zap.String("key", key))
	}
}

package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tronik-dashboard/internal/helpers"
	"tronik-dashboard/internal/logger"

	"go.uber.org/zap"
)

// GeocodeCache keeps recent geocoding results so repeated locations do not
// hit Nominatim again. Keys are normalized location text.
type GeocodeCache struct {
	cache      map[string]*cacheEntry
	mutex      sync.RWMutex
	maxEntries int
	ttl        time.Duration
	stats      cacheStats
	now        func() time.Time
}

type cacheEntry struct {
	result       GeocodeResult
	createdAt    time.Time
	lastAccessed time.Time
	hitCount     int
}

type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
	mutex     sync.Mutex
}

// NewGeocodeCache creates a cache holding up to maxEntries results for ttl.
func NewGeocodeCache(maxEntries int, ttl time.Duration) *GeocodeCache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &GeocodeCache{
		cache:      make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns a copy of the cached result for text, if fresh.
func (c *GeocodeCache) Get(text string) (*GeocodeResult, bool) {
	key := helpers.NormalizeText(text)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, found := c.cache[key]
	if !found {
		c.recordMiss()
		return nil, false
	}

	if c.now().Sub(entry.createdAt) > c.ttl {
		delete(c.cache, key)
		c.recordMiss()
		c.recordEviction()
		return nil, false
	}

	entry.lastAccessed = c.now()
	entry.hitCount++
	c.recordHit()

	result := entry.result
	return &result, true
}

// Set stores result for text. Fallback results are never cached.
func (c *GeocodeCache) Set(text string, result *GeocodeResult) {
	if result == nil || result.IsFallback() {
		return
	}
	key := helpers.NormalizeText(text)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.cache[key]; !exists && len(c.cache) >= c.maxEntries {
		c.evictOldest()
	}

	now := c.now()
	c.cache[key] = &cacheEntry{
		result:       *result,
		createdAt:    now,
		lastAccessed: now,
	}
}

// evictOldest removes the least recently used entry. Caller holds the lock.
func (c *GeocodeCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.cache {
		if oldestKey == "" || entry.lastAccessed.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.lastAccessed
		}
	}

	if oldestKey != "" {
		delete(c.cache, oldestKey)
		c.recordEviction()
		logger.Debug("Evicted geocode cache entry", zap.String("key", oldestKey))
	}
}

// RunCleanup drops expired entries every interval until ctx is done.
func (c *GeocodeCache) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *GeocodeCache) removeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	for key, entry := range c.cache {
		if now.Sub(entry.createdAt) > c.ttl {
			delete(c.cache, key)
			c.recordEviction()
		}
	}
}

func (c *GeocodeCache) recordHit() {
	c.stats.mutex.Lock()
	c.stats.hits++
	c.stats.mutex.Unlock()
}

func (c *GeocodeCache) recordMiss() {
	c.stats.mutex.Lock()
	c.stats.misses++
	c.stats.mutex.Unlock()
}

func (c *GeocodeCache) recordEviction() {
	c.stats.mutex.Lock()
	c.stats.evictions++
	c.stats.mutex.Unlock()
}

// Stats returns cache counters for diagnostics.
func (c *GeocodeCache) Stats() map[string]interface{} {
	c.mutex.RLock()
	size := len(c.cache)
	c.mutex.RUnlock()

	c.stats.mutex.Lock()
	defer c.stats.mutex.Unlock()

	hitRate := 0.0
	total := c.stats.hits + c.stats.misses
	if total > 0 {
		hitRate = float64(c.stats.hits) / float64(total) * 100
	}

	return map[string]interface{}{
		"tamanho":      size,
		"max_entradas": c.maxEntries,
		"acertos":      c.stats.hits,
		"falhas":       c.stats.misses,
		"taxa_acerto":  fmt.Sprintf("%.2f%%", hitRate),
		"remocoes":     c.stats.evictions,
		"ttl_horas":    int(c.ttl.Hours()),
	}
}

package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"weather-dashboard/datasource"
	"weather-dashboard/models"
)

// CachedGeocoder wraps a Geocoder and memoises successful city lookups.
// Weather and forecast payloads are never cached.
type CachedGeocoder struct {
	source         datasource.Geocoder
	cache          map[string]cacheEntry
	mutex          sync.RWMutex
	cacheDuration  time.Duration
	cacheHitCount  int
	cacheMissCount int
	log            logrus.FieldLogger
	now            func() time.Time
}

// cacheEntry represents a resolved location with the time it was stored
type cacheEntry struct {
	Location  models.Location
	Timestamp time.Time
}

// NewCachedGeocoder creates a new cached wrapper around a geocoder
func NewCachedGeocoder(source datasource.Geocoder, cacheDuration time.Duration, log logrus.FieldLogger) *CachedGeocoder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CachedGeocoder{
		source:        source,
		cache:         make(map[string]cacheEntry),
		cacheDuration: cacheDuration,
		log:           log,
		now:           time.Now,
	}
}

// Name returns the name of the underlying geocoder with [Cached] suffix
func (c *CachedGeocoder) Name() string {
	return c.source.Name() + " [Cached]"
}

// ResolveCity resolves a city, using the cache when a fresh entry exists
func (c *CachedGeocoder) ResolveCity(ctx context.Context, name string) (models.Location, error) {
	key := normalize(name)

	c.mutex.RLock()
	entry, found := c.cache[key]
	c.mutex.RUnlock()

	if found && c.now().Sub(entry.Timestamp) < c.cacheDuration {
		c.mutex.Lock()
		c.cacheHitCount++
		c.mutex.Unlock()

		c.log.WithFields(logrus.Fields{
			"city": key,
			"age":  c.now().Sub(entry.Timestamp).Round(time.Second),
		}).Debug("geocode cache hit")
		return entry.Location, nil
	}

	c.mutex.Lock()
	c.cacheMissCount++
	c.mutex.Unlock()

	loc, err := c.source.ResolveCity(ctx, name)
	if err != nil {
		return models.Location{}, err
	}

	c.mutex.Lock()
	c.cache[key] = cacheEntry{
		Location:  loc,
		Timestamp: c.now(),
	}
	c.mutex.Unlock()

	return loc, nil
}

// Purge drops expired entries and returns how many were removed
func (c *CachedGeocoder) Purge() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	for key, entry := range c.cache {
		if c.now().Sub(entry.Timestamp) >= c.cacheDuration {
			delete(c.cache, key)
			removed++
		}
	}
	return removed
}

// CacheStats returns statistics about cache hits and misses
func (c *CachedGeocoder) CacheStats() (hits, misses int) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.cacheHitCount, c.cacheMissCount
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Ensure CachedGeocoder implements the Geocoder interface
var _ datasource.Geocoder = (*CachedGeocoder)(nil)

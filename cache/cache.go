// Package cache keeps recently fetched pages in memory so a re-attempted
// chain step (or a chain revisit check) doesn't hit the network twice for
// the same URL.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/IITM-SMRITHI/llm-analysis-quiz/models"
)

// entry holds a cached fetch result with its creation timestamp.
type entry struct {
	result    *models.FetchResult
	createdAt time.Time
}

// Cache is a simple in-memory cache for fetch results.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
}

// New creates a Cache with the given capacity and entry TTL.
// A background goroutine evicts expired entries every minute.
func New(maxEntries int, ttl time.Duration) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
	go c.cleanupLoop()
	return c
}

// Key generates a cache key from the URL and engine preference.
func Key(url string, renderJS bool) string {
	h := sha256.New()
	h.Write([]byte(url))
	if renderJS {
		h.Write([]byte("|render"))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached fetch result younger than the TTL.
func (c *Cache) Get(key string) (*models.FetchResult, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || time.Since(e.createdAt) > c.ttl {
		return nil, false
	}
	return e.result, true
}

// Set stores a fetch result. If the cache is at capacity, a random entry
// is evicted to make room (map iteration is random in Go).
func (c *Cache) Set(key string, result *models.FetchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		result:    result,
		createdAt: time.Now(),
	}
}

// cleanupLoop evicts expired entries every minute.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-c.ttl)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}

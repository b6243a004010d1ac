// Package cache keeps rendered pages in memory for a short time.
package cache

import (
	"net/http"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Page is a cached HTTP response.
type Page struct {
	Status int
	Header http.Header
	Body   []byte
}

// PageCache is a bounded TTL cache of rendered pages keyed by string.
type PageCache struct {
	store *ristretto.Cache[string, *Page]
	ttl   time.Duration
}

// New creates a cache holding at most maxCost bytes of page bodies.
func New(maxCost int64, ttl time.Duration) (*PageCache, error) {
	// roughly ten counters per expected page of 1KiB
	counters := max(10*(maxCost/1024), 1000)
	store, err := ristretto.NewCache(&ristretto.Config[string, *Page]{
		NumCounters:        counters,
		MaxCost:            maxCost,
		BufferItems:        64,
		Metrics:            true,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &PageCache{store: store, ttl: ttl}, nil
}

// TTL is how long a page stays cached.
func (c *PageCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the page stored under key.
func (c *PageCache) Get(key string) (*Page, bool) {
	return c.store.Get(key)
}

// Set stores page under key and waits until it is readable.
func (c *PageCache) Set(key string, page *Page) bool {
	cost := int64(len(page.Body)) + 1
	ok := c.store.SetWithTTL(key, page, cost, c.ttl)
	c.store.Wait()
	return ok
}

// Delete drops a single key.
func (c *PageCache) Delete(key string) {
	c.store.Del(key)
}

// Clear drops every cached page.
func (c *PageCache) Clear() {
	c.store.Clear()
}

// Hits and Misses report lookup counters since the cache was created.
func (c *PageCache) Hits() uint64 {
	return c.store.Metrics.Hits()
}

func (c *PageCache) Misses() uint64 {
	return c.store.Metrics.Misses()
}

// Close stops the cache's background goroutines.
func (c *PageCache) Close() {
	c.store.Close()
}

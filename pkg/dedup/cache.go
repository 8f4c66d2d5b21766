// Package dedup provides the time-bounded suppression cache that keeps a
// repeated (conversation, URL) pair from re-triggering the download
// pipeline inside the suppression window.
package dedup

import (
	"context"
	"sync"
	"time"
)

// Key builds the composite dedup key for a conversation and URL.
func Key(conversationID, url string) string {
	return conversationID + "-" + url
}

// Cache is a TTL set. Expiry is sweep-based: a background janitor removes
// dead entries in batches, so cleanup cost tracks the number of live
// entries instead of one timer per insertion. Lookups also treat expired
// entries as absent, so correctness never depends on the sweep having run.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]time.Time

	// now is replaceable in tests to simulate an elapsed window.
	now func() time.Time
}

// New creates a cache whose entries expire ttl after insertion.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Add inserts key if it is absent (or expired) and reports whether the
// insertion happened. A false return means the key is inside its window.
func (c *Cache) Add(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if deadline, ok := c.entries[key]; ok && now.Before(deadline) {
		return false
	}
	c.entries[key] = now.Add(c.ttl)
	return true
}

// Contains reports whether key is present and inside its window.
func (c *Cache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := c.entries[key]
	return ok && c.now().Before(deadline)
}

// Remove drops key immediately, ending its suppression window early.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len counts live entries. Expired but unswept entries are not counted.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for _, deadline := range c.entries {
		if now.Before(deadline) {
			n++
		}
	}
	return n
}

// Run sweeps expired entries every interval until ctx is cancelled.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, deadline := range c.entries {
		if !now.Before(deadline) {
			delete(c.entries, key)
		}
	}
}

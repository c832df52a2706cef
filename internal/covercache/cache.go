// Package covercache memoizes extracted cover art so repeat requests for the
// same file never re-parse the underlying object. The cache is bounded: it
// holds at most the configured number of covers and evicts the least
// recently used beyond that, making memory use an explicit parameter rather
// than an unbounded process-lifetime map.
package covercache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity is used when no capacity is configured.
const DefaultCapacity = 512

// Entry holds extracted cover bytes together with the MIME format the tag
// declared for them.
type Entry struct {
	Data   []byte
	Format string
}

// Cache is a concurrency-safe LRU of cover entries keyed by logical file
// identifier. A racing duplicate extraction for the same key is tolerated;
// the last writer wins.
type Cache struct {
	entries *lru.Cache[string, Entry]
}

// New creates a cover cache bounded to the given number of entries.
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	entries, err := lru.New[string, Entry](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create cover cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Get returns the cached cover for a file, if present.
func (c *Cache) Get(file string) (Entry, bool) {
	return c.entries.Get(file)
}

// Put stores the cover for a file.
func (c *Cache) Put(file string, entry Entry) {
	c.entries.Add(file, entry)
}

// Len returns the number of cached covers.
func (c *Cache) Len() int {
	return c.entries.Len()
}

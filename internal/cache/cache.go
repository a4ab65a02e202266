// Package cache persists storefront search results across a batch run so
// repeated queries skip the network.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"coverscout/internal/store"
)

// DefaultTTL is how long a cached result list stays valid.
const DefaultTTL = 60 * time.Minute

type entry struct {
	Candidates []store.Candidate `json:"candidates"`
	FetchedAt  time.Time         `json:"fetchedAt"`
}

// Cache is a file-backed query→candidates map with TTL expiry. Read and
// write failures degrade to cache misses and skipped persists; the cache
// must never abort a batch.
type Cache struct {
	path    string
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// Open loads the cache file at path, creating an empty cache if the file is
// missing or unreadable. ttl <= 0 selects DefaultTTL.
func Open(path string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		path:    path,
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	// A corrupt file is discarded rather than surfaced; it will be
	// rewritten on the next put.
	_ = json.Unmarshal(data, &c.entries)
	if c.entries == nil {
		c.entries = make(map[string]entry)
	}
	return c
}

// Key derives the stable cache key for a query and locale. The raw query
// string is hashed, not the normalized form, so queries differing only in
// casing or spacing produce distinct entries. Known hit-rate limitation,
// kept for compatibility with existing cache files.
func Key(q store.Query, locale string) string {
	h := sha1.Sum([]byte(locale + "|" + q.Raw()))
	return hex.EncodeToString(h[:])
}

// Get returns the cached candidates for the query, or a miss when the entry
// is absent or older than the TTL.
func (c *Cache) Get(q store.Query, locale string) ([]store.Candidate, bool) {
	e, ok := c.entries[Key(q, locale)]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.FetchedAt) > c.ttl {
		return nil, false
	}
	return e.Candidates, true
}

// Put stores a non-empty candidate list for the query and persists the cache
// file best-effort. Empty lists are never cached: a parse failure must not
// masquerade as a confirmed "no results" within the TTL window.
func (c *Cache) Put(q store.Query, locale string, candidates []store.Candidate) {
	if len(candidates) == 0 {
		return
	}
	c.entries[Key(q, locale)] = entry{Candidates: candidates, FetchedAt: c.now()}
	c.persist()
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	return len(c.entries)
}

func (c *Cache) persist() {
	if c.path == "" {
		return
	}
	data, err := json.Marshal(c.entries)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return
	}
	_ = os.WriteFile(c.path, data, 0644)
}

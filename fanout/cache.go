// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

import (
	"sync"
	"time"

	"github.com/corral-io/corral/model"
)

// DefaultTTL bounds how long a per-target fetch result is served without a
// fresh network read.
const DefaultTTL = 5 * time.Minute

// CacheKey identifies one target's cached result.
type CacheKey struct {
	ID          string
	DatabaseURL string
}

type cacheEntry struct {
	records   []model.Record
	fetchedAt time.Time
}

// Cache is a replace-only TTL cache of per-target fetch results. It is an
// injected instance with an explicit lifecycle, not package state.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	lock    sync.Mutex
	entries map[CacheKey]cacheEntry
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: map[CacheKey]cacheEntry{},
	}
}

// Get returns the cached records for the key while the entry is younger than
// the TTL.
func (c *Cache) Get(key CacheKey) ([]model.Record, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	entry, ok := c.entries[key]
	if !ok || c.now().Sub(entry.fetchedAt) >= c.ttl {
		return nil, false
	}
	return entry.records, true
}

// Put stores a result stamped with the time its fetch began. A result from a
// slower fetch never overwrites one from a fetch that started later, so two
// near-simultaneous refresh triggers cannot leave stale data behind.
func (c *Cache) Put(key CacheKey, records []model.Record, fetchedAt time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if existing, ok := c.entries[key]; ok && existing.fetchedAt.After(fetchedAt) {
		return
	}
	c.entries[key] = cacheEntry{records: records, fetchedAt: fetchedAt}
}

// Purge drops every entry; the manual-refresh path.
func (c *Cache) Purge() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.entries = map[CacheKey]cacheEntry{}
}

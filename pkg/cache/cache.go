// Package cache persists the per-task change-detection state between runs.
// A task whose modification token matches the cached value is skipped
// without any remote traffic. The cache is a freshness optimization, not a
// correctness mechanism: remote-side drift is invisible to it.
package cache

import (
	"encoding/json"
	"log"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"github.com/quentinwalden/thingsync/pkg/things"
)

// Entry is the cached record for one task uuid.
type Entry struct {
	Modified     string    `json:"modified"`
	LastSyncedAt time.Time `json:"last_synced_at"`
}

// Cache is the persisted uuid → Entry table. Mutations are buffered in
// memory and written to disk only on Save, so a run that aborts early leaves
// the previous state intact.
type Cache struct {
	d       *diskv.Diskv
	entries map[string]Entry
	dirty   map[string]bool
	now     func() time.Time
}

// Open loads the cache from basePath. Unreadable or corrupt entries are
// dropped (cold start for that uuid), never fatal.
func Open(basePath string) *Cache {
	c := &Cache{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			CacheSizeMax: 1024 * 1024,
		}),
		entries: make(map[string]Entry),
		dirty:   make(map[string]bool),
		now:     time.Now,
	}
	for key := range c.d.Keys(nil) {
		val, err := c.d.Read(key)
		if err != nil {
			log.Printf("cache: unreadable entry %s: %v", key, err)
			continue
		}
		var e Entry
		if err := json.Unmarshal(val, &e); err != nil {
			log.Printf("cache: corrupt entry %s: %v", key, err)
			continue
		}
		c.entries[key] = e
	}
	return c
}

// Filter returns the tasks whose modification token differs from (or is
// absent from) the cached value.
func (c *Cache) Filter(tasks []things.Task) []things.Task {
	var changed []things.Task
	for _, t := range tasks {
		e, ok := c.entries[t.UUID]
		if !ok || e.Modified != t.Modified {
			changed = append(changed, t)
		}
	}
	return changed
}

// MarkSeen records the task's current modification token. It is called
// before the remote write is attempted, so a transiently failed write is not
// retried on the next run. A staged commit after the write would buy
// at-least-once convergence at the cost of reprocessing on every failure.
func (c *Cache) MarkSeen(t things.Task) {
	e := Entry{Modified: t.Modified, LastSyncedAt: c.now()}
	if c.entries[t.UUID] != e {
		c.entries[t.UUID] = e
		c.dirty[t.UUID] = true
	}
}

// Save flushes buffered mutations to disk.
func (c *Cache) Save() error {
	for uuid := range c.dirty {
		data, err := json.Marshal(c.entries[uuid])
		if err != nil {
			return err
		}
		if err := c.d.Write(uuid, data); err != nil {
			return err
		}
		delete(c.dirty, uuid)
	}
	return nil
}

// Clear erases all cached entries, on disk and in memory.
func (c *Cache) Clear() error {
	if err := c.d.EraseAll(); err != nil {
		return err
	}
	c.entries = make(map[string]Entry)
	c.dirty = make(map[string]bool)
	return nil
}

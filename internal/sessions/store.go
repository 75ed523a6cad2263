// Package sessions keeps live wizard sessions in memory.
package sessions

import (
	"sync"
	"time"

	"github.com/bobmcallan/macro-alpha/internal/wizard"
)

// entry wraps a session with its idle deadline and recency counter.
type entry struct {
	session *wizard.Session
	expiry  time.Time
	useIdx  int64
}

// Store holds sessions by id. Each access pushes a session's expiry out
// by the idle TTL; when full, the least recently used session is dropped.
// Thread-safe with sync.RWMutex.
type Store struct {
	mu         sync.RWMutex
	items      map[string]entry
	ttl        time.Duration
	maxEntries int
	nextIdx    int64
}

// NewStore creates a Store. maxEntries <= 0 means unbounded.
func NewStore(ttl time.Duration, maxEntries int) *Store {
	return &Store{
		items:      make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// Put stores s under s.ID, replacing any session with the same id.
func (c *Store) Put(s *wizard.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{
		session: s,
		expiry:  time.Now().Add(c.ttl),
		useIdx:  c.nextIdx,
	}
	c.nextIdx++

	if _, exists := c.items[s.ID]; exists {
		c.items[s.ID] = e
		return
	}

	if c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.evictLeastRecent()
	}

	c.items[s.ID] = e
}

// Get returns a live session and refreshes its idle deadline.
func (c *Store) Get(id string) (*wizard.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[id]
	if !ok {
		return nil, false
	}
	now := time.Now()
	if now.After(e.expiry) {
		delete(c.items, id)
		return nil, false
	}

	e.expiry = now.Add(c.ttl)
	e.useIdx = c.nextIdx
	c.nextIdx++
	c.items[id] = e
	return e.session, true
}

// Delete removes a session. Returns false if it was not present.
func (c *Store) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	return true
}

// Len returns the number of stored sessions, expired ones included
// until the next Cleanup.
func (c *Store) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Cleanup drops expired sessions and returns how many were removed.
func (c *Store) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, e := range c.items {
		if now.After(e.expiry) {
			delete(c.items, id)
			removed++
		}
	}
	return removed
}

// evictLeastRecent removes the entry with the lowest useIdx. Must be called with mu held.
func (c *Store) evictLeastRecent() {
	var oldestID string
	var oldestIdx int64 = -1

	for id, e := range c.items {
		if oldestIdx == -1 || e.useIdx < oldestIdx {
			oldestIdx = e.useIdx
			oldestID = id
		}
	}

	if oldestID != "" {
		delete(c.items, oldestID)
	}
}

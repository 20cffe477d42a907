package engine

import (
	"sync"
	"time"

	"worldweaver/internal/state"
)

// sessionCache holds live state managers keyed by session id. Entries not
// touched within the TTL are swept out; their durable state stays in the
// store and is reloaded on the next request.
type sessionCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*sessionEntry
}

type sessionEntry struct {
	once     sync.Once
	manager  *state.Manager
	err      error
	lastSeen time.Time
}

func newSessionCache(ttl time.Duration, now func() time.Time) *sessionCache {
	if now == nil {
		now = time.Now
	}
	return &sessionCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]*sessionEntry),
	}
}

// getOrCreate returns the session's manager, invoking load exactly once per
// cache entry. Concurrent first-touch calls for the same session share one
// slot and block until the load completes, so every caller mutates the same
// manager. A failed load releases the slot for a later retry.
func (c *sessionCache) getOrCreate(sessionID string, load func() (*state.Manager, error)) (*state.Manager, error) {
	c.mu.Lock()
	e, ok := c.entries[sessionID]
	if !ok {
		e = &sessionEntry{}
		c.entries[sessionID] = e
	}
	e.lastSeen = c.now()
	c.mu.Unlock()

	e.once.Do(func() {
		e.manager, e.err = load()
	})
	if e.err != nil {
		c.mu.Lock()
		if c.entries[sessionID] == e {
			delete(c.entries, sessionID)
		}
		c.mu.Unlock()
		return nil, e.err
	}
	return e.manager, nil
}

// sweep evicts entries idle past the TTL and returns their session ids.
func (c *sessionCache) sweep() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.ttl)
	var evicted []string
	for id, e := range c.entries {
		if e.lastSeen.Before(cutoff) {
			delete(c.entries, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// remove drops specific sessions, returning how many were cached.
func (c *sessionCache) remove(sessionIDs []string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, id := range sessionIDs {
		if _, ok := c.entries[id]; ok {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

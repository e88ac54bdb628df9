package db

import "sync"

const cacheMaxEntries = 1024

// sessionCache is a bounded read cache for GetSession, owned by the store.
// Entries are invalidated on every mutation of the id; when the map grows
// past its cap it is reset wholesale rather than tracking eviction order.
type sessionCache struct {
	mu      sync.RWMutex
	entries map[string]Session
}

func newSessionCache() *sessionCache {
	return &sessionCache{entries: make(map[string]Session)}
}

// get returns a copy of the cached session, if present. Copies keep
// callers from mutating shared cache state.
func (c *sessionCache) get(id string) (*Session, bool) {
	c.mu.RLock()
	s, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return &s, true
}

func (c *sessionCache) put(s *Session) {
	c.mu.Lock()
	if len(c.entries) >= cacheMaxEntries {
		c.entries = make(map[string]Session)
	}
	c.entries[s.ID] = *s
	c.mu.Unlock()
}

func (c *sessionCache) invalidate(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

func (c *sessionCache) reset() {
	c.mu.Lock()
	c.entries = make(map[string]Session)
	c.mu.Unlock()
}

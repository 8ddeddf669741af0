package history

import (
	"context"
	"sync"
)

// CachedMessage is the slim message shape kept by the recent-context cache.
type CachedMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RecentCache keeps the tail of each session's conversation for prompt
// building without a store round trip. It is a read-through convenience in
// front of the repo, never the source of truth: entries may vanish at any
// time and callers must fall back to the store.
type RecentCache interface {
	Append(ctx context.Context, sessionID string, msg CachedMessage)
	Recent(ctx context.Context, sessionID string, limit int) []CachedMessage
	Clear(ctx context.Context, sessionID string)
}

const defaultCacheDepth = 20

// MemoryCache is the default backend: a process-lifetime map. Lost on
// restart by design.
type MemoryCache struct {
	mu       sync.Mutex
	sessions map[string][]CachedMessage
	depth    int
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		sessions: make(map[string][]CachedMessage),
		depth:    defaultCacheDepth,
	}
}

func (c *MemoryCache) Append(_ context.Context, sessionID string, msg CachedMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := append(c.sessions[sessionID], msg)
	if len(list) > c.depth {
		list = list[len(list)-c.depth:]
	}
	c.sessions[sessionID] = list
}

func (c *MemoryCache) Recent(_ context.Context, sessionID string, limit int) []CachedMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.sessions[sessionID]
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	out := make([]CachedMessage, len(list))
	copy(out, list)
	return out
}

func (c *MemoryCache) Clear(_ context.Context, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionID)
}

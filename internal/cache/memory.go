package cache

import (
	"context"
	"sync"
	"time"

	"pinroom/internal/domain/repositories"
)

type memoryEntry struct {
	pin     string
	expires time.Time
}

// MemoryPinCache is an in-process PinCache for single-instance and dev setups.
// Expired entries are dropped when read and swept on every write, so sessions that
// never come back do not pin memory past their ttl.
type MemoryPinCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryPinCache creates an empty cache whose entries live for ttl
func NewMemoryPinCache(ttl time.Duration) *MemoryPinCache {
	return &MemoryPinCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

var _ repositories.PinCache = (*MemoryPinCache)(nil)

func (c *MemoryPinCache) Get(_ context.Context, sessionID, roomKey string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := pinKey(sessionID, roomKey)
	entry, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}
	if c.ttl > 0 && !c.now().Before(entry.expires) {
		delete(c.entries, key)
		return "", false, nil
	}
	return entry.pin, true, nil
}

func (c *MemoryPinCache) Set(_ context.Context, sessionID, roomKey, pin string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.ttl > 0 {
		for key, entry := range c.entries {
			if !now.Before(entry.expires) {
				delete(c.entries, key)
			}
		}
	}
	c.entries[pinKey(sessionID, roomKey)] = memoryEntry{pin: pin, expires: now.Add(c.ttl)}
	return nil
}

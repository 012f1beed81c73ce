package cache

import (
	"bytes"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache holds recently narrated mp3 payloads in process memory.
// Payloads are copied on the way in so callers may reuse their buffers.
type MemoryCache struct {
	audio *gocache.Cache
}

// NewMemoryCache creates a memory cache; expired audio is purged every cleanupInterval
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{audio: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	val, found := c.audio.Get(key)
	if !found {
		return nil, false
	}
	data, ok := val.([]byte)
	return data, ok
}

// Set stores a copy of value; a zero ttl keeps it for the memory TTL
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.audio.Set(key, bytes.Clone(value), ttl)
	return nil
}

func (c *MemoryCache) Delete(key string) error {
	c.audio.Delete(key)
	return nil
}

func (c *MemoryCache) Clear() error {
	c.audio.Flush()
	return nil
}

// Len counts stored narrations, including expired ones not yet purged
func (c *MemoryCache) Len() int {
	return c.audio.ItemCount()
}

package cache

import (
	"errors"
	"time"
)

// LayeredCache keeps narrations on disk across runs and in memory for the
// lifetime of a serve process. A disk hit is promoted into memory.
type LayeredCache struct {
	memory Cache
	disk   Cache
}

// NewLayeredCache creates a memory layer over a disk layer rooted at diskDir
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL, 10*time.Minute),
		disk:   NewDiskCache(diskDir, diskTTL),
	}
}

func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if audio, found := c.memory.Get(key); found {
		return audio, true
	}

	audio, found := c.disk.Get(key)
	if !found {
		return nil, false
	}
	_ = c.memory.Set(key, audio, 0)
	return audio, true
}

// Set writes both layers. A failing disk write still leaves the memory copy.
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	return errors.Join(c.memory.Set(key, value, ttl), c.disk.Set(key, value, ttl))
}

func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.memory.Delete(key), c.disk.Delete(key))
}

func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), c.disk.Clear())
}

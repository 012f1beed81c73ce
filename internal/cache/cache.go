package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/omnikernel/internal/model"
)

// Cache stores opaque byte payloads with a TTL
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// NarrationKey derives a cache key for synthesized audio.
// Every field that changes the produced audio is part of the key.
func NarrationKey(provider, modelName, voice, lang string, speed float64, text string) string {
	h := sha256.New()
	for _, part := range []string{provider, modelName, voice, lang, strconv.FormatFloat(speed, 'g', -1, 64), text} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "omnikernel:v2:audio:" + hex.EncodeToString(h.Sum(nil))
}

// New builds the cache described by cfg, or nil when caching is disabled
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

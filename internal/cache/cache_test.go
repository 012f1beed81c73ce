package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/omnikernel/internal/model"
)

func TestNarrationKey(t *testing.T) {
	a := NarrationKey("google", "", "", "es-com.mx", 1, "hola")
	b := NarrationKey("google", "", "", "es-com.mx", 1, "hola")
	if a != b {
		t.Error("Expected identical inputs to produce identical keys")
	}

	variants := map[string]string{
		"provider": NarrationKey("openai", "", "", "es-com.mx", 1, "hola"),
		"model":    NarrationKey("google", "tts-1-hd", "", "es-com.mx", 1, "hola"),
		"voice":    NarrationKey("google", "", "onyx", "es-com.mx", 1, "hola"),
		"lang":     NarrationKey("google", "", "", "es-com", 1, "hola"),
		"speed":    NarrationKey("google", "", "", "es-com.mx", 1.25, "hola"),
		"text":     NarrationKey("google", "", "", "es-com.mx", 1, "adios"),
		"boundary": NarrationKey("googl", "e", "", "es-com.mx", 1, "hola"),
	}
	seen := map[string]string{a: "base"}
	for field, v := range variants {
		if prev, dup := seen[v]; dup {
			t.Errorf("Expected %s to change the key, collides with %s", field, prev)
		}
		seen[v] = field
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Expected miss for unknown key")
	}

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Errorf("Expected hit with 'v', got %q (%v)", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", c.Len())
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss after delete")
	}

	_ = c.Set("a", []byte("1"), time.Minute)
	_ = c.Set("b", []byte("2"), time.Minute)
	_ = c.Clear()
	if c.Len() != 0 {
		t.Errorf("Expected empty cache after clear, got %d", c.Len())
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("Expected entry to expire")
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	key := NarrationKey("google", "", "", "es-com.mx", 1, "hola")
	if err := c.Set(key, []byte("audio"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := c.Get(key)
	if !ok || string(got) != "audio" {
		t.Errorf("Expected hit with 'audio', got %q (%v)", got, ok)
	}

	// No temp files left behind
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected exactly 1 file in cache dir, got %d", len(entries))
	}

	if err := c.Delete(key); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("Deleting a missing key should not fail: %v", err)
	}
}

func TestDiskCache_Expired(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	now := time.Now()
	c.now = func() time.Time { return now }
	_ = c.Set("k", []byte("v"), time.Minute)

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, ok := c.Get("k"); ok {
		t.Error("Expected expired entry to miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("Expected expired entry file to be removed")
	}
}

func TestDiskCache_Corrupt(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("Expected corrupt entry to miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "layers")
	c := NewLayeredCache(time.Minute, dir, time.Hour)

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Drop the memory layer, the disk layer must still serve the value
	_ = c.memory.Clear()
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("Expected disk hit, got %q (%v)", got, ok)
	}

	if _, ok := c.memory.Get("k"); !ok {
		t.Error("Expected disk hit to be promoted into memory")
	}

	if err := c.Clear(); err != nil {
		t.Errorf("Clear failed: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss after clear")
	}
}

func TestNew(t *testing.T) {
	if New(model.CacheConfig{Enabled: false}) != nil {
		t.Error("Expected nil cache when disabled")
	}

	if _, ok := New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute}).(*MemoryCache); !ok {
		t.Error("Expected memory-only cache without a directory")
	}

	cfg := model.CacheConfig{Enabled: true, Dir: t.TempDir(), MemoryTTL: time.Minute, DiskTTL: time.Hour}
	if _, ok := New(cfg).(*LayeredCache); !ok {
		t.Error("Expected layered cache with a directory")
	}
}

func TestMemoryCache_CopiesAudio(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	buf := []byte("ID3-audio")
	_ = c.Set("k", buf, 0)
	buf[0] = 'X'

	got, ok := c.Get("k")
	if !ok || string(got) != "ID3-audio" {
		t.Errorf("Expected stored audio unaffected by caller buffer reuse, got %q", got)
	}
}

func TestLayeredCache_DiskFailureKeepsMemory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	c := NewLayeredCache(time.Minute, filepath.Join(blocker, "cache"), time.Hour)

	if err := c.Set("k", []byte("v"), 0); err == nil {
		t.Error("Expected disk write error")
	}
	if got, ok := c.Get("k"); !ok || string(got) != "v" {
		t.Errorf("Expected memory layer to serve the audio, got %q (%v)", got, ok)
	}
}

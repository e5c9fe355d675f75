package translation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// cacheVersion is bumped whenever validation changes so stale entries stop matching.
const cacheVersion = "lit-v16-"

// CacheKey derives the cache key of a unit. Entries are scoped to the
// target language so one cache can serve books in several languages.
func CacheKey(unit, targetLanguage string) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(targetLanguage))))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(unit)))
	return cacheVersion + hex.EncodeToString(h.Sum(nil))
}

// ContentCache is the process-wide unit cache. Only the gate writes to it.
type ContentCache interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// FileCache stores one file per key under dir.
type FileCache struct {
	dir   string
	mutex sync.RWMutex
}

// NewFileCache stores entries as files under dir.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) Get(key string) (string, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (c *FileCache) Set(key, value string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if err := os.WriteFile(c.path(key), []byte(value), 0644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Clear removes every entry.
func (c *FileCache) Clear() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".txt" {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove cache entry: %w", err)
		}
	}
	return nil
}

func (c *FileCache) path(key string) string {
	// Keys are already hex digests behind a version tag, safe as file names.
	return filepath.Join(c.dir, key+".txt")
}

// MemoryCache keeps entries in a map and counts accesses.
type MemoryCache struct {
	mutex   sync.RWMutex
	entries map[string]string
	gets    int
	sets    int
}

// NewMemoryCache returns an empty cache that counts its calls.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]string)}
}

func (c *MemoryCache) Get(key string) (string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.gets++
	value, ok := c.entries[key]
	return value, ok
}

func (c *MemoryCache) Set(key, value string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.sets++
	c.entries[key] = value
	return nil
}

// Stats returns the number of Get and Set calls so far.
func (c *MemoryCache) Stats() (gets, sets int) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.gets, c.sets
}

func (c *MemoryCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

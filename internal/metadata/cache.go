package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Cache is a two-tier lookup cache: an in-process map in front of one
// JSON file per ISBN on disk. Disk entries survive restarts, so an ISBN
// is fetched from the network at most once per install.
type Cache struct {
	mu  sync.RWMutex
	dir string
	mem map[string]*LookupResult
}

// NewCache creates the cache, making the directory if needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lookup cache dir: %w", err)
	}
	return &Cache{
		dir: dir,
		mem: make(map[string]*LookupResult),
	}, nil
}

// Get returns the cached result for a cleaned ISBN, promoting disk hits
// into memory. A corrupt disk entry counts as a miss.
func (c *Cache) Get(isbn string) (*LookupResult, bool) {
	c.mu.RLock()
	if result, ok := c.mem[isbn]; ok {
		c.mu.RUnlock()
		return result, true
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(c.entryPath(isbn))
	if err != nil {
		return nil, false
	}
	var result LookupResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}

	c.mu.Lock()
	c.mem[isbn] = &result
	c.mu.Unlock()
	return &result, true
}

// Put stores a result in both tiers. The disk write goes through a temp
// file and rename so readers never see a partial entry; a failed write
// only costs persistence, not the in-memory hit.
func (c *Cache) Put(isbn string, result *LookupResult) {
	c.mu.Lock()
	c.mem[isbn] = result
	c.mu.Unlock()

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return
	}
	tmp, err := os.CreateTemp(c.dir, isbn+"-*.tmp")
	if err != nil {
		return
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return
	}
	if err := os.Rename(tmp.Name(), c.entryPath(isbn)); err != nil {
		os.Remove(tmp.Name())
	}
}

// Clear drops both tiers.
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.mem = make(map[string]*LookupResult)
	c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("read lookup cache dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return fmt.Errorf("remove cache entry: %w", err)
		}
	}
	return nil
}

func (c *Cache) entryPath(isbn string) string {
	return filepath.Join(c.dir, isbn+".json")
}

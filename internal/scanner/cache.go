package scanner

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

type fileKey struct {
	size    int64
	modTime int64
}

type cached struct {
	key   fileKey
	entry *Entry
}

// Cache reuses entries for files that have not changed since they were last batched.
type Cache struct {
	load LoadFunc

	mu      sync.Mutex
	entries map[string]cached
}

// NewCache creates a cache whose entries load records with load.
func NewCache(load LoadFunc) *Cache {
	return &Cache{load: load, entries: make(map[string]cached)}
}

// Entry returns the entry for path, reusing the cached one when the file's size and
// modification time are unchanged.
func (c *Cache) Entry(path string) *Entry {
	var key fileKey
	if info, err := os.Stat(path); err == nil {
		key = fileKey{size: info.Size(), modTime: info.ModTime().UnixNano()}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if hit, ok := c.entries[path]; ok && hit.key == key {
		return hit.entry
	}
	entry := NewEntry(path, c.load)
	c.entries[path] = cached{key: key, entry: entry}
	return entry
}

// Batch returns a batch with one entry per path, in the given order.
func (c *Cache) Batch(paths []string) *Batch {
	entries := make([]*Entry, 0, len(paths))
	for _, path := range paths {
		entries = append(entries, c.Entry(path))
	}
	return NewBatch(entries)
}

// ListDir returns the regular files, or symlinks to them, directly inside dir whose
// extension is one of exts (compared case-insensitively), sorted by path.
func ListDir(dir string, exts []string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, de := range dirEntries {
		if !HasExtension(de.Name(), exts) {
			continue
		}
		path := filepath.Join(dir, de.Name())
		// Stat follows symlinks; dangling links are skipped.
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths, nil
}

// HasExtension reports whether name ends in one of exts, ignoring case.
func HasExtension(name string, exts []string) bool {
	ext := filepath.Ext(name)
	for _, want := range exts {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

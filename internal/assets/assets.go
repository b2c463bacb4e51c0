// Package assets resolves resource names against local directories and
// GRF archives.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/Faultbox/midgard-usd/pkg/encoding"
	"github.com/Faultbox/midgard-usd/pkg/grf"
)

// ErrNotFound is returned when no source holds a resource.
var ErrNotFound = errors.New("resource not found")

// Resolver reads resources by name. Directories are searched first, in
// order, then archives in order.
type Resolver struct {
	dirs     []string
	archives []*grf.Archive
	cache    *Cache
	mu       sync.RWMutex
}

// NewResolver creates a resolver over dirs and the archives at grfPaths.
// If any archive fails to open, the ones already opened are closed.
func NewResolver(dirs, grfPaths []string) (*Resolver, error) {
	r := &Resolver{dirs: dirs, cache: NewCache()}
	for _, p := range grfPaths {
		if err := r.AddArchive(p); err != nil {
			return nil, multierr.Append(err, r.Close())
		}
	}
	return r, nil
}

// AddArchive opens a GRF archive and appends it to the search order.
func (r *Resolver) AddArchive(path string) error {
	a, err := grf.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}
	r.mu.Lock()
	r.archives = append(r.archives, a)
	r.mu.Unlock()
	return nil
}

// Read returns the content of name.
func (r *Resolver) Read(name string) ([]byte, error) {
	key := encoding.NormalizePath(name)
	if data, ok := r.cache.Get(key); ok {
		return data, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, dir := range r.dirs {
		data, err := readDir(dir, name)
		if err == nil {
			r.cache.Set(key, data)
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	for _, a := range r.archives {
		if !a.Contains(key) {
			continue
		}
		data, err := a.Read(key)
		if err != nil {
			return nil, err
		}
		r.cache.Set(key, data)
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// readDir tries name as given and in its normalized lower-case form.
func readDir(dir, name string) ([]byte, error) {
	slashed := strings.ReplaceAll(name, "\\", "/")
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(slashed)))
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return data, err
	}
	return os.ReadFile(filepath.Join(dir, filepath.FromSlash(encoding.NormalizePath(name))))
}

// List returns the archive paths ending in suffix (case-insensitive),
// sorted and deduplicated.
func (r *Resolver) List(suffix string) []string {
	suffix = strings.ToLower(suffix)
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, a := range r.archives {
		for _, name := range a.List() {
			if strings.HasSuffix(name, suffix) && !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Close closes every archive and clears the cache.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	for _, a := range r.archives {
		err = multierr.Append(err, a.Close())
	}
	r.archives = nil
	r.cache.Clear()
	return err
}

// Cache stores resolved resources by normalized name.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	hits   int
	misses int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{data: make(map[string][]byte)}
}

// Get returns a cached resource.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores a resource.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear drops every entry and resets the statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits, c.misses = 0, 0
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

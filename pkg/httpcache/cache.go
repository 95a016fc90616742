// Package httpcache provides a cached, retrying HTTP GET client for the
// dataset download and the timezone API. Responses are kept in an otter
// cache, optionally persisted to disk so repeated report runs against the
// same dataset do not refetch anything.
package httpcache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"
)

type entry struct {
	ExpiresAt time.Time
	Data      []byte
}

// Cache stores HTTP response bodies keyed by URL. A Cache with an empty
// dir is memory-only; otherwise Close persists it as a gob file.
type Cache struct {
	cache  *otter.Cache[string, entry]
	logger *slog.Logger
	dir    string
	ttl    time.Duration
	mu     sync.Mutex
}

// New creates a disk-backed cache under dir, loading any previous run's
// entries.
func New(dir string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	c := newCache(dir, ttl, logger)
	if err := c.loadFromDisk(); err != nil {
		logger.Warn("failed to load cache from disk", "error", err)
	}
	logger.Debug("cache initialized", "dir", dir, "entries", c.cache.EstimatedSize())
	return c, nil
}

// NewMemory creates a cache that never touches disk.
func NewMemory(ttl time.Duration, logger *slog.Logger) *Cache {
	return newCache("", ttl, logger)
}

func newCache(dir string, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	cache := otter.Must(&otter.Options[string, entry]{
		MaximumSize:      10_000,
		InitialCapacity:  1_000,
		ExpiryCalculator: otter.ExpiryWriting[string, entry](ttl),
	})
	return &Cache{cache: cache, dir: dir, ttl: ttl, logger: logger}
}

func cacheKey(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}

// Get returns the cached body for a URL, if present and fresh.
func (c *Cache) Get(url string) ([]byte, bool) {
	e, found := c.cache.GetIfPresent(cacheKey(url))
	if !found {
		return nil, false
	}
	if time.Now().After(e.ExpiresAt) {
		c.cache.Invalidate(cacheKey(url))
		return nil, false
	}
	return e.Data, true
}

// Set stores a response body for a URL.
func (c *Cache) Set(url string, data []byte) {
	c.cache.Set(cacheKey(url), entry{Data: data, ExpiresAt: time.Now().Add(c.ttl)})
}

func (c *Cache) cachePath() string {
	return filepath.Join(c.dir, "dataviz-cache.gob")
}

func (c *Cache) loadFromDisk() error {
	file, err := os.Open(c.cachePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening cache file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			c.logger.Debug("failed to close cache file", "error", closeErr)
		}
	}()

	var entries map[string]entry
	if err := gob.NewDecoder(file).Decode(&entries); err != nil {
		return fmt.Errorf("decoding cache file: %w", err)
	}

	now := time.Now()
	for key, e := range entries {
		if now.Before(e.ExpiresAt) {
			c.cache.Set(key, e)
		}
	}
	return nil
}

func (c *Cache) saveToDisk() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tempPath := c.cachePath() + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	defer func() {
		if removeErr := os.Remove(tempPath); removeErr != nil && !os.IsNotExist(removeErr) {
			c.logger.Debug("failed to remove temp file", "error", removeErr)
		}
	}()

	entries := make(map[string]entry)
	now := time.Now()
	c.cache.All()(func(key string, e entry) bool {
		if now.Before(e.ExpiresAt) {
			entries[key] = e
		}
		return true
	})

	if err := gob.NewEncoder(file).Encode(entries); err != nil {
		return fmt.Errorf("encoding cache to file: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("syncing cache file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tempPath, c.cachePath()); err != nil {
		return fmt.Errorf("replacing cache file: %w", err)
	}

	c.logger.Debug("cache saved to disk", "entries", len(entries))
	return nil
}

// Close persists the cache when it is disk-backed. The report is a single
// batch run, so one save at the end replaces the periodic flushing a
// long-lived process would need.
func (c *Cache) Close() error {
	if c.dir == "" {
		return nil
	}
	return c.saveToDisk()
}

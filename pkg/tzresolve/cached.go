package tzresolve

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maypok86/otter/v2"
)

// Cached wraps a Resolver with an in-memory coordinate cache so each
// distinct signup location hits the backend once per run. Unresolved
// results are cached too.
type Cached struct {
	backend Resolver
	cache   *otter.Cache[string, string]
	logger  *slog.Logger
}

// NewCached creates a caching wrapper around backend.
func NewCached(backend Resolver, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	cache := otter.Must(&otter.Options[string, string]{
		MaximumSize:      100_000,
		InitialCapacity:  1_000,
		ExpiryCalculator: otter.ExpiryWriting[string, string](time.Hour),
	})
	return &Cached{backend: backend, cache: cache, logger: logger}
}

// coordKey rounds to ~11m of precision; signups closer than that share a
// timezone.
func coordKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}

// Resolve implements Resolver. Backend errors are not cached, so a record
// that failed on a transient fault does not poison later records at the
// same coordinate.
func (c *Cached) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	key := coordKey(lat, lon)
	if zone, found := c.cache.GetIfPresent(key); found {
		return zone, nil
	}

	zone, err := c.backend.Resolve(ctx, lat, lon)
	if err != nil {
		return "", err
	}
	c.cache.Set(key, zone)
	return zone, nil
}

// Package tzresolve maps geographic coordinates to IANA timezone IDs.
// Resolution is treated as unreliable: a coordinate that resolves to no
// zone is a normal outcome reported as an empty ID, never as an error.
package tzresolve

import (
	"context"
	"log/slog"

	"github.com/bradfitz/latlong"
)

// Resolver resolves a coordinate to an IANA timezone ID. An empty ID with
// a nil error means the coordinate has no known zone. Errors are reserved
// for transport failures; callers drop the affected record either way.
type Resolver interface {
	Resolve(ctx context.Context, lat, lon float64) (string, error)
}

// Offline resolves zones from the embedded latlong tables. No network, no
// API key; this is the default backend.
type Offline struct {
	Logger *slog.Logger
}

// Resolve implements Resolver. Coordinates over open ocean or outside the
// table coverage return an empty ID.
func (r *Offline) Resolve(_ context.Context, lat, lon float64) (string, error) {
	zone := latlong.LookupZoneName(lat, lon)
	if zone == "" && r.Logger != nil {
		r.Logger.Debug("no zone for coordinates", "lat", lat, "lon", lon)
	}
	return zone, nil
}

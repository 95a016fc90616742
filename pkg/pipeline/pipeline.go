// Package pipeline runs the full report computation: resolve each signup's
// timezone, normalize its timestamp to a local hour, classify it by its
// strongest score, and aggregate counts per (hour, category). Per-record
// failures drop the record and bump a stage counter; only dataset-level
// failures abort the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/akoch8/dataVizSociety/pkg/classify"
	"github.com/akoch8/dataVizSociety/pkg/hourly"
	"github.com/akoch8/dataVizSociety/pkg/localtime"
	"github.com/akoch8/dataVizSociety/pkg/signup"
	"github.com/akoch8/dataVizSociety/pkg/tzresolve"
)

// ErrTooManyBadTimestamps is returned when the share of records with
// unparseable timestamps exceeds the configured ratio. A few dirty rows
// are expected from real-world exports; a flood of them means the date
// column is not what the loader thought it was.
var ErrTooManyBadTimestamps = errors.New("too many records with unparseable timestamps")

// DefaultMaxBadDateRatio is the escalation threshold used when the
// pipeline is configured with a zero ratio.
const DefaultMaxBadDateRatio = 0.25

// Stats counts, per stage, how many records dropped out and why. Every
// excluded record is accounted for in exactly one counter.
type Stats struct {
	// Loaded is the number of input records handed to Run.
	Loaded int
	// NoCoordinates records had no usable latitude/longitude.
	NoCoordinates int
	// UnresolvedZone records had coordinates that resolved to no zone,
	// failed resolution, or resolved to a zone the tz database rejects.
	UnresolvedZone int
	// BadTimestamp records had a date/hour text not matching M/D/YYYY H:MM.
	BadTimestamp int
	// AmbiguousTime records named a wall clock inside a DST gap.
	AmbiguousTime int
	// TiedScores records had a valid local hour but no strict maximum
	// score. Not an error, just no category to count.
	TiedScores int
	// Aggregated records incremented exactly one table cell.
	Aggregated int
}

func (s *Stats) merge(other Stats) {
	s.NoCoordinates += other.NoCoordinates
	s.UnresolvedZone += other.UnresolvedZone
	s.BadTimestamp += other.BadTimestamp
	s.AmbiguousTime += other.AmbiguousTime
	s.TiedScores += other.TiedScores
	s.Aggregated += other.Aggregated
}

// Dropped is the total number of records that contributed nothing.
func (s Stats) Dropped() int {
	return s.NoCoordinates + s.UnresolvedZone + s.BadTimestamp + s.AmbiguousTime + s.TiedScores
}

// Pipeline wires the per-record stages together.
type Pipeline struct {
	Resolver   tzresolve.Resolver
	Normalizer *localtime.Normalizer
	Logger     *slog.Logger

	// Workers is the fan-out for per-record processing. Every stage is a
	// pure function of the record, so records process independently;
	// zero means one worker per CPU.
	Workers int

	// MaxBadDateRatio escalates ParseError drops to a run failure when
	// exceeded; zero means DefaultMaxBadDateRatio.
	MaxBadDateRatio float64
}

// Run processes all records and returns the aggregate table. Each worker
// accumulates into a private partial table and partial stats; aggregation
// is commutative, so merging the partials by elementwise sum yields the
// same table as a single ordered pass.
func (p *Pipeline) Run(ctx context.Context, records []signup.Record) (*hourly.Table, Stats, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	stats := Stats{Loaded: len(records)}

	feed := make(chan signup.Record)
	var wg sync.WaitGroup
	partialTables := make([]*hourly.Table, workers)
	partialStats := make([]Stats, workers)

	for i := range workers {
		partialTables[i] = hourly.New()
		wg.Add(1)
		go func(table *hourly.Table, st *Stats) {
			defer wg.Done()
			for rec := range feed {
				p.process(ctx, rec, table, st, logger)
			}
		}(partialTables[i], &partialStats[i])
	}

	var runErr error
feeding:
	for _, rec := range records {
		select {
		case feed <- rec:
		case <-ctx.Done():
			runErr = ctx.Err()
			break feeding
		}
	}
	close(feed)
	wg.Wait()

	table := hourly.New()
	for i := range workers {
		table.Merge(partialTables[i])
		stats.merge(partialStats[i])
	}

	if runErr != nil {
		return nil, stats, runErr
	}

	maxRatio := p.MaxBadDateRatio
	if maxRatio <= 0 {
		maxRatio = DefaultMaxBadDateRatio
	}
	if stats.Loaded > 0 && float64(stats.BadTimestamp) > maxRatio*float64(stats.Loaded) {
		return nil, stats, fmt.Errorf("%w: %d of %d", ErrTooManyBadTimestamps, stats.BadTimestamp, stats.Loaded)
	}

	logger.Info("pipeline finished",
		"loaded", stats.Loaded,
		"aggregated", stats.Aggregated,
		"dropped", stats.Dropped())
	return table, stats, nil
}

// process runs one record through resolve -> normalize -> classify ->
// aggregate, bumping exactly one counter.
func (p *Pipeline) process(ctx context.Context, rec signup.Record, table *hourly.Table, st *Stats, logger *slog.Logger) {
	if !rec.HasCoordinates {
		st.NoCoordinates++
		return
	}

	zone, err := p.Resolver.Resolve(ctx, rec.Latitude, rec.Longitude)
	if err != nil {
		// A resolution failure drops only this record.
		logger.Debug("timezone resolution failed", "lat", rec.Latitude, "lon", rec.Longitude, "error", err)
		st.UnresolvedZone++
		return
	}
	if zone == "" {
		st.UnresolvedZone++
		return
	}

	hour, err := p.Normalizer.LocalHour(rec.DateHourText, zone)
	switch {
	case errors.Is(err, localtime.ErrUnknownZone):
		logger.Debug("resolver produced unknown zone", "zone", zone)
		st.UnresolvedZone++
		return
	case errors.Is(err, localtime.ErrAmbiguousTime):
		st.AmbiguousTime++
		return
	case err != nil:
		st.BadTimestamp++
		return
	}

	category := classify.Strongest(rec.ScoreData, rec.ScoreVisualization, rec.ScoreSociety)
	if category == classify.None {
		st.TiedScores++
		return
	}

	table.Add(hour, category)
	st.Aggregated++
}

// Package main implements the dataviz CLI: it loads the community signup
// dataset, converts each signup to its local hour of day, classifies it by
// its strongest interest score, and renders the hourly breakdown as a
// terminal histogram plus an HTML chart.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akoch8/dataVizSociety/pkg/chart"
	"github.com/akoch8/dataVizSociety/pkg/classify"
	"github.com/akoch8/dataVizSociety/pkg/httpcache"
	"github.com/akoch8/dataVizSociety/pkg/localtime"
	"github.com/akoch8/dataVizSociety/pkg/pipeline"
	"github.com/akoch8/dataVizSociety/pkg/signup"
	"github.com/akoch8/dataVizSociety/pkg/tzresolve"
)

var (
	input       = flag.String("input", "", "Dataset CSV: local path or http(s) URL (or set SIGNUP_DATASET)")
	output      = flag.String("output", "signups_by_hour.html", "Chart output file")
	mapsAPIKey  = flag.String("maps-key", "", "Google Maps API key for timezone lookup (or set GOOGLE_MAPS_API_KEY); empty uses offline tables")
	cacheDir    = flag.String("cache-dir", "", "Cache directory (or set CACHE_DIR)")
	noCache     = flag.Bool("no-cache", false, "Disable caching")
	workers     = flag.Int("workers", 0, "Record-processing workers (0 = one per CPU)")
	maxBadDates = flag.Float64("max-bad-dates", pipeline.DefaultMaxBadDateRatio, "Fail the run when this fraction of records has unparseable timestamps")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	version     = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("dataviz v1.0.0")
		return
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *input == "" {
		*input = os.Getenv("SIGNUP_DATASET")
	}
	if *mapsAPIKey == "" {
		*mapsAPIKey = os.Getenv("GOOGLE_MAPS_API_KEY")
	}
	if *cacheDir == "" {
		*cacheDir = os.Getenv("CACHE_DIR")
	}

	if *input == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -input <dataset.csv or URL> [flags]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		logger.Error("report generation failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	client, closeCache, err := newHTTPClient(ctx, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	loader := &signup.Loader{Client: client, Logger: logger}
	records, skippedRows, err := loader.Load(ctx, *input)
	if err != nil {
		return err
	}

	resolver, err := newResolver(client, logger)
	if err != nil {
		return err
	}
	normalizer, err := localtime.NewNormalizer()
	if err != nil {
		return err
	}

	p := &pipeline.Pipeline{
		Resolver:        resolver,
		Normalizer:      normalizer,
		Logger:          logger,
		Workers:         *workers,
		MaxBadDateRatio: *maxBadDates,
	}
	table, stats, err := p.Run(ctx, records)
	if err != nil {
		return err
	}

	printReport(stats, skippedRows)
	fmt.Print(chart.Histogram(table))

	fmt.Println()
	for _, c := range classify.All {
		fmt.Printf("🏆 Peak for %-13s %02d:00 local (%d signups total)\n",
			c.String()+":", table.PeakHour(c), table.CategoryTotal(c))
	}

	if err := chart.WriteHTML(table, *output, "Community signups by local hour"); err != nil {
		return err
	}
	fmt.Printf("\n📈 Chart written to %s\n", *output)
	return nil
}

// newHTTPClient builds the shared cached HTTP client used for the dataset
// download and the timezone API. The returned func persists the cache.
func newHTTPClient(ctx context.Context, logger *slog.Logger) (*httpcache.Client, func(), error) {
	if *noCache {
		logger.Info("caching disabled by -no-cache flag")
		return httpcache.NewClient(nil, logger), func() {}, nil
	}

	dir := *cacheDir
	if dir == "" {
		if userCacheDir, err := os.UserCacheDir(); err == nil {
			dir = filepath.Join(userCacheDir, "dataviz")
		} else {
			logger.Debug("could not determine user cache directory", "error", err)
		}
	}
	if dir == "" {
		return httpcache.NewClient(httpcache.NewMemory(12*time.Hour, logger), logger), func() {}, nil
	}

	cache, err := httpcache.New(dir, 14*24*time.Hour, logger)
	if err != nil {
		// Cache is optional; fall back to uncached fetching.
		logger.Warn("cache initialization failed", "error", err, "cache_dir", dir)
		return httpcache.NewClient(nil, logger), func() {}, nil
	}
	closeCache := func() {
		if err := cache.Close(); err != nil {
			logger.Error("failed to persist cache", "error", err)
		}
	}
	return httpcache.NewClient(cache, logger), closeCache, nil
}

// newResolver picks the timezone backend: the Google Timezone API when a
// key is configured, otherwise the embedded offline tables. Either way,
// each distinct coordinate resolves once per run.
func newResolver(client *httpcache.Client, logger *slog.Logger) (tzresolve.Resolver, error) {
	var backend tzresolve.Resolver
	if *mapsAPIKey != "" {
		maps, err := tzresolve.NewMaps(*mapsAPIKey, client, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("using Google Timezone API resolver")
		backend = maps
	} else {
		logger.Info("using offline timezone tables")
		backend = &tzresolve.Offline{Logger: logger}
	}
	return tzresolve.NewCached(backend, logger), nil
}

func printReport(stats pipeline.Stats, skippedRows int) {
	fmt.Printf("\n🌍 Community signup report\n")
	fmt.Println(strings.Repeat("─", 50))
	fmt.Printf("📥 Loaded:        %d records", stats.Loaded)
	if skippedRows > 0 {
		fmt.Printf(" (%d unreadable rows skipped)", skippedRows)
	}
	fmt.Println()
	fmt.Printf("✅ Aggregated:    %d signups\n", stats.Aggregated)

	if stats.Dropped() > 0 {
		fmt.Printf("🗑️  Dropped:       %d records\n", stats.Dropped())
		dropLine("no coordinates", stats.NoCoordinates)
		dropLine("unresolved timezone", stats.UnresolvedZone)
		dropLine("unparseable timestamp", stats.BadTimestamp)
		dropLine("DST transition gap", stats.AmbiguousTime)
		dropLine("tied scores", stats.TiedScores)
	}
	fmt.Println()
}

func dropLine(reason string, count int) {
	if count > 0 {
		fmt.Printf("                  • %s: %d\n", reason, count)
	}
}

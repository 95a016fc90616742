package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/akoch8/dataVizSociety/pkg/classify"
	"github.com/akoch8/dataVizSociety/pkg/hourly"
	"github.com/akoch8/dataVizSociety/pkg/localtime"
	"github.com/akoch8/dataVizSociety/pkg/signup"
)

// stubResolver maps a few fixed coordinates to fixed zones; everything
// else is unresolved.
type stubResolver struct {
	zones map[[2]float64]string
	err   error
}

func (r *stubResolver) Resolve(_ context.Context, lat, lon float64) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return r.zones[[2]float64{lat, lon}], nil
}

var (
	gambier = [2]float64{-23.1, -134.9} // UTC-9 year-round
	newYork = [2]float64{40.7, -74.0}
	ocean   = [2]float64{0.0, -160.0}
)

func newTestPipeline(t *testing.T, resolver *stubResolver) *Pipeline {
	t.Helper()
	normalizer, err := localtime.NewNormalizer()
	if err != nil {
		t.Fatalf("NewNormalizer failed: %v", err)
	}
	return &Pipeline{
		Resolver:   resolver,
		Normalizer: normalizer,
		Workers:    4,
	}
}

func record(dateHour string, coord [2]float64, data, vis, soc float64) signup.Record {
	return signup.Record{
		DateHourText:       dateHour,
		Latitude:           coord[0],
		Longitude:          coord[1],
		HasCoordinates:     true,
		ScoreData:          data,
		ScoreVisualization: vis,
		ScoreSociety:       soc,
	}
}

func defaultResolver() *stubResolver {
	return &stubResolver{zones: map[[2]float64]string{
		gambier: "Pacific/Gambier",
		newYork: "America/New_York",
	}}
}

func TestRunCountsAndDrops(t *testing.T) {
	records := []signup.Record{
		// 14:00 EDT -> 09:00 in Pacific/Gambier; visualization wins.
		record("3/15/2019 14:00", gambier, 2, 5, 1),
		// Same instant, half-hour later timestamp truncates to the same hour.
		record("3/15/2019 14:30", gambier, 2, 5, 1),
		// Tie at max: valid hour, no category.
		record("3/15/2019 14:00", newYork, 3, 3, 1),
		// Unresolvable coordinate.
		record("3/15/2019 14:00", ocean, 5, 1, 1),
		// No coordinates at all.
		{DateHourText: "3/15/2019 14:00", ScoreData: 5, ScoreVisualization: 1, ScoreSociety: 1},
		// Unparseable timestamp.
		record("2019-03-15 14:00", newYork, 5, 1, 1),
		// Spring-forward gap in the reference zone.
		record("3/10/2019 2:30", newYork, 5, 1, 1),
		// Clean data-category record at 14:00 local New York.
		record("3/15/2019 14:00", newYork, 5, 1, 1),
	}

	p := newTestPipeline(t, defaultResolver())
	table, stats, err := p.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := Stats{
		Loaded:         8,
		NoCoordinates:  1,
		UnresolvedZone: 1,
		BadTimestamp:   1,
		AmbiguousTime:  1,
		TiedScores:     1,
		Aggregated:     3,
	}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}

	if got := table.Count(9, classify.Visualization); got != 2 {
		t.Errorf("Count(9, visualization) = %d, want 2", got)
	}
	if got := table.Count(14, classify.Data); got != 1 {
		t.Errorf("Count(14, data) = %d, want 1", got)
	}
	if got := table.Total(); got != stats.Aggregated {
		t.Errorf("table total %d != aggregated %d", got, stats.Aggregated)
	}
}

func TestRunMonotonicDropout(t *testing.T) {
	records := []signup.Record{
		record("3/15/2019 14:00", gambier, 2, 5, 1),
		record("3/15/2019 14:00", newYork, 3, 3, 3),
		record("bad", newYork, 1, 2, 3),
		record("3/15/2019 14:00", ocean, 1, 2, 3),
		{DateHourText: "3/15/2019 14:00"},
	}

	p := newTestPipeline(t, defaultResolver())
	_, stats, err := p.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	resolved := stats.Loaded - stats.NoCoordinates - stats.UnresolvedZone
	normalized := resolved - stats.BadTimestamp - stats.AmbiguousTime
	classified := normalized - stats.TiedScores

	if classified != stats.Aggregated {
		t.Errorf("classified %d != aggregated %d", classified, stats.Aggregated)
	}
	if !(stats.Aggregated <= normalized && normalized <= resolved && resolved <= stats.Loaded) {
		t.Errorf("dropout not monotonic: %d <= %d <= %d <= %d expected",
			stats.Aggregated, normalized, resolved, stats.Loaded)
	}
}

func TestRunResolverErrorDropsOnlyRecord(t *testing.T) {
	p := newTestPipeline(t, &stubResolver{err: errors.New("resolver down")})
	records := []signup.Record{
		record("3/15/2019 14:00", newYork, 5, 1, 1),
		record("3/15/2019 15:00", newYork, 5, 1, 1),
	}

	table, stats, err := p.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run failed: %v (resolver errors must not abort the run)", err)
	}
	if stats.UnresolvedZone != 2 {
		t.Errorf("UnresolvedZone = %d, want 2", stats.UnresolvedZone)
	}
	if table.Total() != 0 {
		t.Errorf("table total = %d, want 0", table.Total())
	}
}

func TestRunBadTimestampEscalation(t *testing.T) {
	var records []signup.Record
	for range 6 {
		records = append(records, record("not a date", newYork, 5, 1, 1))
	}
	for range 4 {
		records = append(records, record("3/15/2019 14:00", newYork, 5, 1, 1))
	}

	p := newTestPipeline(t, defaultResolver())
	p.MaxBadDateRatio = 0.5
	_, stats, err := p.Run(context.Background(), records)
	if !errors.Is(err, ErrTooManyBadTimestamps) {
		t.Fatalf("Run error = %v, want ErrTooManyBadTimestamps", err)
	}
	if stats.BadTimestamp != 6 {
		t.Errorf("BadTimestamp = %d, want 6", stats.BadTimestamp)
	}

	// Under the threshold the same dirt is tolerated.
	p.MaxBadDateRatio = 0.7
	table, stats, err := p.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run failed below threshold: %v", err)
	}
	if stats.Aggregated != 4 || table.Total() != 4 {
		t.Errorf("aggregated = %d, total = %d, want 4", stats.Aggregated, table.Total())
	}
}

func TestRunParallelMatchesSequential(t *testing.T) {
	var records []signup.Record
	hours := []string{"8:00", "8:30", "12:00", "14:00", "20:30", "23:00"}
	for i, h := range hours {
		for j := range 10 {
			coord := gambier
			if (i+j)%2 == 0 {
				coord = newYork
			}
			records = append(records, record("6/1/2019 "+h, coord,
				float64(i%3), float64(j%3), float64((i+j)%3)))
		}
	}

	sequential := newTestPipeline(t, defaultResolver())
	sequential.Workers = 1
	wantTable, wantStats, err := sequential.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("sequential Run failed: %v", err)
	}

	parallel := newTestPipeline(t, defaultResolver())
	parallel.Workers = 8
	gotTable, gotStats, err := parallel.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("parallel Run failed: %v", err)
	}

	if gotStats != wantStats {
		t.Errorf("parallel stats = %+v, sequential %+v", gotStats, wantStats)
	}
	for hour := range hourly.Hours {
		for _, c := range classify.All {
			if gotTable.Count(hour, c) != wantTable.Count(hour, c) {
				t.Errorf("cell (%d, %v): parallel %d, sequential %d",
					hour, c, gotTable.Count(hour, c), wantTable.Count(hour, c))
			}
		}
	}
}

func TestRunEmptyInput(t *testing.T) {
	p := newTestPipeline(t, defaultResolver())
	table, stats, err := p.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run failed on empty input: %v", err)
	}
	if stats.Loaded != 0 || table.Total() != 0 {
		t.Errorf("stats = %+v, total = %d, want all zero", stats, table.Total())
	}
}

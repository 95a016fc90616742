package signup

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/akoch8/dataVizSociety/pkg/httpcache"
)

// ErrBadDataset marks structural problems with the source: it cannot be
// opened, has no header, or is missing a required column. These abort the
// run; nothing downstream can work without the dataset.
var ErrBadDataset = errors.New("dataset is missing or malformed")

// Loader reads the signup dataset from a local path or an http(s) URL.
type Loader struct {
	// Client fetches URL sources. Required only for URL sources.
	Client *httpcache.Client
	Logger *slog.Logger
}

// columns holds the index of each required column in the header row.
type columns struct {
	dateHour      int
	latitude      int
	longitude     int
	data          int
	visualization int
	society       int
}

// Load reads every row of the dataset. It returns the loaded records and
// the number of rows skipped for row-local problems (too few fields,
// unparseable scores). Rows with unparseable coordinates are loaded with
// HasCoordinates=false and dropped later at timezone resolution, so the
// drop is attributed to the right stage.
func (l *Loader) Load(ctx context.Context, source string) ([]Record, int, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reader, cleanup, err := l.open(ctx, source)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrBadDataset, err)
	}
	defer cleanup()

	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1 // row width is validated per row below

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: reading header: %v", ErrBadDataset, err)
	}
	cols, err := findColumns(header)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrBadDataset, err)
	}

	var records []Record
	skipped := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A row the csv reader cannot tokenize is row-local dirt.
			logger.Debug("skipping unreadable row", "error", err)
			skipped++
			continue
		}

		rec, ok := parseRow(row, cols)
		if !ok {
			logger.Debug("skipping malformed row", "fields", len(row))
			skipped++
			continue
		}
		records = append(records, rec)
	}

	logger.Info("dataset loaded", "source", source, "records", len(records), "skipped", skipped)
	return records, skipped, nil
}

func (l *Loader) open(ctx context.Context, source string) (io.Reader, func(), error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		if l.Client == nil {
			return nil, nil, errors.New("no HTTP client configured for URL source")
		}
		reader, err := l.Client.GetReader(ctx, source)
		if err != nil {
			return nil, nil, err
		}
		return reader, func() {}, nil
	}

	file, err := os.Open(source)
	if err != nil {
		return nil, nil, err
	}
	return file, func() {
		if closeErr := file.Close(); closeErr != nil && l.Logger != nil {
			l.Logger.Debug("failed to close dataset file", "error", closeErr)
		}
	}, nil
}

// findColumns locates the required columns by keyword. The source sheet's
// header cells are whole survey questions ("How interested are you in data
// visualization?"), so exact names cannot be relied on.
func findColumns(header []string) (columns, error) {
	cols := columns{dateHour: -1, latitude: -1, longitude: -1, data: -1, visualization: -1, society: -1}

	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case cols.dateHour < 0 && (strings.Contains(name, "date") || strings.Contains(name, "timestamp")):
			cols.dateHour = i
		case cols.latitude < 0 && strings.Contains(name, "lat"):
			cols.latitude = i
		case cols.longitude < 0 && (strings.Contains(name, "lon") || strings.Contains(name, "lng")):
			cols.longitude = i
		// "visualization" and "society" both mention data in the source
		// questions, so the more specific keywords are matched first.
		case cols.visualization < 0 && strings.Contains(name, "visual"):
			cols.visualization = i
		case cols.society < 0 && strings.Contains(name, "societ"):
			cols.society = i
		case cols.data < 0 && strings.Contains(name, "data"):
			cols.data = i
		}
	}

	missing := func(name string) error {
		return fmt.Errorf("no %s column in header %q", name, header)
	}
	switch {
	case cols.dateHour < 0:
		return cols, missing("date/time")
	case cols.latitude < 0:
		return cols, missing("latitude")
	case cols.longitude < 0:
		return cols, missing("longitude")
	case cols.data < 0:
		return cols, missing("data score")
	case cols.visualization < 0:
		return cols, missing("visualization score")
	case cols.society < 0:
		return cols, missing("society score")
	}
	return cols, nil
}

func parseRow(row []string, cols columns) (Record, bool) {
	width := max(cols.dateHour, cols.latitude, cols.longitude, cols.data, cols.visualization, cols.society) + 1
	if len(row) < width {
		return Record{}, false
	}

	scoreData, err1 := strconv.ParseFloat(strings.TrimSpace(row[cols.data]), 64)
	scoreVis, err2 := strconv.ParseFloat(strings.TrimSpace(row[cols.visualization]), 64)
	scoreSoc, err3 := strconv.ParseFloat(strings.TrimSpace(row[cols.society]), 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return Record{}, false
	}

	rec := Record{
		DateHourText:       strings.TrimSpace(row[cols.dateHour]),
		ScoreData:          scoreData,
		ScoreVisualization: scoreVis,
		ScoreSociety:       scoreSoc,
	}

	lat, latErr := strconv.ParseFloat(strings.TrimSpace(row[cols.latitude]), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(row[cols.longitude]), 64)
	if latErr == nil && lonErr == nil {
		rec.Latitude = lat
		rec.Longitude = lon
		rec.HasCoordinates = true
	}

	return rec, true
}

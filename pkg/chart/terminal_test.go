package chart

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akoch8/dataVizSociety/pkg/classify"
	"github.com/akoch8/dataVizSociety/pkg/hourly"
)

func TestHistogramEmpty(t *testing.T) {
	got := Histogram(hourly.New())
	if !strings.Contains(got, "No classified signups") {
		t.Errorf("empty table histogram missing notice:\n%s", got)
	}
}

func TestHistogramShowsCountsAndPeaks(t *testing.T) {
	table := hourly.New()
	table.Add(9, classify.Data)
	table.Add(9, classify.Data)
	table.Add(14, classify.Visualization)

	got := Histogram(table)

	if !strings.Contains(got, "09:00 (  2)") {
		t.Errorf("histogram missing hour 9 count:\n%s", got)
	}
	if !strings.Contains(got, "14:00 (  1)") {
		t.Errorf("histogram missing hour 14 count:\n%s", got)
	}
	if !strings.Contains(got, "peak 09:00") {
		t.Errorf("histogram missing data peak hour:\n%s", got)
	}
	if !strings.Contains(got, "peak 14:00") {
		t.Errorf("histogram missing visualization peak hour:\n%s", got)
	}
	// All 24 hour lines render even when empty.
	for _, label := range []string{"00:00", "12:00", "23:00"} {
		if !strings.Contains(got, label) {
			t.Errorf("histogram missing %s line:\n%s", label, got)
		}
	}
}

func TestWriteHTML(t *testing.T) {
	table := hourly.New()
	table.Add(8, classify.Society)
	table.Add(18, classify.Data)

	path := filepath.Join(t.TempDir(), "signups.html")
	if err := WriteHTML(table, path, "community signups"); err != nil {
		t.Fatalf("WriteHTML failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading chart file: %v", err)
	}
	html := string(data)
	for _, want := range []string{"community signups", "data", "visualization", "society"} {
		if !strings.Contains(html, want) {
			t.Errorf("chart file missing %q", want)
		}
	}
}

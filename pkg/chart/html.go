package chart

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/akoch8/dataVizSociety/pkg/classify"
	"github.com/akoch8/dataVizSociety/pkg/hourly"
)

// WriteHTML renders the table as a grouped 24-hour bar chart, one series
// per category, and writes it to path.
func WriteHTML(table *hourly.Table, path, title string) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: "signups per local hour of day, by strongest interest",
		}),
	)

	hours := make([]string, hourly.Hours)
	for hour := range hourly.Hours {
		hours[hour] = fmt.Sprintf("%02d:00", hour)
	}
	bar.SetXAxis(hours)

	for _, c := range classify.All {
		series := make([]opts.BarData, hourly.Hours)
		for hour := range hourly.Hours {
			series[hour] = opts.BarData{Value: table.Count(hour, c)}
		}
		bar.AddSeries(c.String(), series)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	if err := bar.Render(file); err != nil {
		_ = file.Close()
		return fmt.Errorf("rendering chart: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing chart file: %w", err)
	}
	return nil
}

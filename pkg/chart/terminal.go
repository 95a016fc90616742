// Package chart renders the hourly aggregate table: a colored terminal
// histogram for the console and an HTML bar chart as the report artifact.
package chart

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/akoch8/dataVizSociety/pkg/classify"
	"github.com/akoch8/dataVizSociety/pkg/hourly"
)

// maxBarWidth caps the widest hour line at a terminal-friendly width.
const maxBarWidth = 40

func categoryColor(c classify.Category) *color.Color {
	switch c {
	case classify.Data:
		return color.New(color.FgBlue)
	case classify.Visualization:
		return color.New(color.FgYellow)
	case classify.Society:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgHiBlack)
	}
}

// Histogram renders one line per local hour with per-category colored bar
// segments, followed by a legend with totals and peak hours.
func Histogram(table *hourly.Table) string {
	var output strings.Builder

	output.WriteString("📊 Signups by local hour of day\n")
	output.WriteString(strings.Repeat("─", 50) + "\n")

	maxCount := table.MaxCount()
	if maxCount == 0 {
		output.WriteString("No classified signups to display\n")
		return output.String()
	}

	for hour := range hourly.Hours {
		hourTotal := 0
		for _, c := range classify.All {
			hourTotal += table.Count(hour, c)
		}

		line := fmt.Sprintf("%02d:00 ", hour)
		if hourTotal > 0 {
			line += fmt.Sprintf("(%3d) ", hourTotal)
		} else {
			line += "      "
		}

		for _, c := range classify.All {
			count := table.Count(hour, c)
			if count == 0 {
				continue
			}
			width := count * maxBarWidth / maxCount
			if width == 0 {
				width = 1
			}
			line += categoryColor(c).Sprint(strings.Repeat("█", width))
		}

		output.WriteString(line + "\n")
	}

	output.WriteString(strings.Repeat("─", 50) + "\n")
	for _, c := range classify.All {
		output.WriteString(fmt.Sprintf("%s %-13s %4d signups, peak %02d:00\n",
			categoryColor(c).Sprint("█"), c, table.CategoryTotal(c), table.PeakHour(c)))
	}

	return output.String()
}

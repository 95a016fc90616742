// Package hourly accumulates classified signups into a fixed 24-hour by
// 3-category count table. Aggregation is commutative: tables built from
// partial streams merge by elementwise sum into the same result as a single
// sequential pass.
package hourly

import (
	"fmt"

	"github.com/akoch8/dataVizSociety/pkg/classify"
)

// Hours is the number of hour-of-day buckets in a table.
const Hours = 24

// numCategories matches len(classify.All).
const numCategories = 3

// Table counts signups per (hour-of-day, category) cell. All 24x3 cells
// exist from construction, zero-initialized. The zero value is usable.
type Table struct {
	cells [Hours][numCategories]int
}

// New returns an empty table.
func New() *Table {
	return &Table{}
}

func cellIndex(c classify.Category) int {
	switch c {
	case classify.Data:
		return 0
	case classify.Visualization:
		return 1
	case classify.Society:
		return 2
	default:
		panic(fmt.Sprintf("hourly: no table column for category %v", c))
	}
}

// Add increments the cell for one classified signup. The hour must be in
// [0,23] and the category must not be None; the normalizer and classifier
// guarantee both, so a violation is a programming error.
func (t *Table) Add(hour int, c classify.Category) {
	if hour < 0 || hour >= Hours {
		panic(fmt.Sprintf("hourly: hour %d out of range", hour))
	}
	t.cells[hour][cellIndex(c)]++
}

// Count returns the value of one cell.
func (t *Table) Count(hour int, c classify.Category) int {
	return t.cells[hour][cellIndex(c)]
}

// Merge adds every cell of other into t. Used to combine per-worker
// partial tables.
func (t *Table) Merge(other *Table) {
	for hour := range t.cells {
		for col := range t.cells[hour] {
			t.cells[hour][col] += other.cells[hour][col]
		}
	}
}

// Total returns the sum of all cells.
func (t *Table) Total() int {
	total := 0
	for hour := range t.cells {
		for col := range t.cells[hour] {
			total += t.cells[hour][col]
		}
	}
	return total
}

// CategoryTotal returns the sum of one category's cells across all hours.
func (t *Table) CategoryTotal(c classify.Category) int {
	col := cellIndex(c)
	total := 0
	for hour := range t.cells {
		total += t.cells[hour][col]
	}
	return total
}

// PeakHour returns the hour at which the category's count is maximal.
// Ties break to the earliest hour. An all-zero category peaks at hour 0.
func (t *Table) PeakHour(c classify.Category) int {
	col := cellIndex(c)
	peak := 0
	for hour := 1; hour < Hours; hour++ {
		if t.cells[hour][col] > t.cells[peak][col] {
			peak = hour
		}
	}
	return peak
}

// MaxCount returns the largest single cell value, for bar scaling.
func (t *Table) MaxCount() int {
	most := 0
	for hour := range t.cells {
		for col := range t.cells[hour] {
			if t.cells[hour][col] > most {
				most = t.cells[hour][col]
			}
		}
	}
	return most
}

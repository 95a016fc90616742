// Package signup loads the raw community signup dataset into memory.
// The dataset is a CSV export with a header row of free-form survey
// questions, one row per signup.
package signup

// Record is one signup as loaded, immutable downstream. Coordinates may be
// absent in the source; HasCoordinates marks rows whose lat/lon parsed.
type Record struct {
	// DateHourText is the raw timestamp, M/D/YYYY H:MM in US Eastern.
	DateHourText string

	Latitude       float64
	Longitude      float64
	HasCoordinates bool

	// Self-assigned scores for the three interest categories. Ties are
	// legitimate and handled downstream.
	ScoreData          float64
	ScoreVisualization float64
	ScoreSociety       float64
}

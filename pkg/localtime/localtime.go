// Package localtime converts signup timestamps, recorded as wall-clock text
// in a fixed reference timezone, into the local hour of day at the signup's
// resolved location. All conversions go through the platform IANA timezone
// database via the time package.
package localtime

import (
	"errors"
	"fmt"
	"time"
)

// ReferenceZone is the IANA zone every raw timestamp is recorded in,
// regardless of where the signup happened.
const ReferenceZone = "America/New_York"

// timestampLayout matches M/D/YYYY H:MM in 24-hour US date order,
// e.g. "3/15/2019 14:00" or "3/15/2019 9:30".
const timestampLayout = "1/2/2006 15:04"

// Per-record drop causes. The pipeline buckets these with errors.Is; none
// of them is fatal to a run.
var (
	// ErrBadTimestamp means the text does not match M/D/YYYY H:MM.
	ErrBadTimestamp = errors.New("timestamp does not match M/D/YYYY H:MM")
	// ErrAmbiguousTime means the wall clock named a time that does not
	// exist in the reference zone (spring-forward gap).
	ErrAmbiguousTime = errors.New("timestamp falls in a DST transition gap")
	// ErrUnknownZone means the resolved zone ID is not in the tz database.
	ErrUnknownZone = errors.New("unknown IANA timezone")
)

// Normalizer converts reference-zone timestamps to local hours. Target
// zones vary per record; the reference zone is loaded once.
type Normalizer struct {
	ref *time.Location
}

// NewNormalizer loads the reference zone from the platform tz database.
func NewNormalizer() (*Normalizer, error) {
	ref, err := time.LoadLocation(ReferenceZone)
	if err != nil {
		return nil, fmt.Errorf("loading reference zone %s: %w", ReferenceZone, err)
	}
	return &Normalizer{ref: ref}, nil
}

// LocalHour parses dateHourText as a reference-zone wall clock and returns
// the hour of day (0-23) that instant reads as in zoneID. Minutes are
// truncated: 08:30 local and 08:00 local both report hour 8.
func (n *Normalizer) LocalHour(dateHourText, zoneID string) (int, error) {
	instant, err := n.parseReference(dateHourText)
	if err != nil {
		return 0, err
	}

	// LoadLocation maps "" to UTC; here an empty ID means the resolver
	// never produced a zone, so reject it.
	if zoneID == "" {
		return 0, fmt.Errorf("%w: empty zone ID", ErrUnknownZone)
	}
	target, err := time.LoadLocation(zoneID)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownZone, zoneID)
	}

	// An absolute instant has exactly one wall-clock reading in any zone,
	// so the conversion itself cannot fail.
	return instant.In(target).Hour(), nil
}

// parseReference interprets the text as a reference-zone wall clock and
// returns the corresponding instant. Wall times that fall in the reference
// zone's spring-forward gap name no instant at all: ParseInLocation
// silently normalizes them onto the other side of the gap, so a round-trip
// comparison of the clock fields catches them.
func (n *Normalizer) parseReference(text string) (time.Time, error) {
	instant, err := time.ParseInLocation(timestampLayout, text, n.ref)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, text)
	}

	var month, day, year, hour, minute int
	if _, err := fmt.Sscanf(text, "%d/%d/%d %d:%d", &month, &day, &year, &hour, &minute); err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, text)
	}
	if instant.Hour() != hour || instant.Minute() != minute || instant.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %q", ErrAmbiguousTime, text)
	}

	return instant, nil
}

// Package clock handles the "HH:mm" wall-clock strings used for slot and
// event windows. Times are same-day minutes since midnight; overnight is a
// derived booking attribute, never a slot-time mechanic.
package clock

import (
	"fmt"
	"regexp"
	"time"
)

const DateLayout = "2006-01-02"

var timePattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):([0-5][0-9])$`)

// Minutes is a wall-clock time expressed as minutes since midnight.
type Minutes int

// Parse converts an "HH:mm" string to minutes since midnight.
// A single-digit hour ("9:30") is accepted, matching the public API contract.
func Parse(s string) (Minutes, error) {
	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("time %q is not in HH:mm format", s)
	}
	var h, min int
	fmt.Sscanf(m[1], "%d", &h)
	fmt.Sscanf(m[2], "%d", &min)
	return Minutes(h*60 + min), nil
}

// String renders the time zero-padded, e.g. "09:30".
func (m Minutes) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Normalize re-renders an "HH:mm" string zero-padded so that lexicographic
// comparison agrees with chronological order. Stored times are always
// normalized.
func Normalize(s string) (string, error) {
	m, err := Parse(s)
	if err != nil {
		return "", err
	}
	return m.String(), nil
}

// Overlaps reports whether the half-open intervals [aStart,aEnd) and
// [bStart,bEnd) intersect. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd Minutes) bool {
	return aStart < bEnd && bStart < aEnd
}

// ParseDate parses a "YYYY-MM-DD" calendar date, normalized to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not in YYYY-MM-DD format", s)
	}
	return t, nil
}

// Today returns the current calendar day at midnight UTC.
func Today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// Midnight truncates a timestamp to its calendar day in UTC.
func Midnight(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

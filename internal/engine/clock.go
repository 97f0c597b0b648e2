package engine

import "time"

// Clock abstracts time.Now() to allow deterministic testing.
// It is used by the Classifier to determine "today" and project occurrences.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
// Location pins the calendar used for "today"; nil means the process local zone.
type RealClock struct {
	Location *time.Location
}

// Now returns the current time in the configured location.
func (c RealClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

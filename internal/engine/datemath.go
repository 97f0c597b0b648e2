package engine

import "time"

// YearsSince returns the number of whole years elapsed between anchor and today.
// The count only ticks over once today's month/day reaches the anchor's month/day.
// A Feb 29 anchor ticks over on Mar 1 in non-leap years.
func YearsSince(anchor, today time.Time) int {
	years := today.Year() - anchor.Year()
	if today.Month() < anchor.Month() || (today.Month() == anchor.Month() && today.Day() < anchor.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// NextOccurrence returns the date (midnight, in now's location) on which the
// anchor's month/day next occurs. An occurrence today counts as the next one.
func NextOccurrence(anchor, now time.Time) time.Time {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	// Go's time.Date normalizes Feb 29 to March 1st if the year is not a leap year.
	candidate := time.Date(now.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, loc)
	if candidate.Before(today) {
		candidate = time.Date(now.Year()+1, anchor.Month(), anchor.Day(), 0, 0, 0, 0, loc)
	}
	return candidate
}

// DaysUntilNext counts calendar days from now's date to the next occurrence, plus one.
// An occurrence later today reports 1, tomorrow 2; the result is always in [1, 366].
// Only the calendar date of now matters, never its time of day.
func DaysUntilNext(anchor, now time.Time) int {
	return daysBetween(now, NextOccurrence(anchor, now)) + 1
}

// daysBetween counts whole calendar days from a's date to b's date.
// Both dates are rebuilt in UTC so DST transitions cannot shorten a day.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

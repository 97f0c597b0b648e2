package engine

import "time"

// Kind distinguishes the two record families handled by the job.
type Kind int

const (
	KindUnknown Kind = iota
	KindBirthday
	KindAnniversary
)

func (k Kind) String() string {
	switch k {
	case KindBirthday:
		return "birthday"
	case KindAnniversary:
		return "anniversary"
	default:
		return "unknown"
	}
}

// RawRecord is one row as delivered by a record source, before any parsing.
type RawRecord struct {
	Kind Kind

	// Key identifies the row in its source (table RowKey, vCard UID, ...). Only used in logs.
	Key string

	// Date is the anchor date in MM/DD/YYYY form.
	Date string

	// Names holds the person's name for birthdays, or both spouses for anniversaries.
	Names []string

	// SecondaryDate is the death date of a birthday record, in MM/DD/YYYY form. Optional.
	SecondaryDate string
}

// ComputedEvent is the per-run view of a record with its derived quantities.
type ComputedEvent struct {
	Kind  Kind
	Key   string
	Names []string

	// AnchorDate is the parsed primary date (birth or wedding).
	AnchorDate time.Time

	// SecondaryDate is the death date for birthdays; the zero value means unknown.
	SecondaryDate time.Time

	// NextOccurrence is the calendar date of the next anniversary of AnchorDate.
	NextOccurrence time.Time

	// DaysUntilNext is 1 when the occurrence is today, 2 tomorrow, and so on up to 366.
	DaysUntilNext int

	// YearsElapsed is the current age, or the number of years married.
	YearsElapsed int

	// AgeAtNext is the count reached on NextOccurrence.
	AgeAtNext int

	DueToday bool
}

// DaysAway is the zero-based distance to the next occurrence (0 means today).
func (e ComputedEvent) DaysAway() int {
	return e.DaysUntilNext - 1
}

// HasSecondaryDate reports whether a death date is known.
func (e ComputedEvent) HasSecondaryDate() bool {
	return !e.SecondaryDate.IsZero()
}

// Name returns the first name of the record.
func (e ComputedEvent) Name() string {
	return e.name(0)
}

// Spouses returns both names of an anniversary; a missing second spouse is empty.
func (e ComputedEvent) Spouses() (string, string) {
	return e.name(0), e.name(1)
}

func (e ComputedEvent) name(i int) string {
	if i < len(e.Names) {
		return e.Names[i]
	}
	return ""
}

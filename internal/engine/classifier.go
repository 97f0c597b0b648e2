package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tartampluch/drem/internal/config"
)

// Record fields reported by ParseError.
const (
	FieldKind  = "Kind"
	FieldDate  = "Date"
	FieldNames = "Names"
)

// ParseError reports a record whose mandatory data cannot be used.
// Callers decide whether it fails the run or only drops the record.
type ParseError struct {
	Kind  Kind
	Key   string
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s %s (key %s) %s=%q: %v", config.ErrRecordRejected, e.Kind, config.LogKeyRecord, e.Key, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: %s %s %s=%q: %v", config.ErrRecordRejected, e.Kind, config.LogKeyRecord, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ThresholdPolicy sets, per kind, how many days ahead an event counts as due.
// An event is due when its DaysAway is strictly below the threshold.
type ThresholdPolicy struct {
	Birthday    int
	Anniversary int
}

// ConsistentThresholds flags both kinds on the day itself.
var ConsistentThresholds = ThresholdPolicy{Birthday: 1, Anniversary: 1}

// LegacyThresholds keeps the historical asymmetry in which anniversaries
// could never fall due (threshold 0 on a non-negative distance).
var LegacyThresholds = ThresholdPolicy{Birthday: 1, Anniversary: 0}

// For returns the threshold applied to kind.
func (p ThresholdPolicy) For(k Kind) int {
	if k == KindAnniversary {
		return p.Anniversary
	}
	return p.Birthday
}

// Classifier turns raw records into computed events relative to its Clock.
type Classifier struct {
	Clock      Clock
	Thresholds ThresholdPolicy
}

// NewClassifier returns a classifier using the consistent thresholds.
func NewClassifier(clock Clock) *Classifier {
	return &Classifier{Clock: clock, Thresholds: ConsistentThresholds}
}

// Classify parses rec and computes its derived quantities.
// The primary date is mandatory and must match MM/DD/YYYY; the death date is
// optional and degrades to unknown when unreadable.
func (c *Classifier) Classify(rec RawRecord) (ComputedEvent, error) {
	now := c.Clock.Now()
	loc := now.Location()

	if rec.Kind != KindBirthday && rec.Kind != KindAnniversary {
		return ComputedEvent{}, c.reject(rec, FieldKind, rec.Kind.String(), errors.New(config.ErrKindUnknown))
	}

	anchor, err := time.ParseInLocation(config.DateFormatRecord, strings.TrimSpace(rec.Date), loc)
	if err != nil {
		return ComputedEvent{}, c.reject(rec, FieldDate, rec.Date, fmt.Errorf("%s: %w", config.ErrDateParse, err))
	}

	names := make([]string, 0, len(rec.Names))
	for _, n := range rec.Names {
		names = append(names, strings.TrimSpace(n))
	}
	if len(names) == 0 || names[0] == "" {
		return ComputedEvent{}, c.reject(rec, FieldNames, strings.Join(rec.Names, ","), errors.New(config.ErrNamesMissing))
	}

	next := NextOccurrence(anchor, now)
	ev := ComputedEvent{
		Kind:           rec.Kind,
		Key:            rec.Key,
		Names:          names,
		AnchorDate:     anchor,
		NextOccurrence: next,
		DaysUntilNext:  DaysUntilNext(anchor, now),
		YearsElapsed:   YearsSince(anchor, now),
		AgeAtNext:      max(next.Year()-anchor.Year(), 0),
	}

	// Dates entered ahead of time still recur on their month and day.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if anchor.After(today) {
		slog.Warn(config.MsgFutureDate,
			config.LogKeyComponent, config.CompEngine,
			config.LogKeyKind, rec.Kind.String(),
			config.LogKeyRecord, rec.Key,
			config.LogKeyValue, rec.Date,
		)
	}

	if rec.Kind == KindBirthday && strings.TrimSpace(rec.SecondaryDate) != "" {
		death, err := time.ParseInLocation(config.DateFormatRecord, strings.TrimSpace(rec.SecondaryDate), loc)
		if err != nil {
			slog.Debug(config.MsgDeathDateBad,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyRecord, rec.Key,
				config.LogKeyValue, rec.SecondaryDate,
				config.LogKeyError, err,
			)
		} else {
			ev.SecondaryDate = death
		}
	}

	ev.DueToday = ev.DaysAway() < c.thresholds().For(rec.Kind)
	return ev, nil
}

// thresholds falls back to the consistent policy when none was configured.
func (c *Classifier) thresholds() ThresholdPolicy {
	if c.Thresholds == (ThresholdPolicy{}) {
		return ConsistentThresholds
	}
	return c.Thresholds
}

func (c *Classifier) reject(rec RawRecord, field, value string, err error) *ParseError {
	return &ParseError{Kind: rec.Kind, Key: rec.Key, Field: field, Value: value, Err: err}
}

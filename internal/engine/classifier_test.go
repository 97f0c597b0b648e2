package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/drem/internal/config"
	"github.com/tartampluch/drem/internal/engine"
)

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

func clockAt(y int, m time.Month, d, hour int) MockClock {
	return MockClock{CurrentTime: time.Date(y, m, d, hour, 0, 0, 0, time.UTC)}
}

func birthday(name, date string) engine.RawRecord {
	return engine.RawRecord{Kind: engine.KindBirthday, Key: name, Date: date, Names: []string{name}}
}

func anniversary(s1, s2, date string) engine.RawRecord {
	return engine.RawRecord{Kind: engine.KindAnniversary, Key: s1 + "+" + s2, Date: date, Names: []string{s1, s2}}
}

func TestClassify_FutureBirthday(t *testing.T) {
	c := engine.NewClassifier(clockAt(2024, 3, 10, 0))

	ev, err := c.Classify(birthday("Alice", "03/15/1990"))
	require.NoError(t, err)

	assert.Equal(t, 6, ev.DaysUntilNext)
	assert.Equal(t, 33, ev.YearsElapsed)
	assert.Equal(t, 34, ev.AgeAtNext)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), ev.NextOccurrence)
	assert.Equal(t, time.Date(1990, 3, 15, 0, 0, 0, 0, time.UTC), ev.AnchorDate)
	assert.False(t, ev.DueToday)
	assert.False(t, ev.HasSecondaryDate())
	assert.Equal(t, "Alice", ev.Name())
}

func TestClassify_BirthdayLaterToday(t *testing.T) {
	c := engine.NewClassifier(clockAt(2024, 3, 15, 23))

	ev, err := c.Classify(birthday("Alice", "03/15/1990"))
	require.NoError(t, err)

	assert.Equal(t, 1, ev.DaysUntilNext)
	assert.Equal(t, 0, ev.DaysAway())
	assert.Equal(t, 34, ev.YearsElapsed)
	assert.Equal(t, 34, ev.AgeAtNext)
	assert.True(t, ev.DueToday)
}

func TestClassify_MalformedPrimaryDate(t *testing.T) {
	c := engine.NewClassifier(clockAt(2024, 3, 10, 0))

	tests := []struct {
		name  string
		value string
	}{
		{"Month and day out of range", "13/40/2020"},
		{"ISO layout", "2020-01-02"},
		{"Empty", ""},
		{"Single digit month", "3/15/1990"},
		{"Two digit year", "03/15/90"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Classify(birthday("Broken", tt.value))
			require.Error(t, err)

			var perr *engine.ParseError
			require.True(t, errors.As(err, &perr), "expected a ParseError, got %T", err)
			assert.Equal(t, engine.FieldDate, perr.Field)
			assert.Equal(t, tt.value, perr.Value)
			assert.Equal(t, engine.KindBirthday, perr.Kind)
			assert.Equal(t, "Broken", perr.Key)
			assert.Contains(t, err.Error(), config.ErrDateParse)
		})
	}
}

func TestClassify_FutureAnchorCountsFromZero(t *testing.T) {
	c := engine.NewClassifier(clockAt(2024, 3, 10, 0))

	ev, err := c.Classify(anniversary("Ann", "Bob", "01/01/2030"))
	require.NoError(t, err)

	assert.Equal(t, 0, ev.YearsElapsed)
	assert.Equal(t, 0, ev.AgeAtNext)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), ev.NextOccurrence)
	assert.Equal(t, 298, ev.DaysUntilNext)
	assert.False(t, ev.DueToday)
}

func TestClassify_RejectsMissingNamesAndKind(t *testing.T) {
	c := engine.NewClassifier(clockAt(2024, 3, 10, 0))
	var perr *engine.ParseError

	_, err := c.Classify(engine.RawRecord{Kind: engine.KindBirthday, Date: "01/01/1990", Names: []string{"  "}})
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, engine.FieldNames, perr.Field)

	_, err = c.Classify(engine.RawRecord{Date: "01/01/1990", Names: []string{"Nobody"}})
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, engine.FieldKind, perr.Field)
}

func TestClassify_DeathDate(t *testing.T) {
	c := engine.NewClassifier(clockAt(2024, 3, 10, 0))

	rec := birthday("Grandpa", "07/04/1920")
	rec.SecondaryDate = "11/30/2001"
	ev, err := c.Classify(rec)
	require.NoError(t, err)
	assert.True(t, ev.HasSecondaryDate())
	assert.Equal(t, time.Date(2001, 11, 30, 0, 0, 0, 0, time.UTC), ev.SecondaryDate)

	// An unreadable death date degrades to unknown without failing the record.
	rec.SecondaryDate = "sometime in 2001"
	ev, err = c.Classify(rec)
	require.NoError(t, err)
	assert.False(t, ev.HasSecondaryDate())

	// Death dates are ignored for anniversaries.
	ann := anniversary("A", "B", "06/01/2000")
	ann.SecondaryDate = "01/01/2010"
	ev, err = c.Classify(ann)
	require.NoError(t, err)
	assert.False(t, ev.HasSecondaryDate())
}

func TestClassify_Idempotent(t *testing.T) {
	c := engine.NewClassifier(clockAt(2024, 8, 1, 9))
	rec := anniversary("Ann", "Bob", "08/20/2005")

	first, err := c.Classify(rec)
	require.NoError(t, err)
	second, err := c.Classify(rec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestClassify_Thresholds exercises both the consistent and the legacy policy.
func TestClassify_Thresholds(t *testing.T) {
	clock := clockAt(2024, 6, 1, 8)
	bday := birthday("Alice", "06/01/1990")
	ann := anniversary("Ann", "Bob", "06/01/2000")
	tomorrow := anniversary("Cy", "Di", "06/02/2000")

	tests := []struct {
		name     string
		policy   engine.ThresholdPolicy
		wantBday bool
		wantAnn  bool
		wantTmrw bool
	}{
		{"Consistent", engine.ConsistentThresholds, true, true, false},
		{"Legacy never flags anniversaries", engine.LegacyThresholds, true, false, false},
		{"Zero value falls back to consistent", engine.ThresholdPolicy{}, true, true, false},
		{"Two-day look-ahead", engine.ThresholdPolicy{Birthday: 2, Anniversary: 2}, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &engine.Classifier{Clock: clock, Thresholds: tt.policy}

			ev, err := c.Classify(bday)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBday, ev.DueToday, "birthday")

			ev, err = c.Classify(ann)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAnn, ev.DueToday, "anniversary today")

			ev, err = c.Classify(tomorrow)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTmrw, ev.DueToday, "anniversary tomorrow")
		})
	}
}

func TestClassify_AnniversarySpouses(t *testing.T) {
	c := engine.NewClassifier(clockAt(2024, 6, 1, 8))

	ev, err := c.Classify(engine.RawRecord{Kind: engine.KindAnniversary, Date: "05/01/2000", Names: []string{"Solo"}})
	require.NoError(t, err)

	s1, s2 := ev.Spouses()
	assert.Equal(t, "Solo", s1)
	assert.Empty(t, s2)
	assert.Equal(t, 24, ev.YearsElapsed)
	assert.Equal(t, 25, ev.AgeAtNext)
}

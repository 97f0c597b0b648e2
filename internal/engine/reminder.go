package engine

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/tartampluch/drem/internal/config"
)

// RecordPolicy decides what happens to a record that fails classification.
type RecordPolicy int

const (
	// RecordPolicyFail aborts the build on the first bad record.
	RecordPolicyFail RecordPolicy = iota
	// RecordPolicySkip logs the bad record, keeps it in Batch.Skipped and goes on.
	RecordPolicySkip
)

// ParseRecordPolicy maps the configuration value onto a RecordPolicy.
func ParseRecordPolicy(v string) RecordPolicy {
	if v == config.BadRecordSkip {
		return RecordPolicySkip
	}
	return RecordPolicyFail
}

// Batch is the result of one reminder pass.
type Batch struct {
	// Birthdays and Anniversaries are sorted by DaysUntilNext, ties kept in input order.
	Birthdays     []ComputedEvent
	Anniversaries []ComputedEvent

	// AlertLines holds one line per due event, birthdays first, each kind in input order.
	AlertLines []string
	AlertText  string

	// SubjectOverride is empty unless at least one event is due.
	SubjectOverride string

	BirthdayDueToday    bool
	AnniversaryDueToday bool

	// Skipped lists records dropped under RecordPolicySkip.
	Skipped []error
}

// ShouldNotify reports whether the summary mail goes out: on the weekly
// notify day, or whenever any event is due.
func (b *Batch) ShouldNotify(today, notifyDay time.Weekday) bool {
	return today == notifyDay || b.BirthdayDueToday || b.AnniversaryDueToday
}

// Subject returns the override subject when events are due, else defaultSubject.
func (b *Batch) Subject(defaultSubject string) string {
	if b.SubjectOverride != "" {
		return b.SubjectOverride
	}
	return defaultSubject
}

// DueCount returns the number of due events across both kinds.
func (b *Batch) DueCount() int {
	return len(b.AlertLines)
}

// ReminderEngine aggregates classified records into a Batch.
type ReminderEngine struct {
	Classifier    *Classifier
	Messages      MessageFormatter
	SubjectPrefix string
	OnBadRecord   RecordPolicy
}

// NewReminderEngine wires an engine with English messages and the default prefix.
func NewReminderEngine(classifier *Classifier) *ReminderEngine {
	return &ReminderEngine{
		Classifier:    classifier,
		Messages:      EnglishMessages{},
		SubjectPrefix: config.DefaultSubjectPrefix,
		OnBadRecord:   RecordPolicyFail,
	}
}

// Build classifies records and folds them into a Batch.
// Birthdays are processed before anniversaries; within a kind, input order is kept.
func (e *ReminderEngine) Build(records []RawRecord) (*Batch, error) {
	b := &Batch{}
	var birthdays, anniversaries []ComputedEvent

	for _, rec := range records {
		ev, err := e.Classifier.Classify(rec)
		if err != nil {
			var perr *ParseError
			if e.OnBadRecord == RecordPolicySkip && errors.As(err, &perr) {
				slog.Warn(config.MsgRecordSkipped,
					config.LogKeyComponent, config.CompEngine,
					config.LogKeyKind, rec.Kind.String(),
					config.LogKeyRecord, rec.Key,
					config.LogKeyError, err,
				)
				b.Skipped = append(b.Skipped, err)
				continue
			}
			return nil, fmt.Errorf("%s: %w", config.ErrBuildBatch, err)
		}

		if ev.Kind == KindBirthday {
			birthdays = append(birthdays, ev)
		} else {
			anniversaries = append(anniversaries, ev)
		}
	}

	msg := e.messages()
	var subject []string

	for _, ev := range birthdays {
		if !ev.DueToday {
			continue
		}
		b.BirthdayDueToday = true
		// Counts are the ones reached on the occurrence, not yearsElapsed+1.
		b.AlertLines = append(b.AlertLines, msg.BirthdayAlert(ev.Name(), ev.AgeAtNext))
		subject = append(subject, msg.BirthdaySubject(ev.Name(), ev.AgeAtNext))
		logDue(ev)
	}

	for _, ev := range anniversaries {
		if !ev.DueToday {
			continue
		}
		s1, s2 := ev.Spouses()
		b.AnniversaryDueToday = true
		b.AlertLines = append(b.AlertLines, msg.AnniversaryAlert(s1, s2, ev.AgeAtNext))
		subject = append(subject, msg.AnniversarySubject(s1, s2, ev.AgeAtNext))
		logDue(ev)
	}

	if len(subject) > 0 {
		b.SubjectOverride = msg.SubjectLead(e.prefix()) + strings.Join(subject, config.SubjectSeparator)
	}
	b.AlertText = strings.Join(b.AlertLines, config.AlertSeparator)

	sortByDays(birthdays)
	sortByDays(anniversaries)
	b.Birthdays = birthdays
	b.Anniversaries = anniversaries

	return b, nil
}

func (e *ReminderEngine) messages() MessageFormatter {
	if e.Messages == nil {
		return EnglishMessages{}
	}
	return e.Messages
}

func (e *ReminderEngine) prefix() string {
	if e.SubjectPrefix == "" {
		return config.DefaultSubjectPrefix
	}
	return e.SubjectPrefix
}

// sortByDays orders events by DaysUntilNext; the sort is stable so ties keep input order.
func sortByDays(events []ComputedEvent) {
	slices.SortStableFunc(events, func(a, b ComputedEvent) int {
		return cmp.Compare(a.DaysUntilNext, b.DaysUntilNext)
	})
}

func logDue(ev ComputedEvent) {
	slog.Info(config.MsgEventDue,
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyKind, ev.Kind.String(),
		config.LogKeyName, strings.Join(ev.Names, " & "),
		config.LogKeyDays, ev.DaysUntilNext,
		config.LogKeyYears, ev.AgeAtNext,
	)
}

package report

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/drem/internal/config"
	"github.com/tartampluch/drem/internal/engine"
)

// Summarizer produces the calendar summary of an event.
type Summarizer func(ev engine.ComputedEvent) string

// DefaultSummary renders English summaries such as "Birthday: Alice (30)".
func DefaultSummary(ev engine.ComputedEvent) string {
	if ev.Kind == engine.KindAnniversary {
		s1, s2 := ev.Spouses()
		return fmt.Sprintf(config.FormatEventAnniversary, s1, s2, ev.AgeAtNext)
	}
	return fmt.Sprintf(config.FormatEventBirthday, ev.Name(), ev.AgeAtNext)
}

// Calendar renders one all-day event per computed event, dated at its next occurrence.
// A nil summarize uses DefaultSummary.
func Calendar(b *engine.Batch, now time.Time, summarize Summarizer) ([]byte, error) {
	if summarize == nil {
		summarize = DefaultSummary
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	dtStamp := ical.NewProp(config.PropDTStamp)
	dtStamp.SetDateTime(now.UTC())

	for _, group := range [][]engine.ComputedEvent{b.Birthdays, b.Anniversaries} {
		for _, ev := range group {
			event := ical.NewEvent()
			event.Props.SetText(config.PropUID, eventUID(ev))
			event.Props.SetText(config.PropSummary, summarize(ev))
			event.Props.SetText(config.PropCategories, ev.Kind.String())

			start := ical.NewProp(config.PropDTStart)
			start.SetDate(ev.NextOccurrence)
			event.Props.Set(start)
			event.Props.Set(dtStamp)

			cal.Children = append(cal.Children, event.Component)
		}
	}

	// An empty VCALENDAR is rejected by the encoder; serve the stub instead.
	if len(cal.Children) == 0 {
		return []byte(config.StubVCalendar), nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

// eventUID is stable across runs for the same record and occurrence year.
func eventUID(ev engine.ComputedEvent) string {
	input := fmt.Sprintf(config.FormatHashInput,
		ev.Kind.String()+":"+strings.Join(ev.Names, "&"),
		ev.AnchorDate.Format(config.DateFormatDisplay),
		config.UIDSalt,
	)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf(config.FormatUID, fmt.Sprintf("%x", hash[:config.UIDHashLength]), ev.NextOccurrence.Year(), config.ICalDomain)
}

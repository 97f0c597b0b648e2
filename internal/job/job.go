package job

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tartampluch/drem/internal/config"
	"github.com/tartampluch/drem/internal/engine"
	"github.com/tartampluch/drem/internal/i18n"
	"github.com/tartampluch/drem/internal/notify"
	"github.com/tartampluch/drem/internal/report"
	"github.com/tartampluch/drem/internal/source"
)

// Result describes one completed reminder pass.
type Result struct {
	RunID       string
	GeneratedAt time.Time
	Batch       *engine.Batch
	Body        report.Body
	Calendar    []byte
	Subject     string
	Notified    bool
	// SendErr is set when delivery failed; the pass itself still succeeded.
	SendErr error
}

// Runner performs reminder passes: fetch, compute, render, and mail when due.
type Runner struct {
	Source    source.RecordSource
	Engine    *engine.ReminderEngine
	Notifier  notify.Notifier
	Clock     engine.Clock
	Summarize report.Summarizer

	From           string
	To             []string
	DefaultSubject string
	Footer         string
	NotifyDay      time.Weekday
	Timeout        time.Duration

	// Force sends the summary regardless of the weekly day or due events.
	Force bool

	// Out receives the plain-text tables of every pass. Nil discards them.
	Out io.Writer

	// OnResult is called after every successful pass, e.g. to refresh the report server.
	OnResult func(*Result)
}

// New wires a Runner from settings. tr localizes messages; nil keeps English.
func New(s *config.Settings, src source.RecordSource, n notify.Notifier, tr *i18n.Translator) *Runner {
	clock := engine.RealClock{Location: s.Location}

	classifier := engine.NewClassifier(clock)
	if s.LegacyThresholds {
		classifier.Thresholds = engine.LegacyThresholds
	}

	eng := engine.NewReminderEngine(classifier)
	eng.SubjectPrefix = s.SubjectPrefix
	eng.OnBadRecord = engine.ParseRecordPolicy(s.OnBadRecord)

	r := &Runner{
		Source:         src,
		Engine:         eng,
		Notifier:       n,
		Clock:          clock,
		From:           s.MailSender,
		To:             s.MailRecipients,
		DefaultSubject: s.MailSubject,
		Footer:         s.MailFooter,
		NotifyDay:      s.NotifyWeekday,
		Timeout:        s.Timeout,
	}
	if tr != nil {
		eng.Messages = tr
		r.Summarize = tr.EventSummary
		r.Footer = tr.Footer(s.MailFooter)
	}
	return r
}

// Run executes one pass. Source, classification and rendering failures abort
// the pass; a failed delivery is only logged and reported in Result.SendErr.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	return r.run(ctx, true)
}

// Preview computes and renders a pass without mailing anything.
func (r *Runner) Preview(ctx context.Context) (*Result, error) {
	return r.run(ctx, false)
}

// fetch reads birthdays then anniversaries, in a single read when the source supports it.
func (r *Runner) fetch(ctx context.Context) ([]engine.RawRecord, error) {
	if snap, ok := r.Source.(source.SnapshotSource); ok {
		return snap.FetchAll(ctx)
	}

	var records []engine.RawRecord
	for _, kind := range []engine.Kind{engine.KindBirthday, engine.KindAnniversary} {
		recs, err := r.Source.Fetch(ctx, kind)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	return records, nil
}

func (r *Runner) run(ctx context.Context, allowSend bool) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString()}
	log := slog.With(
		config.LogKeyComponent, config.CompJob,
		config.LogKeyRunID, res.RunID,
	)
	log.InfoContext(ctx, config.MsgPassStarted)

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	records, err := r.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrPassFailed, err)
	}
	log.DebugContext(ctx, config.MsgRecordsFetched, config.LogKeyCount, len(records))

	batch, err := r.Engine.Build(records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrPassFailed, err)
	}

	now := r.Clock.Now()
	res.GeneratedAt = now
	res.Batch = batch
	res.Body = report.Compose(batch, r.Footer)
	res.Subject = batch.Subject(r.DefaultSubject)

	if r.Out != nil {
		if _, err := fmt.Fprintln(r.Out, report.Text(batch)); err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrRenderReport, err)
		}
	}

	res.Calendar, err = report.Calendar(batch, now, r.Summarize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrRenderReport, err)
	}

	send := allowSend && (r.Force || batch.ShouldNotify(now.Weekday(), r.NotifyDay))
	log.InfoContext(ctx, config.MsgNotifyDecision,
		config.LogKeyNotify, send,
		config.LogKeyWeekday, now.Weekday().String(),
		config.LogKeyNotifyDay, r.NotifyDay.String(),
		config.LogKeyForce, r.Force,
		config.LogKeyDue, batch.DueCount(),
	)

	if send {
		err := r.Notifier.Send(ctx, notify.Message{
			From:    r.From,
			To:      r.To,
			Subject: res.Subject,
			Text:    res.Body.Text,
			HTML:    res.Body.HTML,
			Attachments: []notify.Attachment{
				{Filename: config.AttachICS, ContentType: config.MimeCalendar, Data: res.Calendar},
			},
		})
		if err != nil {
			log.WarnContext(ctx, config.MsgMailFailed, config.LogKeyError, err)
			res.SendErr = err
		} else {
			res.Notified = true
		}
	}

	log.InfoContext(ctx, config.MsgPassFinished,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyBirthdays, len(batch.Birthdays)),
			slog.Int(config.LogKeyAnnivs, len(batch.Anniversaries)),
			slog.Int(config.LogKeyDue, batch.DueCount()),
			slog.Int(config.LogKeySkipped, len(batch.Skipped)),
		),
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)

	if r.OnResult != nil {
		r.OnResult(res)
	}
	return res, nil
}

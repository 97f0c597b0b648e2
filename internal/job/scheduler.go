package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tartampluch/drem/internal/config"
)

// cronLogger routes cron's internal messages to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(msg, append([]any{config.LogKeyComponent, config.CompSchedule}, keysAndValues...)...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(msg, append([]any{config.LogKeyComponent, config.CompSchedule, config.LogKeyError, err}, keysAndValues...)...)
}

// Scheduler repeats Runner passes on a cron schedule. A pass still running
// when the next one is due causes that tick to be skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
	spec   string
	ctx    context.Context
}

// NewScheduler parses spec (standard 5-field cron syntax, evaluated in loc).
func NewScheduler(r *Runner, spec string, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	logger := cronLogger{}
	s := &Scheduler{
		runner: r,
		spec:   spec,
		ctx:    context.Background(),
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("%s %q: %w", config.ErrScheduleParse, spec, err)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	if _, err := s.runner.Run(s.ctx); err != nil {
		slog.Error(config.ErrPassFailed,
			config.LogKeyComponent, config.CompSchedule,
			config.LogKeyError, err,
		)
	}
}

// Next returns the time of the next scheduled pass.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Run starts the schedule and blocks until ctx is done, then waits for a
// running pass to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	slog.Info(config.MsgSchedulerStart,
		config.LogKeyComponent, config.CompSchedule,
		config.LogKeySchedule, s.spec,
		config.LogKeyNext, s.Next().Format(time.RFC3339),
	)

	<-ctx.Done()

	slog.Info(config.MsgSchedulerStop, config.LogKeyComponent, config.CompSchedule)
	<-s.cron.Stop().Done()
}

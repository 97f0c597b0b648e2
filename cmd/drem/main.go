package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/tartampluch/drem/internal/config"
	"github.com/tartampluch/drem/internal/i18n"
	"github.com/tartampluch/drem/internal/job"
	"github.com/tartampluch/drem/internal/notify"
	"github.com/tartampluch/drem/internal/server"
	"github.com/tartampluch/drem/internal/source"
	"github.com/urfave/cli/v2"
)

// main delegates to runMain so deferred calls (closing the log file) run
// before os.Exit.
func main() {
	os.Exit(runMain(os.Args, os.Stdout))
}

// runMain returns config.ExitCodeSuccess on success, config.ExitCodeError on failure.
func runMain(args []string, stdout io.Writer) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var logCloser io.Closer
	defer func() {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	}()

	app := newApp(stdout, func(c io.Closer) { logCloser = c })
	if err := app.RunContext(ctx, args); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}
	return config.ExitCodeSuccess
}

// newApp declares the command tree. onLogFile receives the log file to close on exit.
func newApp(stdout io.Writer, onLogFile func(io.Closer)) *cli.App {
	notifyDay := &cli.StringFlag{Name: config.FlagNotifyDay, Usage: config.FlagDescNotifyDay}
	dryRun := &cli.BoolFlag{Name: config.FlagDryRun, Usage: config.FlagDescDryRun}

	return &cli.App{
		Name:        config.AppName,
		Usage:       config.AppUsage,
		Version:     config.Version,
		Writer:      stdout,
		HideVersion: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: config.FlagDebug, Usage: config.FlagDescDebug},
			&cli.StringFlag{Name: config.FlagEnvFile, Value: config.DefaultEnvFile, Usage: config.FlagDescEnvFile},
		},
		Before: func(c *cli.Context) error {
			if c.Args().First() == config.CmdVersion {
				return nil
			}
			envFile, envErr := config.LoadEnvFile(c.String(config.FlagEnvFile))
			if closer := setupLogging(stdout, c.Bool(config.FlagDebug), os.Getenv(config.EnvLogFile)); closer != nil {
				onLogFile(closer)
			}
			logStartupInfo()
			if envErr != nil {
				slog.Debug(config.MsgEnvFileSkipped,
					config.LogKeyComponent, config.CompConfig,
					config.LogKeyFile, envFile,
					config.LogKeyError, envErr,
				)
			} else {
				slog.Info(config.MsgEnvFileLoaded,
					config.LogKeyComponent, config.CompConfig,
					config.LogKeyFile, envFile,
				)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  config.CmdRun,
				Usage: config.CmdDescRun,
				Flags: []cli.Flag{
					dryRun,
					notifyDay,
					&cli.BoolFlag{Name: config.FlagForce, Usage: config.FlagDescForce},
				},
				Action: runOnce,
			},
			{
				Name:  config.CmdWatch,
				Usage: config.CmdDescWatch,
				Flags: []cli.Flag{
					dryRun,
					notifyDay,
					&cli.StringFlag{Name: config.FlagSchedule, Usage: config.FlagDescSchedule},
					&cli.StringFlag{Name: config.FlagPort, Usage: config.FlagDescPort},
				},
				Action: watch,
			},
			{
				Name:  config.CmdVersion,
				Usage: config.CmdDescVersion,
				Action: func(c *cli.Context) error {
					_, err := fmt.Fprintf(c.App.Writer, config.MsgVersionOutput,
						config.AppName, config.Version, config.Commit, config.Date, runtime.GOOS, runtime.GOARCH)
					return err
				},
			},
		},
	}
}

// buildRunner loads the configuration and wires the pass dependencies.
func buildRunner(c *cli.Context) (*job.Runner, *config.Settings, error) {
	dry := c.Bool(config.FlagDryRun)

	s, err := config.Load(os.Getenv, config.KeyringSecrets{}, !dry)
	if err != nil {
		return nil, nil, err
	}
	if v := c.String(config.FlagNotifyDay); v != "" {
		wd, err := config.ParseWeekday(v)
		if err != nil {
			return nil, nil, fmt.Errorf("%s --%s: %w", config.ErrInvalidFlag, config.FlagNotifyDay, err)
		}
		s.NotifyWeekday = wd
	}

	slog.Info(config.MsgConfigLoaded,
		config.LogKeyComponent, config.CompMain,
		config.LogKeySource, s.Source,
		config.LogKeyLang, s.Language,
		config.LogKeyNotifyDay, s.NotifyWeekday.String(),
		config.LogKeyDryRun, dry,
	)

	tr, err := i18n.New(s.Language)
	if err != nil {
		return nil, nil, err
	}
	src, err := source.New(s)
	if err != nil {
		return nil, nil, err
	}

	var n notify.Notifier = notify.LogNotifier{}
	if !dry {
		n = notify.NewSendGridNotifier(s.SendGridKey)
	}

	r := job.New(s, src, n, tr)
	r.Out = c.App.Writer
	return r, s, nil
}

func runOnce(c *cli.Context) error {
	r, _, err := buildRunner(c)
	if err != nil {
		return err
	}
	r.Force = c.Bool(config.FlagForce)

	if _, err := r.Run(c.Context); err != nil {
		return err
	}
	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return nil
}

// watch repeats the pass on the schedule and optionally serves the latest report.
func watch(c *cli.Context) error {
	r, s, err := buildRunner(c)
	if err != nil {
		return err
	}

	spec := s.Schedule
	if v := c.String(config.FlagSchedule); v != "" {
		spec = v
	}
	port := s.ListenPort
	if v := c.String(config.FlagPort); v != "" {
		if err := config.ValidatePort(v); err != nil {
			return err
		}
		port = v
	}

	sched, err := job.NewScheduler(r, spec, s.Location)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	var srvErr chan error
	if port != "" {
		srv := server.NewReportServer(port)
		r.OnResult = func(res *job.Result) {
			srv.Update([]byte(res.Body.HTML), res.Calendar)
		}

		srvErr = make(chan error, config.ChannelBufferSize)
		go func() {
			err := srv.Start(ctx)
			if err != nil {
				cancel()
			}
			srvErr <- err
		}()

		if _, err := r.Preview(ctx); err != nil {
			slog.Warn(config.ErrPassFailed,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyError, err,
			)
		}
	}

	sched.Run(ctx)
	cancel()

	if srvErr != nil {
		if err := <-srvErr; err != nil {
			return err
		}
	}
	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return nil
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging installs a JSON slog handler writing to stdout and, when
// logPath is set, to that file. The returned closer is nil without a file.
func setupLogging(stdout io.Writer, debugMode bool, logPath string) io.Closer {
	writers := []io.Writer{stdout}
	var logFile *os.File

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}))
	slog.SetDefault(logger)

	if logFile == nil {
		return nil
	}
	return logFile
}

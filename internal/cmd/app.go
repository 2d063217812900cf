package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixgeelhaar/taskgate/internal/config"
	"github.com/felixgeelhaar/taskgate/internal/env"
	tgerrors "github.com/felixgeelhaar/taskgate/internal/errors"
	"github.com/felixgeelhaar/taskgate/internal/exec"
	"github.com/felixgeelhaar/taskgate/internal/gate"
	"github.com/felixgeelhaar/taskgate/internal/history"
	"github.com/felixgeelhaar/taskgate/internal/hooks"
	"github.com/felixgeelhaar/taskgate/internal/log"
	"github.com/felixgeelhaar/taskgate/internal/metrics"
	"github.com/felixgeelhaar/taskgate/internal/task"
	"github.com/felixgeelhaar/taskgate/internal/task/builtin"
	"github.com/felixgeelhaar/taskgate/internal/tui"
	"github.com/felixgeelhaar/taskgate/internal/ux"
)

// IOStreams are the process streams commands read from and write to.
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// DefaultStreams returns the process's standard streams.
func DefaultStreams() IOStreams {
	return IOStreams{In: os.Stdin, Out: os.Stdout, ErrOut: os.Stderr}
}

// App is the wired runtime shared by all commands of one invocation.
type App struct {
	Context  *CommandContext
	Streams  IOStreams
	Config   *config.Config
	Registry *task.Registry
	Runner   *task.Runner
	Logger   *log.Logger
	Styles   tui.Styles

	// RunID identifies this invocation in logs, manifests and history.
	RunID    string
	Executor *exec.Executor
	History  *history.Store

	// Hooks is nil when no hooks are configured or during a dry run.
	Hooks *hooks.Dispatcher

	Metrics         *metrics.Metrics
	MetricsRegistry *prometheus.Registry
}

// newApp loads configuration and wires the executor, failure gate and
// runner. Nothing is executed.
func newApp(cc *CommandContext, streams IOStreams) (*App, error) {
	logger, err := newLogger(cc, streams.ErrOut)
	if err != nil {
		return nil, err
	}
	log.SetDefaultLogger(logger)

	cfg, err := config.Load(config.Options{Path: cc.ConfigPath, Dir: cc.Dir, Overrides: cc.Set})
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded", "path", cfg.Path, "dir", cfg.Dir, "settings", cfg.Settings.Len())

	registry := task.NewRegistry()
	if err := builtin.Register(registry); err != nil {
		return nil, err
	}
	if err := registry.Register(cfg.Tasks...); err != nil {
		return nil, err
	}

	styles := tui.NewStyles(lipgloss.NewRenderer(streams.ErrOut))
	if cc.Plain {
		styles = tui.PlainStyles()
	}

	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	shell, _ := cfg.Settings.Get(env.KeyShell)
	executor := &exec.Executor{
		Shell:  shell,
		Dir:    cfg.Dir,
		Stdin:  streams.In,
		Stdout: streams.Out,
		Stderr: streams.ErrOut,
		DryRun: cc.DryRun,
		Logger: logger,
	}
	if cc.ManifestDir != "" {
		dir := resolvePath(cfg.Dir, cc.ManifestDir)
		executor.Manifests = exec.NewManifestWriter(dir)
		executor.Manifests.RunID = runID
	}

	var store *history.Store
	if cc.HistoryDB != "" {
		store, err = history.Open(resolvePath(cfg.Dir, cc.HistoryDB))
		if err != nil {
			return nil, tgerrors.Wrap(tgerrors.ErrCodeConfigInvalid, "cannot open run history", err).
				WithSuggestion("Check that --history-db points at a writable location")
		}
	}

	reg, m := metrics.NewRegistry()
	observers := task.Observers{&stepPrinter{out: streams.ErrOut, styles: styles}, m}

	var dispatcher *hooks.Dispatcher
	if len(cfg.Hooks) > 0 && !cc.DryRun {
		dispatcher = hooks.New(cfg.Hooks, hooks.Options{
			Shell:  shell,
			Dir:    cfg.Dir,
			RunID:  runID,
			Logger: logger,
		})
		observers = append(observers, dispatcher)
		logger.Debug("hooks enabled", "count", dispatcher.Len())
	}

	runner := &task.Runner{
		Settings: cfg.Settings,
		Executor: executor,
		Gate:     gate.New(selectConfirmer(cc, streams), streams.ErrOut, logger),
		Observer: observers,
		Logger:   logger,
	}

	return &App{
		Context:         cc,
		Streams:         streams,
		Config:          cfg,
		Registry:        registry,
		Runner:          runner,
		Logger:          logger,
		Styles:          styles,
		RunID:           runID,
		Executor:        executor,
		History:         store,
		Hooks:           dispatcher,
		Metrics:         m,
		MetricsRegistry: reg,
	}, nil
}

// observe records a finished report in the metrics and the run history
// and notifies hooks. Recording failures are logged and never change the
// run's outcome.
func (a *App) observe(ctx context.Context, report *task.Report) {
	if report == nil {
		return
	}
	a.Metrics.ObserveReport(report)
	if a.Hooks != nil {
		a.Hooks.ObserveReport(context.WithoutCancel(ctx), report)
	}
	if a.History == nil {
		return
	}
	if _, err := a.History.Record(context.WithoutCancel(ctx), a.RunID, report, a.Context.DryRun); err != nil {
		a.Logger.WithError(err).Warn("failed to record run history", "task", report.Task)
	}
}

// backgroundObservers are the step observers for runs nobody watches on a
// terminal.
func (a *App) backgroundObservers() task.Observer {
	observers := task.Observers{a.Metrics}
	if a.Hooks != nil {
		observers = append(observers, a.Hooks)
	}
	return observers
}

// close flushes metrics and releases the history database.
func (a *App) close() {
	a.flushMetrics()
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			a.Logger.WithError(err).Warn("failed to close run history")
		}
	}
}

// flushMetrics writes the run's metrics when --metrics-file is set. A write
// failure is logged and never changes the run's outcome.
func (a *App) flushMetrics() {
	if a.Context.MetricsFile == "" {
		return
	}
	path := resolvePath(a.Config.Dir, a.Context.MetricsFile)
	if err := metrics.WriteTextfile(path, a.MetricsRegistry); err != nil {
		a.Logger.WithError(err).Warn("failed to write metrics file", "path", path)
	}
}

func resolvePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func newLogger(cc *CommandContext, out io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(cc.LogLevel)
	if err != nil {
		return nil, tgerrors.Wrap(tgerrors.ErrCodeConfigInvalid, "invalid --log-level", err)
	}
	format, err := log.ParseFormat(cc.LogFormat)
	if err != nil {
		return nil, tgerrors.Wrap(tgerrors.ErrCodeConfigInvalid, "invalid --log-format", err)
	}

	cfg := log.DefaultConfig()
	cfg.Level = level
	cfg.Format = format
	cfg.Output = out
	cfg.AddSource = level == log.LevelDebug
	return log.New(cfg), nil
}

// selectConfirmer picks how the failure gate asks its question. Without a
// usable terminal the gate fails closed.
func selectConfirmer(cc *CommandContext, streams IOStreams) gate.Confirmer {
	if cc.NonInteractive {
		return gate.Decline{}
	}
	if cc.Plain {
		return ux.NewLineConfirmer(streams.In, streams.ErrOut)
	}
	if f, ok := streams.In.(*os.File); ok && tui.ShouldPrompt(f) {
		return tui.NewConfirmer(f, streams.ErrOut)
	}
	return gate.Decline{}
}

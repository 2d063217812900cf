package hooks

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/taskgate/internal/exec"
	"github.com/felixgeelhaar/taskgate/internal/log"
	"github.com/felixgeelhaar/taskgate/internal/task"
)

// DefaultConcurrency caps how many hooks deliver one event at once.
const DefaultConcurrency = 4

// Options configures a Dispatcher.
type Options struct {
	Shell  string
	Dir    string
	RunID  string
	Logger *log.Logger

	// Timeout applies to hooks without their own timeout.
	Timeout     time.Duration
	Concurrency int
}

type entry struct {
	config Config
	hook   Hook
}

// Dispatcher delivers lifecycle events to the configured hooks. It is a
// task.Observer, so it can be attached to a Runner directly.
type Dispatcher struct {
	entries []entry
	opts    Options
	now     func() time.Time
}

// New builds a dispatcher. Disabled hooks are skipped. Configs are
// expected to be validated already.
func New(configs []Config, opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	d := &Dispatcher{opts: opts, now: time.Now}
	for _, cfg := range configs {
		if cfg.Disabled {
			continue
		}
		var h Hook
		if cfg.URL != "" {
			h = NewWebhookHook(cfg.Name, cfg.URL, cfg.Headers)
		} else {
			h = NewScriptHook(cfg.Name, cfg.Run, opts.Shell, opts.Dir)
		}
		d.entries = append(d.entries, entry{config: cfg, hook: h})
	}
	return d
}

// Len returns the number of active hooks.
func (d *Dispatcher) Len() int {
	return len(d.entries)
}

// Fire delivers event to every subscribed hook and waits for them.
// Failures are logged and returned as a count; they never affect the run.
func (d *Dispatcher) Fire(ctx context.Context, event *Event) int {
	if event.Timestamp.IsZero() {
		event.Timestamp = d.now()
	}
	if event.RunID == "" {
		event.RunID = d.opts.RunID
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	sem := make(chan struct{}, d.opts.Concurrency)

	for _, e := range d.entries {
		if !e.config.Handles(event.Type) {
			continue
		}
		wg.Add(1)
		go func(e entry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			timeout := e.config.Timeout
			if timeout <= 0 {
				timeout = d.opts.Timeout
			}
			hookCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			err := e.hook.Deliver(hookCtx, event)
			logger := d.opts.Logger.With("hook", e.hook.Name(), "event", string(event.Type), "task", event.Task)
			if err != nil {
				logger.Warn("hook failed", "error", err, "duration", time.Since(start))
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			logger.Debug("hook delivered", "duration", time.Since(start))
		}(e)
	}

	wg.Wait()
	return failed
}

// StepStarted fires task_started before the first step.
func (d *Dispatcher) StepStarted(t *task.Task, index, _ int, _ task.PlannedStep) {
	if index != 1 {
		return
	}
	d.Fire(context.Background(), &Event{Type: EventTaskStarted, Task: t.Name})
}

// StepFinished fires step_failed for a non-zero exit or a command that
// could not be started.
func (d *Dispatcher) StepFinished(t *task.Task, _, _ int, step task.PlannedStep, result *exec.Result, err error) {
	if err == nil && (result == nil || result.Succeeded()) {
		return
	}
	event := &Event{
		Type:    EventStepFailed,
		Task:    t.Name,
		Step:    step.Name,
		Command: step.Command.String(),
	}
	if result != nil {
		event.ExitCode = result.ExitCode
	}
	if err != nil {
		event.Error = err.Error()
	}
	d.Fire(context.Background(), event)
}

// ObserveReport fires the terminal event for a finished invocation.
// Reports that never left Pending produce no event.
func (d *Dispatcher) ObserveReport(ctx context.Context, r *task.Report) {
	var typ EventType
	switch r.State {
	case task.StateCompleted:
		typ = EventTaskCompleted
	case task.StateFailed:
		typ = EventTaskFailed
	case task.StateAborted:
		typ = EventTaskAborted
	default:
		return
	}

	event := &Event{
		Type:  typ,
		Task:  r.Task,
		Args:  r.Args,
		State: r.State.String(),
	}
	if r.Err != nil {
		event.Error = r.Err.Error()
	}
	d.Fire(ctx, event)
}

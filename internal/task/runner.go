package task

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/taskgate/internal/env"
	"github.com/felixgeelhaar/taskgate/internal/exec"
	"github.com/felixgeelhaar/taskgate/internal/gate"
	"github.com/felixgeelhaar/taskgate/internal/log"
)

// Executor runs one resolved command. *exec.Executor implements it.
type Executor interface {
	Execute(ctx context.Context, cmd exec.Command, opts exec.Options) (*exec.Result, error)
}

// Gate decides whether a failed step may be passed. *gate.Gate implements it.
type Gate interface {
	Check(ctx context.Context, result *exec.Result, question string) error
}

// Observer is notified around every step. Implementations render progress;
// they cannot influence control flow.
type Observer interface {
	StepStarted(task *Task, index, total int, step PlannedStep)
	StepFinished(task *Task, index, total int, step PlannedStep, result *exec.Result, err error)
}

// Observers fans notifications out to several observers in order.
type Observers []Observer

// StepStarted implements Observer.
func (o Observers) StepStarted(task *Task, index, total int, step PlannedStep) {
	for _, obs := range o {
		obs.StepStarted(task, index, total, step)
	}
}

// StepFinished implements Observer.
func (o Observers) StepFinished(task *Task, index, total int, step PlannedStep, result *exec.Result, err error) {
	for _, obs := range o {
		obs.StepFinished(task, index, total, step, result, err)
	}
}

// PlannedStep is a step whose command has been fully resolved.
type PlannedStep struct {
	Step
	Command exec.Command
}

// Plan is a validated, resolved task invocation ready to run.
type Plan struct {
	Task  *Task
	Args  Args
	Steps []PlannedStep
}

// Runner executes tasks strictly in step order.
type Runner struct {
	Settings env.Settings
	Executor Executor
	Gate     Gate
	Observer Observer
	Logger   *log.Logger
}

// Prepare validates args and resolves every step of t. No command runs, so
// MissingArgument and MissingKey surface before anything executes.
func (r *Runner) Prepare(t *Task, args Args) (*Plan, error) {
	if err := t.Validate(args); err != nil {
		return nil, err
	}

	steps := t.Plan(args)
	planned := make([]PlannedStep, 0, len(steps))
	for i, step := range steps {
		command, err := r.Settings.Resolve(step.Template, args)
		if err != nil {
			return nil, fmt.Errorf("task %s: step %d (%s): %w", t.Name, i+1, step.Name, err)
		}
		planned = append(planned, PlannedStep{Step: step, Command: exec.Command(command)})
	}

	return &Plan{Task: t, Args: args, Steps: planned}, nil
}

// Run prepares and executes t.
func (r *Runner) Run(ctx context.Context, t *Task, args Args) (*Report, error) {
	plan, err := r.Prepare(t, args)
	if err != nil {
		report := &Report{Task: t.Name, Args: args, State: StatePending, Err: err}
		return report, err
	}
	return r.Execute(ctx, plan)
}

// Execute runs a prepared plan. It stops at the first step whose execution
// fails fast or whose gate aborts; later steps are never started. The
// returned error is the step's error, wrapped with task and step context.
func (r *Runner) Execute(ctx context.Context, plan *Plan) (*Report, error) {
	t := plan.Task
	total := len(plan.Steps)
	report := &Report{Task: t.Name, Args: plan.Args, State: StateRunning, Started: time.Now()}
	logger := r.logger().With("task", t.Name)

	logger.InfoContext(ctx, "task started", "steps", total)

	for i, step := range plan.Steps {
		report.Current = i + 1
		if r.Observer != nil {
			r.Observer.StepStarted(t, i+1, total, step)
		}

		result, err := r.Executor.Execute(ctx, step.Command, exec.Options{
			Capture:  step.Capture,
			WarnOnly: step.WarnOnly,
			Task:     t.Name,
			Step:     step.Name,
		})

		stepReport := StepReport{Name: step.Name, Command: step.Command}
		if result != nil {
			stepReport.ExitCode = result.ExitCode
			stepReport.Duration = result.Duration
		}

		if err == nil && step.Question != "" {
			err = r.gate().Check(ctx, result, step.Question)
			if err == nil && result != nil && result.Failed() {
				stepReport.Continued = true
			}
		}

		if r.Observer != nil {
			r.Observer.StepFinished(t, i+1, total, step, result, err)
		}
		report.Steps = append(report.Steps, stepReport)

		if err != nil {
			report.finish(stateFor(err), fmt.Errorf("task %s: step %d (%s): %w", t.Name, i+1, step.Name, err))
			logger.WithError(err).WarnContext(ctx, "task halted", "step", i+1, "state", report.State.String())
			return report, report.Err
		}
	}

	report.finish(StateCompleted, nil)
	logger.InfoContext(ctx, "task completed", "duration", report.Duration())
	return report, nil
}

// RunAll validates and resolves every invocation before running any of them,
// then runs them in order. The first failure or abort ends the sequence.
func (r *Runner) RunAll(ctx context.Context, registry *Registry, invocations []Invocation) ([]*Report, error) {
	plans := make([]*Plan, 0, len(invocations))
	for _, inv := range invocations {
		t, err := registry.Get(inv.Name)
		if err != nil {
			return nil, err
		}
		args, err := t.Bind(inv.Args)
		if err != nil {
			return nil, err
		}
		plan, err := r.Prepare(t, args)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	reports := make([]*Report, 0, len(plans))
	for _, plan := range plans {
		report, err := r.Execute(ctx, plan)
		reports = append(reports, report)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

// gate falls back to a gate without a confirmer, which fails closed.
func (r *Runner) gate() Gate {
	if r.Gate != nil {
		return r.Gate
	}
	return gate.New(nil, nil, r.logger())
}

func (r *Runner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.DefaultLogger()
}

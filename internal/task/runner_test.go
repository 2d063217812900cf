package task

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/taskgate/internal/env"
	tgerrors "github.com/felixgeelhaar/taskgate/internal/errors"
	"github.com/felixgeelhaar/taskgate/internal/exec"
	"github.com/felixgeelhaar/taskgate/internal/gate"
	"github.com/felixgeelhaar/taskgate/internal/log"
)

// recordingExecutor mimics exec.Executor's failure semantics without
// spawning processes.
type recordingExecutor struct {
	exits    map[exec.Command]int
	notFound map[exec.Command]bool
	calls    []exec.Command
	options  []exec.Options
}

func (f *recordingExecutor) Execute(_ context.Context, cmd exec.Command, opts exec.Options) (*exec.Result, error) {
	f.calls = append(f.calls, cmd)
	f.options = append(f.options, opts)

	result := &exec.Result{Command: cmd, ExitCode: f.exits[cmd], Captured: opts.Capture}
	if f.notFound[cmd] {
		result.ExitCode = 127
		return result, tgerrors.NewCommandNotFoundError(string(cmd), nil)
	}
	if result.Failed() && !opts.WarnOnly {
		return result, tgerrors.NewCommandFailedError(string(cmd), result.ExitCode)
	}
	return result, nil
}

type recordingObserver struct {
	started  []int
	finished []int
}

func (o *recordingObserver) StepStarted(_ *Task, index, _ int, _ PlannedStep) {
	o.started = append(o.started, index)
}

func (o *recordingObserver) StepFinished(_ *Task, index, _ int, _ PlannedStep, _ *exec.Result, _ error) {
	o.finished = append(o.finished, index)
}

func testSettings() env.Settings {
	return env.New(map[string]string{env.KeyRun: "python manage.py", env.KeyProjectName: "mysite"})
}

func newRunner(executor Executor, confirmer gate.Confirmer) *Runner {
	return &Runner{
		Settings: testSettings(),
		Executor: executor,
		Gate:     gate.New(confirmer, nil, log.Discard()),
		Logger:   log.Discard(),
	}
}

func migrateTask() *Task {
	return &Task{
		Name:   "migrate",
		Params: []Param{{Name: "app"}},
		Plan: func(args Args) []Step {
			if args.Has("app") {
				return []Step{Cmd("{run} migrate {app} --noinput")}
			}
			return []Step{Cmd("{run} migrate --noinput")}
		},
	}
}

func threeStepTask() *Task {
	return &Task{
		Name: "release",
		Plan: Static(
			Cmd("step-one"),
			Gated("step-two", "Step two failed. Continue anyway?"),
			Cmd("step-three"),
		),
	}
}

func TestMigrateSucceedsWithoutPrompt(t *testing.T) {
	executor := &recordingExecutor{}
	confirmer := gate.NewScripted()
	runner := newRunner(executor, confirmer)

	report, err := runner.Run(context.Background(), migrateTask(), Args{"app": "billing"})
	require.NoError(t, err)

	assert.Equal(t, []exec.Command{"python manage.py migrate billing --noinput"}, executor.calls)
	assert.Equal(t, StateCompleted, report.State)
	assert.Empty(t, confirmer.Questions())
}

func TestMigrateWithoutAppUsesSiteWideCommand(t *testing.T) {
	executor := &recordingExecutor{}
	runner := newRunner(executor, gate.Decline{})

	_, err := runner.Run(context.Background(), migrateTask(), Args{})
	require.NoError(t, err)
	assert.Equal(t, []exec.Command{"python manage.py migrate --noinput"}, executor.calls)
}

func TestFailFastHaltsImmediately(t *testing.T) {
	executor := &recordingExecutor{exits: map[exec.Command]int{"step-one": 1}}
	confirmer := gate.NewScripted(true)
	runner := newRunner(executor, confirmer)

	report, err := runner.Run(context.Background(), threeStepTask(), Args{})
	require.Error(t, err)

	assert.True(t, errors.Is(err, tgerrors.ErrCommandFailed), "got %v", err)
	assert.Equal(t, []exec.Command{"step-one"}, executor.calls)
	assert.Equal(t, StateFailed, report.State)
	assert.Empty(t, confirmer.Questions(), "fail-fast steps never reach the gate")
}

func TestGatedFailure(t *testing.T) {
	tests := []struct {
		name      string
		answer    bool
		wantCalls []exec.Command
		wantState State
	}{
		{
			name:      "yes continues to step three",
			answer:    true,
			wantCalls: []exec.Command{"step-one", "step-two", "step-three"},
			wantState: StateCompleted,
		},
		{
			name:      "no stops before step three",
			answer:    false,
			wantCalls: []exec.Command{"step-one", "step-two"},
			wantState: StateAborted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := &recordingExecutor{exits: map[exec.Command]int{"step-two": 1}}
			confirmer := gate.NewScripted(tt.answer)
			runner := newRunner(executor, confirmer)

			report, err := runner.Run(context.Background(), threeStepTask(), Args{})

			assert.Equal(t, tt.wantCalls, executor.calls)
			assert.Equal(t, tt.wantState, report.State)
			assert.Equal(t, []string{"Step two failed. Continue anyway?"}, confirmer.Questions())
			if tt.answer {
				require.NoError(t, err)
				assert.True(t, report.Steps[1].Continued)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tgerrors.ErrUserAbort), "got %v", err)
			assert.Contains(t, err.Error(), "step 2")
		})
	}
}

func TestNonInteractiveFailsClosed(t *testing.T) {
	executor := &recordingExecutor{exits: map[exec.Command]int{"step-two": 1}}
	runner := newRunner(executor, gate.Decline{})

	report, err := runner.Run(context.Background(), threeStepTask(), Args{})
	require.Error(t, err)

	assert.True(t, errors.Is(err, tgerrors.ErrUserAbort))
	assert.Equal(t, StateAborted, report.State)
	assert.NotContains(t, executor.calls, exec.Command("step-three"))
}

func TestNilGateFailsClosed(t *testing.T) {
	executor := &recordingExecutor{exits: map[exec.Command]int{"step-two": 1}}
	runner := &Runner{Settings: testSettings(), Executor: executor, Logger: log.Discard()}

	_, err := runner.Run(context.Background(), threeStepTask(), Args{})
	assert.True(t, errors.Is(err, tgerrors.ErrUserAbort))
}

func TestWarnOnlyWithoutQuestionContinues(t *testing.T) {
	executor := &recordingExecutor{exits: map[exec.Command]int{"cleanup": 1}}
	confirmer := gate.NewScripted()
	runner := newRunner(executor, confirmer)

	task := &Task{Name: "tidy", Plan: Static(Soft("cleanup"), Cmd("after"))}
	report, err := runner.Run(context.Background(), task, Args{})
	require.NoError(t, err)

	assert.Equal(t, []exec.Command{"cleanup", "after"}, executor.calls)
	assert.Equal(t, StateCompleted, report.State)
	assert.Empty(t, confirmer.Questions())
	assert.False(t, report.Steps[0].Continued)
}

func TestCommandNotFoundIsFatalAfterContinue(t *testing.T) {
	executor := &recordingExecutor{
		exits:    map[exec.Command]int{"step-one": 1},
		notFound: map[exec.Command]bool{"step-two": true},
	}
	runner := newRunner(executor, gate.NewScripted(true, true))

	task := &Task{Name: "mixed", Plan: Static(
		Gated("step-one", "Continue?"),
		Gated("step-two", "Continue?"),
		Cmd("step-three"),
	)}

	report, err := runner.Run(context.Background(), task, Args{})
	require.Error(t, err)

	assert.True(t, errors.Is(err, tgerrors.ErrCommandNotFound), "got %v", err)
	assert.Equal(t, []exec.Command{"step-one", "step-two"}, executor.calls)
	assert.Equal(t, StateFailed, report.State)
}

func TestValidationBeforeExecution(t *testing.T) {
	tests := []struct {
		name    string
		task    *Task
		args    Args
		wantErr *tgerrors.TaskgateError
	}{
		{
			name: "missing required argument",
			task: &Task{
				Name:   "south_init",
				Params: []Param{{Name: "app", Required: true}},
				Plan:   Static(Cmd("echo before"), Cmd("{run} schemamigration {app} --initial")),
			},
			args:    Args{},
			wantErr: tgerrors.ErrMissingArgument,
		},
		{
			name: "missing key in a later step",
			task: &Task{
				Name: "collect",
				Plan: Static(Cmd("echo first"), Cmd("{undefined_setting} collectstatic")),
			},
			args:    Args{},
			wantErr: tgerrors.ErrMissingKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := &recordingExecutor{}
			runner := newRunner(executor, gate.Decline{})

			report, err := runner.Run(context.Background(), tt.task, tt.args)
			require.Error(t, err)

			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Empty(t, executor.calls, "no command may run before validation passes")
			assert.Equal(t, StatePending, report.State)
		})
	}
}

func TestStepOptionsForwarded(t *testing.T) {
	executor := &recordingExecutor{}
	runner := newRunner(executor, gate.Decline{})

	_, err := runner.Run(context.Background(), threeStepTask(), Args{})
	require.NoError(t, err)

	require.Len(t, executor.options, 3)
	assert.Equal(t, exec.Options{Task: "release", Step: "step-one"}, executor.options[0])
	assert.Equal(t, exec.Options{Task: "release", Step: "step-two", WarnOnly: true, Capture: true}, executor.options[1])
}

func TestObserverSeesEveryStartedStep(t *testing.T) {
	executor := &recordingExecutor{exits: map[exec.Command]int{"step-two": 1}}
	observer := &recordingObserver{}
	runner := newRunner(executor, gate.NewScripted(false))
	runner.Observer = observer

	_, err := runner.Run(context.Background(), threeStepTask(), Args{})
	require.Error(t, err)

	assert.Equal(t, []int{1, 2}, observer.started)
	assert.Equal(t, []int{1, 2}, observer.finished)
}

func TestObserversFanOut(t *testing.T) {
	executor := &recordingExecutor{}
	first, second := &recordingObserver{}, &recordingObserver{}
	runner := newRunner(executor, nil)
	runner.Observer = Observers{first, second}

	_, err := runner.Run(context.Background(), threeStepTask(), Args{})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, first.finished)
	assert.Equal(t, first.started, second.started)
	assert.Equal(t, first.finished, second.finished)
}

func TestRunAll(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(migrateTask(), threeStepTask(), &Task{
		Name: "collectstatic",
		Plan: Static(Cmd("{run} collectstatic --noinput")),
	}))

	t.Run("runs in order", func(t *testing.T) {
		executor := &recordingExecutor{}
		runner := newRunner(executor, gate.Decline{})

		reports, err := runner.RunAll(context.Background(), registry, []Invocation{
			{Name: "migrate", Args: []string{"billing"}},
			{Name: "collectstatic"},
		})
		require.NoError(t, err)

		assert.Len(t, reports, 2)
		assert.Equal(t, []exec.Command{
			"python manage.py migrate billing --noinput",
			"python manage.py collectstatic --noinput",
		}, executor.calls)
	})

	t.Run("abort stops later tasks", func(t *testing.T) {
		executor := &recordingExecutor{exits: map[exec.Command]int{"step-two": 1}}
		runner := newRunner(executor, gate.NewScripted(false))

		reports, err := runner.RunAll(context.Background(), registry, []Invocation{
			{Name: "release"},
			{Name: "collectstatic"},
		})
		require.Error(t, err)

		assert.True(t, errors.Is(err, tgerrors.ErrUserAbort))
		assert.Len(t, reports, 1)
		assert.NotContains(t, executor.calls, exec.Command("python manage.py collectstatic --noinput"))
	})

	t.Run("validates every invocation first", func(t *testing.T) {
		executor := &recordingExecutor{}
		runner := newRunner(executor, gate.Decline{})

		_, err := runner.RunAll(context.Background(), registry, []Invocation{
			{Name: "collectstatic"},
			{Name: "deploy"},
		})
		require.Error(t, err)

		assert.True(t, errors.Is(err, tgerrors.ErrUnknownTask))
		assert.Empty(t, executor.calls)
	})
}

func TestRunWithShell(t *testing.T) {
	dir := t.TempDir()
	executor := &exec.Executor{Dir: dir, Stdout: os.Stderr, Logger: log.Discard()}

	task := &Task{Name: "scaffold", Plan: Static(
		Cmd("touch one"),
		Gated("exit 1", "Continue anyway?"),
		Cmd("touch three"),
	)}

	t.Run("yes", func(t *testing.T) {
		runner := &Runner{Settings: testSettings(), Executor: executor, Gate: gate.New(gate.NewScripted(true), nil, log.Discard()), Logger: log.Discard()}
		_, err := runner.Run(context.Background(), task, Args{})
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "three"))
	})

	require.NoError(t, os.Remove(filepath.Join(dir, "three")))

	t.Run("no", func(t *testing.T) {
		runner := &Runner{Settings: testSettings(), Executor: executor, Gate: gate.New(gate.NewScripted(false), nil, log.Discard()), Logger: log.Discard()}
		_, err := runner.Run(context.Background(), task, Args{})
		require.Error(t, err)
		assert.NoFileExists(t, filepath.Join(dir, "three"))
	})
}

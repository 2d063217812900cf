package task

import (
	"errors"
	"time"

	tgerrors "github.com/felixgeelhaar/taskgate/internal/errors"
	"github.com/felixgeelhaar/taskgate/internal/exec"
)

// State is the lifecycle state of one task invocation.
type State int

const (
	// StatePending means no step has started. Invocations rejected during
	// validation stay here.
	StatePending State = iota
	// StateRunning means a step is executing or being gated.
	StateRunning
	// StateCompleted means every step ran.
	StateCompleted
	// StateFailed means a fail-fast step failed or a command was not found.
	StateFailed
	// StateAborted means the operator declined to continue past a failure,
	// or no decision could be obtained.
	StateAborted
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateAborted
}

// StepReport records what happened to one executed step.
type StepReport struct {
	Name     string        `json:"name"`
	Command  exec.Command  `json:"command"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`

	// Continued is set when the step failed and the operator chose to go on.
	Continued bool `json:"continued,omitempty"`
}

// Report summarizes one task invocation.
type Report struct {
	Task     string       `json:"task"`
	Args     Args         `json:"args,omitempty"`
	State    State        `json:"-"`
	Current  int          `json:"current_step"`
	Steps    []StepReport `json:"steps"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished"`
	Err      error        `json:"-"`
}

// Duration returns how long the task ran.
func (r *Report) Duration() time.Duration {
	if r.Started.IsZero() || r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

func (r *Report) finish(state State, err error) {
	r.State = state
	r.Err = err
	r.Finished = time.Now()
}

func stateFor(err error) State {
	if errors.Is(err, tgerrors.ErrUserAbort) {
		return StateAborted
	}
	return StateFailed
}

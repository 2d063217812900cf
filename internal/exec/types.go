package exec

import (
	"strings"
	"time"
)

// Command is a fully resolved shell command line.
type Command string

// String returns the command line.
func (c Command) String() string {
	return string(c)
}

// Options control a single Execute call.
type Options struct {
	// Capture buffers stdout and stderr into the Result instead of streaming
	// them to the executor's writers.
	Capture bool

	// WarnOnly reports a non-zero exit in the Result instead of failing the
	// call. Steps that feed the failure gate run in this mode.
	WarnOnly bool

	// Task and Step label the execution in logs and manifests.
	Task string
	Step string
}

// Result represents the outcome of one command. It is created by the
// Executor and not modified afterwards.
type Result struct {
	Command  Command
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration

	// Captured reports whether Stdout and Stderr hold the command's output.
	Captured bool

	// DryRun reports that the command was printed, not run.
	DryRun bool
}

// Succeeded reports whether the command exited with status zero.
func (r *Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Failed is the inverse of Succeeded.
func (r *Result) Failed() bool {
	return !r.Succeeded()
}

// Output returns captured stdout followed by captured stderr.
func (r *Result) Output() string {
	var parts []string
	if s := strings.TrimRight(r.Stdout, "\n"); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimRight(r.Stderr, "\n"); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}

// RunManifest is the audit record written for each executed command
type RunManifest struct {
	RunID       string    `json:"run_id"`
	Sequence    int       `json:"sequence"`
	Timestamp   time.Time `json:"timestamp"`
	Task        string    `json:"task,omitempty"`
	Step        string    `json:"step,omitempty"`
	Command     string    `json:"command"`
	Fingerprint string    `json:"fingerprint"`
	ExitCode    int       `json:"exit_code"`
	Duration    string    `json:"duration"`
	WarnOnly    bool      `json:"warn_only"`
	Captured    bool      `json:"captured"`
	DryRun      bool      `json:"dry_run,omitempty"`
}

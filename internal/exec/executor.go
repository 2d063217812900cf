package exec

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	tgerrors "github.com/felixgeelhaar/taskgate/internal/errors"
	"github.com/felixgeelhaar/taskgate/internal/log"
)

// DefaultShell interprets commands when Executor.Shell is empty.
const DefaultShell = "/bin/sh"

// exitNotFound is the status POSIX shells report for an unresolvable command.
const exitNotFound = 127

// Executor runs shell commands on the local system, one at a time.
type Executor struct {
	// Shell interprets each command with "-c".
	Shell string

	// Dir is the working directory for commands. Empty means the current one.
	Dir string

	// Env is appended to the inherited environment.
	Env []string

	// Stdin, Stdout and Stderr are attached to commands that do not capture
	// their output. Nil Stdout or Stderr fall back to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// DryRun prints commands instead of running them.
	DryRun bool

	// Manifests records an audit manifest per command when set.
	Manifests *ManifestWriter

	Logger *log.Logger
}

// Execute runs cmd synchronously and blocks until it exits.
//
// A non-zero exit is returned as a CommandFailed error unless opts.WarnOnly
// is set; the Result is populated either way. A command the shell cannot
// resolve is always a CommandNotFound error.
func (e *Executor) Execute(ctx context.Context, cmd Command, opts Options) (*Result, error) {
	if strings.TrimSpace(string(cmd)) == "" {
		return nil, tgerrors.New(tgerrors.ErrCodeInvalidCommand, "refusing to execute an empty command")
	}

	logger := e.logger().With("task", opts.Task, "step", opts.Step)

	if e.DryRun {
		fmt.Fprintf(e.stdout(), "[dry-run] %s\n", cmd)
		result := &Result{Command: cmd, Captured: opts.Capture, DryRun: true}
		e.record(logger, result, opts)
		return result, nil
	}

	logger.DebugContext(ctx, "executing command", "command", string(cmd), "capture", opts.Capture, "warn_only", opts.WarnOnly)

	c := exec.CommandContext(ctx, e.shell(), "-c", string(cmd))
	c.Dir = e.Dir
	c.WaitDelay = time.Second
	if len(e.Env) > 0 {
		c.Env = append(os.Environ(), e.Env...)
	}

	var stdout, stderr bytes.Buffer
	if opts.Capture {
		c.Stdout = &stdout
		c.Stderr = &stderr
	} else {
		c.Stdin = e.Stdin
		c.Stdout = e.stdout()
		c.Stderr = e.stderr()
	}

	start := time.Now()
	err := c.Run()
	result := &Result{
		Command:  cmd,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
		Captured: opts.Capture,
	}

	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		result.ExitCode = -1
		logger.WarnContext(ctx, "command interrupted", "command", string(cmd))
		return result, fmt.Errorf("command interrupted: %s: %w", cmd, ctxErr)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !stderrors.As(err, &exitErr) {
			// The shell itself could not be started
			result.ExitCode = exitNotFound
			logger.ErrorContext(ctx, "shell could not be started", "shell", e.shell(), "error", err)
			return result, tgerrors.NewCommandNotFoundError(string(cmd), err)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	e.record(logger, result, opts)

	if result.ExitCode == exitNotFound {
		var cause error
		if msg := strings.TrimSpace(result.Stderr); msg != "" {
			cause = stderrors.New(msg)
		}
		return result, tgerrors.NewCommandNotFoundError(string(cmd), cause)
	}

	if result.Failed() && !opts.WarnOnly {
		return result, tgerrors.NewCommandFailedError(string(cmd), result.ExitCode)
	}

	return result, nil
}

func (e *Executor) record(logger *log.Logger, result *Result, opts Options) {
	if result.Succeeded() {
		logger.Info("command completed", "command", string(result.Command), "duration", result.Duration, "dry_run", result.DryRun)
	} else {
		logger.Warn("command failed", "command", string(result.Command), "exit_code", result.ExitCode, "warn_only", opts.WarnOnly)
	}

	if e.Manifests == nil {
		return
	}
	if err := e.Manifests.Write(result, opts); err != nil {
		logger.WithError(err).Warn("failed to save run manifest")
	}
}

func (e *Executor) shell() string {
	if e.Shell != "" {
		return e.Shell
	}
	return DefaultShell
}

func (e *Executor) stdout() io.Writer {
	if e.Stdout != nil {
		return e.Stdout
	}
	return os.Stdout
}

func (e *Executor) stderr() io.Writer {
	if e.Stderr != nil {
		return e.Stderr
	}
	return os.Stderr
}

func (e *Executor) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.DefaultLogger()
}

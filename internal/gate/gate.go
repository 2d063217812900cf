// Package gate decides whether a task may continue past a failed step.
//
// A Gate is a no-op for successful results and for steps that carry no
// question. Otherwise it asks its Confirmer and turns anything other than an
// explicit "yes" into a UserAbort error. The abort is never swallowed by the
// task runner, so it ends the whole invocation.
package gate

import (
	"context"
	"fmt"
	"io"
	"strings"

	tgerrors "github.com/felixgeelhaar/taskgate/internal/errors"
	"github.com/felixgeelhaar/taskgate/internal/exec"
	"github.com/felixgeelhaar/taskgate/internal/log"
)

// Confirmer obtains a yes/no decision from the operator.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, question string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, question string) (bool, error) {
	return f(ctx, question)
}

// Gate evaluates command results against an optional question.
type Gate struct {
	Confirmer Confirmer

	// Output receives the captured output of a failed command before the
	// question is asked. Nil discards it.
	Output io.Writer

	Logger *log.Logger
}

// New creates a Gate. A nil confirmer fails closed.
func New(confirmer Confirmer, output io.Writer, logger *log.Logger) *Gate {
	return &Gate{Confirmer: confirmer, Output: output, Logger: logger}
}

// Check returns nil when result succeeded, when question is empty, or when
// the operator confirms. Declining, or failing to obtain a decision at all,
// returns a UserAbort error.
func (g *Gate) Check(ctx context.Context, result *exec.Result, question string) error {
	if result == nil || result.Succeeded() || question == "" {
		return nil
	}

	logger := g.logger().With("command", string(result.Command), "exit_code", result.ExitCode)

	if g.Output != nil && result.Captured {
		if out := result.Output(); out != "" {
			fmt.Fprintf(g.Output, "%s\n", indent(out))
		}
	}

	confirmer := g.Confirmer
	if confirmer == nil {
		confirmer = Decline{}
	}

	ok, err := confirmer.Confirm(ctx, question)
	if err != nil {
		logger.WithError(err).WarnContext(ctx, "no decision obtained, stopping")
		return tgerrors.NewUserAbortError(err)
	}
	if !ok {
		logger.InfoContext(ctx, "operator declined to continue")
		return tgerrors.NewUserAbortError(nil)
	}

	logger.InfoContext(ctx, "operator chose to continue past failure")
	return nil
}

func (g *Gate) logger() *log.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return log.DefaultLogger()
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = "  | " + line
	}
	return strings.Join(lines, "\n")
}

package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/felixgeelhaar/taskgate/internal/exec"
	"github.com/felixgeelhaar/taskgate/internal/task"
	"github.com/felixgeelhaar/taskgate/internal/tui"
)

const durationPrecision = 10 * time.Millisecond

// stepPrinter renders step progress to the terminal.
type stepPrinter struct {
	out    io.Writer
	styles tui.Styles
}

func (p *stepPrinter) StepStarted(t *task.Task, index, total int, step task.PlannedStep) {
	fmt.Fprintf(p.out, "%s %s\n",
		p.styles.Step.Render(fmt.Sprintf("[%s %d/%d]", t.Name, index, total)),
		p.styles.Command.Render(string(step.Command)))
}

func (p *stepPrinter) StepFinished(_ *task.Task, _, _ int, step task.PlannedStep, result *exec.Result, err error) {
	switch {
	case err != nil:
		// The error itself is reported once the run ends.
	case result == nil || result.DryRun:
	case result.Failed() && step.Question != "":
		fmt.Fprintln(p.out, p.styles.Warning.Render(
			fmt.Sprintf("! %s exited with status %d, continuing", step.Name, result.ExitCode)))
	case result.Failed():
		fmt.Fprintln(p.out, p.styles.Muted.Render(
			fmt.Sprintf("! %s exited with status %d (ignored)", step.Name, result.ExitCode)))
	default:
		fmt.Fprintln(p.out, p.styles.Muted.Render(
			fmt.Sprintf("  done in %s", result.Duration.Round(durationPrecision))))
	}
}

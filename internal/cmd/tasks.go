package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskgate/internal/task"
)

// addTaskCommands registers one subcommand per task. Tasks whose name is
// taken by a built-in command stay reachable through "taskgate run".
func addTaskCommands(root *cobra.Command, app *App) {
	reserved := make(map[string]bool)
	for _, c := range root.Commands() {
		reserved[c.Name()] = true
	}
	reserved["help"] = true

	for _, t := range app.Registry.List() {
		if reserved[t.Name] {
			app.Logger.Warn("task shadowed by a built-in command; use 'taskgate run'", "task", t.Name, "source", t.Source)
			continue
		}
		root.AddCommand(newTaskCmd(app, t))
	}
}

func newTaskCmd(app *App, t *task.Task) *cobra.Command {
	return &cobra.Command{
		Use:     t.Usage(),
		Short:   t.Description,
		Long:    taskLong(t),
		GroupID: tasksGroupID,
		Args:    cobra.ArbitraryArgs,
		Annotations: map[string]string{
			"source": t.Source,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			bound, err := t.Bind(args)
			if err != nil {
				app.observe(cmd.Context(), &task.Report{Task: t.Name, State: task.StatePending, Err: err})
				return err
			}
			report, err := app.Runner.Run(cmd.Context(), t, bound)
			app.observe(cmd.Context(), report)
			if err != nil {
				return err
			}
			printSummary(app, report)
			return nil
		},
	}
}

func taskLong(t *task.Task) string {
	var b strings.Builder
	b.WriteString(t.Description)
	if len(t.Params) > 0 {
		b.WriteString("\n\nParameters (positional or name=value):")
		for _, p := range t.Params {
			req := "optional"
			if p.Required {
				req = "required"
			}
			fmt.Fprintf(&b, "\n  %-12s %s (%s)", p.Name, p.Description, req)
		}
	}
	fmt.Fprintf(&b, "\n\nDefined in: %s", t.Source)
	return b.String()
}

func printSummary(app *App, report *task.Report) {
	fmt.Fprintln(app.Streams.ErrOut, app.Styles.Success.Render(
		fmt.Sprintf("✓ %s %s in %s", report.Task, report.State, report.Duration().Round(durationPrecision))))
}

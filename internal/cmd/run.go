package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskgate/internal/task"
)

func newRunCmd(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "run <task[:args]>...",
		Short: "Run several tasks in order",
		Long: `Run one or more tasks in the order given. Arguments follow the task
name after a colon and are separated by commas; name=value sets a parameter
by name. Use \, for a literal comma.

Every invocation is validated before the first command runs. The first task
that fails or is aborted ends the run; later tasks never start.

Examples:
  taskgate run migrate:billing collectstatic compress
  taskgate run startapp:app=blog`,
		Args: cobra.MinimumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			a, err := app()
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			names := make([]string, 0, a.Registry.Len())
			for _, t := range a.Registry.List() {
				names = append(names, t.Name+"\t"+t.Description)
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			invocations, err := task.ParseInvocations(args)
			if err != nil {
				return err
			}
			reports, err := a.Runner.RunAll(cmd.Context(), a.Registry, invocations)
			if reports == nil && err != nil {
				a.Metrics.ObserveError(err)
			}
			for _, report := range reports {
				a.observe(cmd.Context(), report)
				if report.State == task.StateCompleted {
					printSummary(a, report)
				}
			}
			return err
		},
	}
}

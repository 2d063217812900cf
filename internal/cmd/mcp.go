package cmd

import (
	"context"
	stderrors "errors"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskgate/internal/env"
	"github.com/felixgeelhaar/taskgate/internal/server"
	"github.com/felixgeelhaar/taskgate/internal/task"
	"github.com/felixgeelhaar/taskgate/internal/version"
)

func newMCPCmd(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve tasks to AI agents over MCP (stdio)",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing two tools:
list_tasks and run_task. Command output is returned to the agent instead of
being printed. Nobody can answer questions on this transport, so a failed
step that would ask whether to continue aborts its task.

Example client configuration:
  {"command": "taskgate", "args": ["--dir", "/path/to/project", "mcp"]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}

			shell, _ := a.Config.Settings.Get(env.KeyShell)
			ctx := cmd.Context()
			srv := server.New(server.Options{
				Version:   version.GetInfo().Version,
				Registry:  a.Registry,
				Settings:  a.Config.Settings,
				Shell:     shell,
				Dir:       a.Config.Dir,
				DryRun:    a.Context.DryRun,
				Manifests: a.Executor.Manifests,
				Observer:  a.backgroundObservers(),
				OnReport:  func(r *task.Report) { a.observe(ctx, r) },
				Logger:    a.Logger,
			})

			err = srv.Serve(ctx, a.Streams.In, a.Streams.Out)
			if stderrors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// Package cmd implements the taskgate command tree.
package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const tasksGroupID = "tasks"

// NewRootCmd builds the command tree without any task subcommands.
func NewRootCmd(streams IOStreams) *cobra.Command {
	root := &cobra.Command{
		Use:   "taskgate",
		Short: "Run project management tasks with a confirm-on-failure gate",
		Long: `taskgate runs named, parameterized project tasks as sequences of shell
commands. A step that fails either stops the run, or, when the task asks a
question for it, waits for you to decide whether to continue.

Examples:
  # Apply migrations for one app
  taskgate migrate billing

  # Run several tasks in order, fabric style
  taskgate run migrate:billing collectstatic

  # See every command without running anything
  taskgate --dry-run initialize`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.ErrOut)

	registerPersistentFlags(root)
	root.AddGroup(&cobra.Group{ID: tasksGroupID, Title: "Tasks:"})

	return root
}

// Execute runs the root command with the process arguments
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the process arguments under ctx.
func ExecuteContext(ctx context.Context) error {
	return Run(ctx, os.Args[1:], DefaultStreams())
}

// Run builds the full command tree for args and executes it. Task
// subcommands depend on the configuration, so the persistent flags are read
// once before cobra dispatches.
func Run(ctx context.Context, args []string, streams IOStreams) error {
	root := NewRootCmd(streams)

	cc, err := preParse(root, args)
	var app *App
	if err == nil {
		app, err = newApp(cc, streams)
	}
	setupErr := err

	addCommands(root, func() (*App, error) { return app, setupErr })
	if setupErr != nil {
		// Report the setup failure instead of "unknown command" for tasks
		// that could not be registered.
		root.Args = cobra.ArbitraryArgs
		root.RunE = func(*cobra.Command, []string) error { return setupErr }
	} else {
		addTaskCommands(root, app)
	}

	root.SetArgs(args)
	err = root.ExecuteContext(ctx)
	if app != nil {
		app.close()
	}
	return err
}

// preParse reads the persistent flags from args, ignoring everything cobra
// will validate later.
func preParse(root *cobra.Command, args []string) (*CommandContext, error) {
	fs := pflag.NewFlagSet(root.Name(), pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.AddFlagSet(root.PersistentFlags())
	fs.BoolP("help", "h", false, "")

	// Errors resurface when cobra parses the same arguments.
	_ = fs.Parse(args)

	probe := &cobra.Command{}
	probe.Flags().AddFlagSet(fs)
	return NewCommandContext(probe)
}

// appFunc returns the wired runtime, or the error that prevented wiring it.
type appFunc func() (*App, error)

func addCommands(root *cobra.Command, app appFunc) {
	root.AddCommand(
		newRunCmd(app),
		newListCmd(app),
		newConfigCmd(app),
		newDoctorCmd(app),
		newHistoryCmd(app),
		newMCPCmd(app),
		newVersionCmd(),
		newCompletionCmd(),
	)
}

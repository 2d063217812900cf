package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskgate/internal/version"
)

func newVersionCmd() *cobra.Command {
	var (
		versionVerbose bool
		versionJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd, versionVerbose, versionJSON)
		},
	}

	cmd.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "show detailed version information")
	cmd.Flags().BoolVar(&versionJSON, "json", false, "output version information as JSON")
	return cmd
}

func runVersion(cmd *cobra.Command, verbose, asJSON bool) error {
	info := version.GetInfo()
	out := cmd.OutOrStdout()

	if asJSON {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal version info: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if verbose {
		fmt.Fprintln(out, info.String())
		return nil
	}

	fmt.Fprintf(out, "taskgate %s\n", info.Short())
	return nil
}

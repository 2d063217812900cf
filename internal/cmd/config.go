package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskgate/internal/ux"
)

// EffectiveConfig is the resolved configuration shown by "config view".
type EffectiveConfig struct {
	Path     string            `json:"path,omitempty" yaml:"path,omitempty"`
	Dir      string            `json:"dir" yaml:"dir"`
	Settings map[string]string `json:"settings" yaml:"settings"`
}

func newConfigCmd(app appFunc) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect taskgate configuration",
		Long: `Inspect the effective configuration: built-in defaults, then the
settings: section of taskgate.yaml, then --set overrides.

Examples:
  # View the effective settings
  taskgate config view

  # Show which configuration file is used
  taskgate config path`,
	}

	var format string
	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Display the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{Writer: a.Streams.Out})
			if err != nil {
				return err
			}
			return formatter.Format(EffectiveConfig{
				Path:     a.Config.Path,
				Dir:      a.Config.Dir,
				Settings: a.Config.Settings.Map(),
			})
		},
	}
	viewCmd.Flags().StringVarP(&format, "format", "f", ux.FormatYAML, "output format (yaml, json)")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			if a.Config.Path == "" {
				fmt.Fprintln(a.Streams.ErrOut, "No configuration file found; using defaults.")
				return nil
			}
			fmt.Fprintln(a.Streams.Out, a.Config.Path)
			return nil
		},
	}

	configCmd.AddCommand(viewCmd, pathCmd)
	return configCmd
}

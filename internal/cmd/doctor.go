package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskgate/internal/env"
	tgerrors "github.com/felixgeelhaar/taskgate/internal/errors"
	"github.com/felixgeelhaar/taskgate/internal/health"
	"github.com/felixgeelhaar/taskgate/internal/tui"
	"github.com/felixgeelhaar/taskgate/internal/ux"
)

// DoctorReport is the outcome of all prerequisite checks.
type DoctorReport struct {
	Status health.Status        `json:"status" yaml:"status"`
	Checks []health.NamedResult `json:"checks" yaml:"checks"`
	styles tui.Styles
}

// RenderText writes one line per check and its suggestion, if any.
func (r DoctorReport) RenderText(w io.Writer) error {
	width := 0
	for _, c := range r.Checks {
		width = max(width, lipgloss.Width(c.Name))
	}

	for _, c := range r.Checks {
		mark := r.styles.Success.Render("✓")
		switch c.Status {
		case health.StatusDegraded:
			mark = r.styles.Warning.Render("!")
		case health.StatusUnhealthy:
			mark = r.styles.Error.Render("✗")
		}
		line := fmt.Sprintf("%s %s%s", mark, r.styles.Key.Width(width+2).Render(c.Name), c.Message)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		if s := c.Suggestion(); s != "" && c.Status != health.StatusHealthy {
			if _, err := fmt.Fprintln(w, r.styles.Muted.Render(strings.Repeat(" ", width+4)+s)); err != nil {
				return err
			}
		}
	}
	return nil
}

func newDoctorCmd(app appFunc) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the tools tasks depend on are installed",
		Long: `Check the shell, git, git-flow and the management entry point named by
the run setting. Missing optional tools are reported as degraded; a missing
required tool makes the command fail.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}

			manager := health.NewManager()
			shell, _ := a.Config.Settings.Get(env.KeyShell)
			run, _ := a.Config.Settings.Get(env.KeyRun)
			manager.AddChecker(
				health.NewShellChecker(shell),
				health.NewGitChecker(),
				health.NewGitFlowChecker(),
				health.NewEntryPointChecker(run),
				health.NewManageScriptChecker(run, a.Config.Dir),
			)

			results := manager.Check(cmd.Context())
			report := DoctorReport{Status: health.OverallStatus(results), Checks: results, styles: a.Styles}

			formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{Writer: a.Streams.Out})
			if err != nil {
				return err
			}
			if err := formatter.Format(report); err != nil {
				return err
			}

			if report.Status == health.StatusUnhealthy {
				var missing []string
				for _, r := range results {
					if r.Status == health.StatusUnhealthy {
						missing = append(missing, r.Name)
					}
				}
				return tgerrors.New(tgerrors.ErrCodePrerequisiteMissing,
					fmt.Sprintf("required tools are not usable: %s", strings.Join(missing, ", ")))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", ux.FormatText, "output format (text, json, yaml)")
	return cmd
}

package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	tgerrors "github.com/felixgeelhaar/taskgate/internal/errors"
	"github.com/felixgeelhaar/taskgate/internal/history"
	"github.com/felixgeelhaar/taskgate/internal/tui"
	"github.com/felixgeelhaar/taskgate/internal/ux"
)

// RunHistory lists stored runs, newest first.
type RunHistory struct {
	Runs   []history.Run `json:"runs" yaml:"runs"`
	styles tui.Styles
}

// RenderText writes one line per run.
func (h RunHistory) RenderText(w io.Writer) error {
	if len(h.Runs) == 0 {
		_, err := fmt.Fprintln(w, h.styles.Muted.Render("No runs recorded."))
		return err
	}

	for _, run := range h.Runs {
		state := run.State
		switch run.State {
		case "completed":
			state = h.styles.Success.Render(state)
		case "aborted":
			state = h.styles.Warning.Render(state)
		case "failed":
			state = h.styles.Error.Render(state)
		}

		line := fmt.Sprintf("%s  %s %s  %s in %s",
			h.styles.Muted.Render(run.Started.Local().Format("2006-01-02 15:04:05")),
			h.styles.Key.Render(run.Task), formatArgs(run.Args),
			state, run.Duration().Round(durationPrecision))
		if run.DryRun {
			line += h.styles.Muted.Render(" (dry-run)")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		if run.ErrorCode != "" {
			if _, err := fmt.Fprintln(w, h.styles.Muted.Render("    "+firstLine(run.Error))); err != nil {
				return err
			}
		}
	}
	return nil
}

func formatArgs(args map[string]string) string {
	if len(args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + args[k]
	}
	return strings.Join(parts, ",")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func newHistoryCmd(app appFunc) *cobra.Command {
	var (
		format string
		query  history.Query
		prune  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded task runs",
		Long: `Show task runs recorded with --history-db, newest first.

Examples:
  taskgate --history-db .taskgate/history.db history
  taskgate --history-db .taskgate/history.db history --task migrate --state failed
  taskgate --history-db .taskgate/history.db history --prune 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			if a.History == nil {
				return tgerrors.New(tgerrors.ErrCodeConfigInvalid, "run history is not enabled").
					WithSuggestion("Pass --history-db <path> to record and read runs")
			}

			if cmd.Flags().Changed("prune") {
				removed, err := a.History.Prune(cmd.Context(), prune)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.Streams.ErrOut, "Removed %d run(s).\n", removed)
				return nil
			}

			runs, err := a.History.Recent(cmd.Context(), query)
			if err != nil {
				return err
			}
			formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{Writer: a.Streams.Out})
			if err != nil {
				return err
			}
			return formatter.Format(RunHistory{Runs: runs, styles: a.Styles})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", ux.FormatText, "output format (text, json, yaml)")
	cmd.Flags().StringVar(&query.Task, "task", "", "only show runs of this task")
	cmd.Flags().StringVar(&query.State, "state", "", "only show runs that ended in this state (completed, failed, aborted, pending)")
	cmd.Flags().IntVar(&query.Limit, "limit", history.DefaultLimit, "maximum number of runs to show")
	cmd.Flags().IntVar(&prune, "prune", 0, "delete all but the newest N runs")
	return cmd
}

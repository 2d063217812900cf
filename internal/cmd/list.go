package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskgate/internal/task"
	"github.com/felixgeelhaar/taskgate/internal/tui"
	"github.com/felixgeelhaar/taskgate/internal/ux"
)

// TaskInfo describes a registered task for listings.
type TaskInfo struct {
	Name        string       `json:"name" yaml:"name"`
	Usage       string       `json:"usage" yaml:"usage"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Params      []task.Param `json:"params,omitempty" yaml:"params,omitempty"`
	Source      string       `json:"source" yaml:"source"`
}

// TaskList renders as an aligned table in text output.
type TaskList struct {
	Tasks  []TaskInfo `json:"tasks" yaml:"tasks"`
	styles tui.Styles
}

// RenderText writes one line per task.
func (l TaskList) RenderText(w io.Writer) error {
	width := 0
	for _, t := range l.Tasks {
		width = max(width, lipgloss.Width(t.Usage))
	}

	for _, t := range l.Tasks {
		usage := l.styles.Key.Width(width + 2).Render(t.Usage)
		line := usage + t.Description
		if t.Source != "builtin" {
			line += " " + l.styles.Muted.Render("("+t.Source+")")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func buildTaskList(registry *task.Registry, styles tui.Styles) TaskList {
	tasks := registry.List()
	list := TaskList{Tasks: make([]TaskInfo, 0, len(tasks)), styles: styles}
	for _, t := range tasks {
		list.Tasks = append(list.Tasks, TaskInfo{
			Name:        t.Name,
			Usage:       t.Usage(),
			Description: t.Description,
			Params:      t.Params,
			Source:      t.Source,
		})
	}
	return list
}

func newListCmd(app appFunc) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List available tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{Writer: a.Streams.Out})
			if err != nil {
				return err
			}
			return formatter.Format(buildTaskList(a.Registry, a.Styles))
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", ux.FormatText, "output format (text, json, yaml)")
	return cmd
}

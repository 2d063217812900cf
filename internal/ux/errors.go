package ux

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	tgerrors "github.com/felixgeelhaar/taskgate/internal/errors"
)

// ErrorStyles styles RenderError output.
type ErrorStyles struct {
	Message    lipgloss.Style
	Suggestion lipgloss.Style
}

// EnhanceError attaches suggestions to errors that do not carry any, based on
// well-known failure messages.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := tgerrors.CodeOf(err); ok {
		return err
	}

	errMsg := err.Error()

	switch {
	case strings.Contains(errMsg, "permission denied"):
		return withSuggestion(err, "Check file permissions and ensure you have access to the project directory")
	case strings.Contains(errMsg, "unknown flag"), strings.Contains(errMsg, "unknown shorthand flag"):
		return withSuggestion(err, "Run 'taskgate --help' to see the available flags")
	case strings.Contains(errMsg, "unknown command"):
		return withSuggestion(err, "Run 'taskgate list' to see available tasks")
	}

	return err
}

func withSuggestion(err error, suggestion string) error {
	return fmt.Errorf("%w\n\nSuggestions:\n  • %s", err, suggestion)
}

// RenderError formats err for the terminal: the coded message on the first
// line and any suggestions below it.
func RenderError(err error, styles ErrorStyles) string {
	if err == nil {
		return ""
	}

	message, suggestions := splitSuggestions(err.Error())

	var b strings.Builder
	b.WriteString(styles.Message.Render("Error: " + message))
	if len(suggestions) > 0 {
		b.WriteString("\n")
		for _, s := range suggestions {
			b.WriteString("\n")
			b.WriteString(styles.Suggestion.Render("  • " + s))
		}
	}
	return b.String()
}

// splitSuggestions separates the "Suggestions:" section that coded errors
// append to their message.
func splitSuggestions(msg string) (string, []string) {
	head, tail, found := strings.Cut(msg, "\n\nSuggestions:")
	if !found {
		return msg, nil
	}

	var suggestions []string
	for _, line := range strings.Split(tail, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "•"))
		if line != "" {
			suggestions = append(suggestions, line)
		}
	}
	return head, suggestions
}

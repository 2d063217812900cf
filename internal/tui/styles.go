package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains lipgloss styles for command-line output
type Styles struct {
	Step    lipgloss.Style
	Command lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Key     lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles for standard output
func DefaultStyles() Styles {
	return NewStyles(lipgloss.DefaultRenderer())
}

// NewStyles returns the default styles bound to r, so color support is
// detected for the stream r writes to.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Step: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")), // Cyan
		Command: r.NewStyle().
			Foreground(lipgloss.Color("230")), // Light yellow
		Success: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")), // Green
		Warning: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")), // Yellow
		Error: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Muted: r.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Key: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")), // Purple
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Step:    plain,
		Command: plain,
		Success: plain,
		Warning: plain,
		Error:   plain,
		Muted:   plain,
		Key:     plain,
	}
}

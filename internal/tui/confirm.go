package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// Confirmer asks the failure gate's question with a huh confirm form.
// Escape and ctrl+c abort the form, which the gate treats as "no".
type Confirmer struct {
	In  io.Reader
	Out io.Writer

	// Accessible renders a plain line prompt instead of the full form, for
	// screen readers and dumb terminals.
	Accessible bool
}

// NewConfirmer creates a Confirmer reading from in and drawing on out.
func NewConfirmer(in io.Reader, out io.Writer) *Confirmer {
	return &Confirmer{In: in, Out: out}
}

// Confirm shows question and blocks until the operator answers or ctx is
// cancelled. The default answer is no.
func (c *Confirmer) Confirm(ctx context.Context, question string) (bool, error) {
	answer := false

	confirm := huh.NewConfirm().
		Title(question).
		Description("The last command failed.").
		Affirmative("Continue").
		Negative("Abort").
		Value(&answer)

	form := huh.NewForm(huh.NewGroup(confirm)).
		WithKeyMap(KeyMap()).
		WithAccessible(c.Accessible).
		WithInput(c.input()).
		WithOutput(c.output()).
		WithProgramOptions(tea.WithoutSignalHandler())

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, fmt.Errorf("confirmation aborted: %w", err)
		}
		return false, fmt.Errorf("prompt failed: %w", err)
	}

	return answer, nil
}

// KeyMap is huh's default key map with escape added to the quit binding.
func KeyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "abort"),
	)
	return km
}

func (c *Confirmer) input() io.Reader {
	if c.In != nil {
		return c.In
	}
	return os.Stdin
}

func (c *Confirmer) output() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stderr
}

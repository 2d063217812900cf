package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/taskgate/internal/cmd"
	"github.com/felixgeelhaar/taskgate/internal/exitcode"
	"github.com/felixgeelhaar/taskgate/internal/tui"
	"github.com/felixgeelhaar/taskgate/internal/ux"
)

func main() {
	// Create a context that listens for interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		exitcode.Exit(exitcode.Success)
	}

	// Check if error was due to context cancellation (e.g., Ctrl+C)
	if errors.Is(ctx.Err(), context.Canceled) {
		fmt.Fprintln(os.Stderr, "\nOperation cancelled by user")
		exitcode.Exit(exitcode.Interrupted)
	}

	styles := tui.NewStyles(lipgloss.NewRenderer(os.Stderr))
	fmt.Fprintln(os.Stderr, ux.RenderError(ux.EnhanceError(err), ux.ErrorStyles{
		Message:    styles.Error,
		Suggestion: styles.Muted,
	}))
	exitcode.ExitWithError(err)
}

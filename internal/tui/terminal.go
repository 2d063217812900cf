// Package tui holds the terminal-facing pieces of taskgate: the interactive
// confirm form, terminal detection and output styles.
package tui

import (
	"os"

	"golang.org/x/term"
)

// ciEnvVars disable prompting when any of them is set.
var ciEnvVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"TRAVIS",
	"CIRCLECI",
	"BUILDKITE",
}

// IsInteractive returns true if f is a terminal (not piped)
func IsInteractive(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// InCI reports whether a known CI environment variable is set.
func InCI() bool {
	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return true
		}
	}
	return false
}

// ShouldPrompt returns true if prompts should be shown based on environment.
// Prompts are disabled in CI environments or when stdin is not a terminal.
func ShouldPrompt(stdin *os.File) bool {
	return !InCI() && IsInteractive(stdin)
}

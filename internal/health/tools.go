package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NewShellChecker checks the shell that interprets every step.
func NewShellChecker(shell string) *BinaryChecker {
	return &BinaryChecker{
		Label:      "shell",
		Binary:     shell,
		Suggestion: "Point --set shell=<path> or settings.shell at an installed POSIX shell",
	}
}

// NewGitChecker checks for git 2.x, used by initialize and startapp.
func NewGitChecker() *BinaryChecker {
	return &BinaryChecker{
		Label:        "git-binary",
		Binary:       "git",
		VersionArgs:  []string{"--version"},
		ParseVersion: parseGitVersion,
		MinMajor:     2,
		Suggestion:   "Install Git from https://git-scm.com/downloads",
	}
}

// NewGitFlowChecker checks for the git-flow extension. Its steps are gated,
// so a missing git-flow only degrades the project.
func NewGitFlowChecker() *BinaryChecker {
	return &BinaryChecker{
		Label:       "git-flow",
		Binary:      "git-flow",
		VersionArgs: []string{"version"},
		Optional:    true,
		Suggestion:  "Install git-flow (AVH edition) or answer 'continue' when its steps fail",
	}
}

// NewEntryPointChecker checks the executable at the start of the run
// setting, e.g. python for "python manage.py".
func NewEntryPointChecker(run string) Checker {
	fields := strings.Fields(run)
	if len(fields) == 0 {
		return staticChecker{name: "entry-point", result: Unhealthy("the run setting is empty").
			WithDetail("suggestion", "Set settings.run in taskgate.yaml or pass --set run=<command>")}
	}
	return &BinaryChecker{
		Label:       "entry-point",
		Binary:      fields[0],
		VersionArgs: []string{"--version"},
		Suggestion:  fmt.Sprintf("Install %s or override the entry point with --set run=<command>", fields[0]),
	}
}

// NewManageScriptChecker checks that a script named by the run setting,
// such as manage.py, exists in dir. It returns nil when run names no script.
func NewManageScriptChecker(run, dir string) Checker {
	fields := strings.Fields(run)
	if len(fields) < 2 {
		return nil
	}
	for _, f := range fields[1:] {
		if strings.HasSuffix(f, ".py") {
			return &FileChecker{Label: "manage-script", Path: resolve(dir, f)}
		}
	}
	return nil
}

// FileChecker checks that a file exists.
type FileChecker struct {
	Label string
	Path  string
}

// Name returns the check name.
func (c *FileChecker) Name() string {
	return c.Label
}

// Check stats the file.
func (c *FileChecker) Check(context.Context) *Result {
	info, err := os.Stat(c.Path)
	if err != nil {
		return Unhealthy(fmt.Sprintf("%s not found", filepath.Base(c.Path))).
			WithDetail("path", c.Path).
			WithDetail("suggestion", "Run taskgate from the project directory or pass --dir")
	}
	if info.IsDir() {
		return Unhealthy(fmt.Sprintf("%s is a directory", c.Path))
	}
	return Healthy(fmt.Sprintf("%s exists", filepath.Base(c.Path))).WithDetail("path", c.Path)
}

type staticChecker struct {
	name   string
	result *Result
}

func (c staticChecker) Name() string { return c.name }
func (c staticChecker) Check(context.Context) *Result { return c.result }

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// parseGitVersion extracts the version from "git version X.Y.Z", dropping
// platform suffixes such as ".windows.1".
func parseGitVersion(output string) string {
	parts := strings.Fields(output)
	if len(parts) < 3 {
		return ""
	}

	version := parts[2]
	if version == "" || version[0] < '0' || version[0] > '9' {
		return ""
	}

	for _, suffix := range []string{".windows", ".darwin", ".linux"} {
		if idx := strings.Index(version, suffix); idx > 0 {
			version = version[:idx]
		}
	}
	return version
}

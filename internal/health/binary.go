package health

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// BinaryChecker checks that an executable resolves and, optionally, reports
// a recent enough version.
type BinaryChecker struct {
	// Label is the check name.
	Label string

	// Binary is looked up on PATH unless it contains a path separator.
	Binary string

	// VersionArgs are passed to Binary to print its version. Empty skips
	// running it.
	VersionArgs []string

	// ParseVersion extracts a dotted version from the version output.
	// Nil takes the first field that starts with a digit.
	ParseVersion func(output string) string

	// MinMajor is the lowest acceptable major version. Zero accepts any.
	MinMajor int

	// Optional binaries are degraded, not unhealthy, when missing.
	Optional bool

	// Suggestion is attached when the binary is missing.
	Suggestion string
}

// Name returns the check name.
func (c *BinaryChecker) Name() string {
	return c.Label
}

// Check resolves the binary and inspects its version.
func (c *BinaryChecker) Check(ctx context.Context) *Result {
	path, err := c.lookPath()
	if err != nil {
		missing := Unhealthy
		if c.Optional {
			missing = Degraded
		}
		r := missing(fmt.Sprintf("%s not found", c.Binary)).
			WithDetail("error", err.Error())
		if c.Suggestion != "" {
			r.WithDetail("suggestion", c.Suggestion)
		}
		return r
	}

	if len(c.VersionArgs) == 0 {
		return Healthy(fmt.Sprintf("%s is available", c.Binary)).
			WithDetail("path", path)
	}

	output, err := exec.CommandContext(ctx, path, c.VersionArgs...).CombinedOutput()
	if err != nil {
		return Degraded(fmt.Sprintf("%s found but '%s' failed", c.Binary, strings.Join(c.VersionArgs, " "))).
			WithDetail("path", path).
			WithDetail("error", err.Error()).
			WithDetail("output", strings.TrimSpace(string(output)))
	}

	parse := c.ParseVersion
	if parse == nil {
		parse = firstVersionField
	}
	version := parse(strings.TrimSpace(string(output)))
	if version == "" {
		return Degraded(fmt.Sprintf("%s installed but version cannot be parsed", c.Binary)).
			WithDetail("path", path).
			WithDetail("version_output", strings.TrimSpace(string(output)))
	}

	if c.MinMajor > 0 {
		if major, ok := majorVersion(version); ok && major < c.MinMajor {
			return Degraded(fmt.Sprintf("%s version is older than %d.0", c.Binary, c.MinMajor)).
				WithDetail("path", path).
				WithDetail("version", version).
				WithDetail("suggestion", fmt.Sprintf("Upgrade %s to version %d.0 or later", c.Binary, c.MinMajor))
		}
	}

	return Healthy(fmt.Sprintf("%s %s is installed", c.Binary, version)).
		WithDetail("path", path).
		WithDetail("version", version)
}

func (c *BinaryChecker) lookPath() (string, error) {
	if strings.ContainsRune(c.Binary, os.PathSeparator) {
		info, err := os.Stat(c.Binary)
		if err != nil {
			return "", err
		}
		if info.IsDir() || info.Mode()&0o111 == 0 {
			return "", fmt.Errorf("%s is not executable", c.Binary)
		}
		return c.Binary, nil
	}
	return exec.LookPath(c.Binary)
}

// firstVersionField returns the first whitespace-separated field that starts
// with a digit, e.g. "3.12.1" from "Python 3.12.1".
func firstVersionField(output string) string {
	for _, f := range strings.Fields(output) {
		f = strings.TrimPrefix(f, "v")
		if f != "" && f[0] >= '0' && f[0] <= '9' {
			return strings.TrimRight(f, ",")
		}
	}
	return ""
}

// majorVersion extracts the major number, e.g. 2 from "2.42.0".
func majorVersion(version string) (int, bool) {
	major, _, _ := strings.Cut(version, ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return 0, false
	}
	return n, true
}

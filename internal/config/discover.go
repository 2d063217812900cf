package config

import (
	"os"
	"path/filepath"
)

// Discover searches start and its parent directories for DefaultFileName.
// The search stops at the first directory containing .git, or at the
// filesystem root.
func Discover(start string) (string, bool) {
	dir := start
	for {
		path := filepath.Join(dir, DefaultFileName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}

		// Stop at git root
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", false
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

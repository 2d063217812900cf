package exec

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// ManifestWriter saves one JSON audit manifest per executed command. All
// manifests from one process share a run ID.
type ManifestWriter struct {
	Dir   string
	RunID string

	mu  sync.Mutex
	seq int
	now func() time.Time
}

// NewManifestWriter creates a writer for dir with a fresh run ID
func NewManifestWriter(dir string) *ManifestWriter {
	return &ManifestWriter{
		Dir:   dir,
		RunID: uuid.NewString(),
		now:   time.Now,
	}
}

// CreateManifest builds the manifest for a result without writing it
func (w *ManifestWriter) CreateManifest(result *Result, opts Options) *RunManifest {
	w.mu.Lock()
	w.seq++
	seq := w.seq
	w.mu.Unlock()

	now := time.Now
	if w.now != nil {
		now = w.now
	}

	return &RunManifest{
		RunID:       w.RunID,
		Sequence:    seq,
		Timestamp:   now().UTC(),
		Task:        opts.Task,
		Step:        opts.Step,
		Command:     string(result.Command),
		Fingerprint: Fingerprint(result.Command),
		ExitCode:    result.ExitCode,
		Duration:    result.Duration.String(),
		WarnOnly:    opts.WarnOnly,
		Captured:    result.Captured,
		DryRun:      result.DryRun,
	}
}

// Write creates the manifest for result and saves it under Dir
func (w *ManifestWriter) Write(result *Result, opts Options) error {
	manifest := w.CreateManifest(result, opts)

	if err := os.MkdirAll(w.Dir, 0750); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%03d_%s.json",
		manifest.Timestamp.Format("20060102_150405"),
		manifest.Sequence,
		sanitize(manifest.Task+"-"+manifest.Step))
	path := filepath.Join(w.Dir, filename)

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// Fingerprint returns the blake3 digest of a command line, so identical
// commands can be grouped across runs.
func Fingerprint(cmd Command) string {
	sum := blake3.Sum256([]byte(cmd))
	return hex.EncodeToString(sum[:])
}

func sanitize(s string) string {
	s = strings.Trim(s, "-")
	if s == "" {
		return "command"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

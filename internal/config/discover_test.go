package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o750))
	nested := filepath.Join(root, "mysite", "apps")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	_, found := Discover(nested)
	assert.False(t, found)

	path := writeConfig(t, root, "settings: {}\n")

	got, found := Discover(nested)
	assert.True(t, found)
	assert.Equal(t, path, got)
}

func TestDiscoverStopsAtGitRoot(t *testing.T) {
	outer := t.TempDir()
	writeConfig(t, outer, "settings: {}\n")

	repo := filepath.Join(outer, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o750))

	_, found := Discover(repo)
	assert.False(t, found)
}

func TestLoadUsesDiscoveredFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o750))
	path := writeConfig(t, root, "settings:\n  run: ./manage.py\n")

	sub := filepath.Join(root, "src")
	require.NoError(t, os.Mkdir(sub, 0o750))

	cfg, err := Load(Options{Dir: sub})
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, sub, cfg.Dir)
	run, _ := cfg.Settings.Get("run")
	assert.Equal(t, "./manage.py", run)
}

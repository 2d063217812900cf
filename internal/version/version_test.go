package version

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfo(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = "1.0.0", "abc123def456", "2026-01-01T12:00:00Z"
	defer func() {
		Version, Commit, Date = origVersion, origCommit, origDate
	}()

	info := GetInfo()

	assert.Equal(t, "1.0.0", info.Version)
	assert.Equal(t, "abc123def456", info.Commit)
	assert.Equal(t, "2026-01-01T12:00:00Z", info.Date)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestWithBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-10-01T08:00:00Z"},
		},
	}

	t.Run("fills defaults", func(t *testing.T) {
		info := Info{Version: "dev", Commit: "unknown", Date: "unknown"}.withBuildInfo(bi)
		assert.Equal(t, "v0.3.0", info.Version)
		assert.Equal(t, "0123456789abcdef", info.Commit)
		assert.Equal(t, "2026-10-01T08:00:00Z", info.Date)
	})

	t.Run("ldflags win", func(t *testing.T) {
		info := Info{Version: "1.2.3", Commit: "feedface", Date: "2026-01-01"}.withBuildInfo(bi)
		assert.Equal(t, "1.2.3", info.Version)
		assert.Equal(t, "feedface", info.Commit)
		assert.Equal(t, "2026-01-01", info.Date)
	})

	t.Run("devel main module", func(t *testing.T) {
		info := Info{Version: "dev"}.withBuildInfo(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
		assert.Equal(t, "dev", info.Version)
	})
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want []string
	}{
		{
			name: "full version info",
			info: Info{
				Version:   "1.0.0",
				Commit:    "abc123def456",
				Date:      "2026-01-01T12:00:00Z",
				GoVersion: "go1.24.0",
				Platform:  "linux/amd64",
			},
			want: []string{"taskgate 1.0.0", "(abc123de)", "built 2026-01-01T12:00:00Z", "with go1.24.0", "for linux/amd64"},
		},
		{
			name: "short commit hash",
			info: Info{Version: "1.0.0", Commit: "abc123", Platform: "darwin/arm64"},
			want: []string{"(abc123)", "darwin/arm64"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.info.String()
			for _, substr := range tt.want {
				assert.Contains(t, got, substr)
			}
		})
	}
}

func TestInfoShort(t *testing.T) {
	assert.Equal(t, "1.0.0-rc1", Info{Version: "1.0.0-rc1"}.Short())
	assert.Equal(t, "dev", Info{Version: "dev"}.Short())
}

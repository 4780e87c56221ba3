package version

import (
	"runtime/debug"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withBuildInfo(t *testing.T, info *debug.BuildInfo) {
	t.Helper()

	prev := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
	t.Cleanup(func() { readBuildInfo = prev })
}

func withVars(t *testing.T, version, commit, built string) {
	t.Helper()

	pv, pc, pb := Version, GitCommit, BuildTime
	Version, GitCommit, BuildTime = version, commit, built
	t.Cleanup(func() { Version, GitCommit, BuildTime = pv, pc, pb })
}

func TestGetVersion(t *testing.T) {
	t.Run("ldflags win", func(t *testing.T) {
		withVars(t, "v1.2.3", "abcdef1234", "2026-01-02T03:04:05Z")
		withBuildInfo(t, nil)

		assert.Equal(t, "v1.2.3", GetVersion())
		assert.Equal(t, "v1.2.3 (abcdef1)", GetShortVersion())
		assert.True(t, IsRelease())
	})

	t.Run("module version", func(t *testing.T) {
		withVars(t, "dev", "unknown", "unknown")
		withBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "v0.4.0"}})

		assert.Equal(t, "v0.4.0", GetVersion())
	})

	t.Run("vcs revision", func(t *testing.T) {
		withVars(t, "dev", "unknown", "unknown")
		withBuildInfo(t, &debug.BuildInfo{
			Main: debug.Module{Version: "(devel)"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef"},
				{Key: "vcs.modified", Value: "true"},
			},
		})

		assert.Equal(t, "dev-0123456", GetVersion())
		assert.Equal(t, "0123456789abcdef", GetGitCommit())
		assert.Equal(t, "dev-0123456", GetShortVersion())
		assert.True(t, IsDirty())
		assert.False(t, IsRelease())
		assert.Contains(t, GetDetailedVersion(), "Commit: 0123456789abcdef (dirty)")
	})

	t.Run("nothing known", func(t *testing.T) {
		withVars(t, "dev", "unknown", "unknown")
		withBuildInfo(t, nil)

		assert.Equal(t, "dev", GetVersion())
		assert.Equal(t, "unknown", GetGitCommit())
		assert.False(t, IsDirty())
		assert.NotContains(t, GetDetailedVersion(), "Commit:")
	})
}

func TestParseISOTime(t *testing.T) {
	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.True(t, want.Equal(parseISOTime("2026-01-02T03:04:05Z")))
	assert.True(t, want.Equal(parseISOTime("2026-01-02 03:04:05")))
	assert.True(t, parseISOTime("unknown").IsZero())
	assert.True(t, parseISOTime("yesterday").IsZero())
}

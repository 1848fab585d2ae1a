package deps_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vibe2apk/internal/deps"
)

func TestCheckBinariesFindsShellOnPath(t *testing.T) {
	statuses := deps.CheckBinaries([]deps.Requirement{
		{Name: "sh", Command: "sh", Description: "POSIX shell"},
	})
	require.Len(t, statuses, 1)
	require.True(t, statuses[0].Available)
}

func TestCheckBinariesReportsMissingCommand(t *testing.T) {
	statuses := deps.CheckBinaries([]deps.Requirement{
		{Name: "nonexistent", Command: "vibe2apk-definitely-not-a-real-binary", Optional: true},
	})
	require.Len(t, statuses, 1)
	require.False(t, statuses[0].Available)
	require.True(t, statuses[0].Optional)
	require.Contains(t, statuses[0].Detail, "not found")
}

func TestCheckBinariesReportsUnconfiguredCommand(t *testing.T) {
	statuses := deps.CheckBinaries([]deps.Requirement{
		{Name: "unset", Command: ""},
	})
	require.False(t, statuses[0].Available)
	require.Equal(t, "command not configured", statuses[0].Detail)
}

func TestResolveAndroidSDKRootHonorsEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ANDROID_HOME", dir)
	t.Setenv("ANDROID_SDK_ROOT", "")

	root, err := deps.ResolveAndroidSDKRoot()
	require.NoError(t, err)
	require.Equal(t, dir, root)
}

func TestResolveAndroidSDKRootFailsWhenNothingMatches(t *testing.T) {
	t.Setenv("ANDROID_HOME", "")
	t.Setenv("ANDROID_SDK_ROOT", "")
	t.Setenv("HOME", t.TempDir())

	_, err := deps.ResolveAndroidSDKRoot()
	require.Error(t, err)
}

func TestResolveJavaHomeRequiresJavaBinary(t *testing.T) {
	t.Setenv("JAVA_HOME", t.TempDir())
	_, ok := deps.ResolveJavaHome()
	require.False(t, ok)
}

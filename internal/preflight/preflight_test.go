package preflight_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vibe2apk/internal/config"
	"vibe2apk/internal/preflight"
)

func TestCheckDirectoryAccessOK(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckDirectoryAccess("test", dir)
	require.True(t, result.Passed, result.Detail)
}

func TestCheckDirectoryAccessNotExist(t *testing.T) {
	result := preflight.CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	require.False(t, result.Passed)
	require.NotEmpty(t, result.Detail)
}

func TestCheckDirectoryAccessNotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))
	result := preflight.CheckDirectoryAccess("test", f)
	require.False(t, result.Passed)
}

func TestCheckAndroidSDKFailsWithoutEnv(t *testing.T) {
	t.Setenv("ANDROID_HOME", "")
	t.Setenv("ANDROID_SDK_ROOT", "")
	t.Setenv("HOME", t.TempDir())

	result := preflight.CheckAndroidSDK()
	require.False(t, result.Passed)
}

func TestCheckAndroidSDKPassesWithEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ANDROID_HOME", dir)

	result := preflight.CheckAndroidSDK()
	require.True(t, result.Passed)
	require.Equal(t, dir, result.Detail)
}

func TestRunAllNilConfig(t *testing.T) {
	results := preflight.RunAll(context.Background(), nil)
	require.Nil(t, results)
}

func TestRunAllReportsDirectoriesAndToolchain(t *testing.T) {
	cfg := config.Default()
	cfg.BuildsDir = t.TempDir()
	cfg.UploadsDir = t.TempDir()

	results := preflight.RunAll(context.Background(), &cfg)
	names := make(map[string]bool)
	for _, r := range results {
		names[r.Name] = true
	}
	require.True(t, names["Builds directory"])
	require.True(t, names["Uploads directory"])
	require.True(t, names["Android SDK"])
	require.True(t, names["Java"])
	// Exactly one Java result: CheckBinaries' raw entry is superseded by CheckJava.
	count := 0
	for _, r := range results {
		if r.Name == "Java" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

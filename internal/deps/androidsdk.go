package deps

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ResolveAndroidSDKRoot finds the Android SDK installation, checking the
// environment variables the SDK tooling itself recognizes before falling
// back to the common per-OS install locations, per spec: "Resolve Android
// SDK root from a candidate list (environment variable overrides; common
// OS-specific locations). Fail fast with a clear error if not found."
func ResolveAndroidSDKRoot() (string, error) {
	for _, env := range []string{"ANDROID_HOME", "ANDROID_SDK_ROOT"} {
		if v := os.Getenv(env); v != "" {
			if info, err := os.Stat(v); err == nil && info.IsDir() {
				return v, nil
			}
		}
	}

	home, _ := os.UserHomeDir()
	for _, candidate := range defaultSDKCandidates(home) {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("android sdk not found: set ANDROID_HOME or install the SDK at one of the default locations")
}

func defaultSDKCandidates(home string) []string {
	if home == "" {
		home = os.TempDir()
	}
	switch runtime.GOOS {
	case "darwin":
		return []string{
			filepath.Join(home, "Library", "Android", "sdk"),
			"/usr/local/share/android-sdk",
		}
	case "windows":
		return []string{
			filepath.Join(home, "AppData", "Local", "Android", "Sdk"),
		}
	default:
		return []string{
			filepath.Join(home, "Android", "Sdk"),
			filepath.Join(home, "android-sdk"),
			"/usr/lib/android-sdk",
			"/opt/android-sdk",
		}
	}
}

// ResolveJavaHome finds a usable JDK, preferring JAVA_HOME when set and
// falling back to whatever "java" resolves to on PATH via the caller's own
// exec.LookPath check (CheckBinaries handles that half); this only covers
// the JAVA_HOME-specific candidate.
func ResolveJavaHome() (string, bool) {
	home := os.Getenv("JAVA_HOME")
	if home == "" {
		return "", false
	}
	javaBin := "java"
	if runtime.GOOS == "windows" {
		javaBin = "java.exe"
	}
	if info, err := os.Stat(filepath.Join(home, "bin", javaBin)); err == nil && !info.IsDir() {
		return home, true
	}
	return "", false
}

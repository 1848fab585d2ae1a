package pipeline

import (
	"time"

	"vibe2apk/internal/projecttype"
	"vibe2apk/internal/queue"
	"vibe2apk/internal/toolexec"
)

// StubCommandOnPath overrides commandOnPath for the duration of a test,
// returning a restore func.
func StubCommandOnPath(fn func(name string) bool) func() {
	prev := commandOnPath
	commandOnPath = fn
	return func() { commandOnPath = prev }
}

// ExtractZipArchive exposes extractZipArchive for external _test packages.
func ExtractZipArchive(zipPath, destDir string) error {
	return extractZipArchive(zipPath, destDir)
}

// LocateProjectRoot exposes locateProjectRoot for external _test packages.
func LocateProjectRoot(root string) (string, error) {
	return locateProjectRoot(root)
}

// InstallCommand exposes installCommand for external _test packages.
func InstallCommand(pm projecttype.PackageManager, dir string, timeout time.Duration) toolexec.Command {
	return installCommand(pm, dir, timeout)
}

// BuildCommand exposes buildCommand for external _test packages.
func BuildCommand(pm projecttype.PackageManager, dir string) toolexec.Command {
	return buildCommand(pm, dir)
}

// VerifyOutputDir exposes verifyOutputDir for external _test packages.
func VerifyOutputDir(dir string) error {
	return verifyOutputDir(dir)
}

// WriteWebManifest exposes writeWebManifest for external _test packages.
func WriteWebManifest(outputDir, manifestPath string, task *queue.Task) error {
	return writeWebManifest(outputDir, manifestPath, task)
}

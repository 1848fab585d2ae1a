package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"vibe2apk/internal/deps"
	"vibe2apk/internal/fileutil"
	"vibe2apk/internal/storage"
	"vibe2apk/internal/toolexec"
)

// Environment is the resolved Android toolchain layout every build in a
// worker process shares: SDK root plus the derived platform-tools and
// cmdline-tools paths that must be exposed to child processes.
type Environment struct {
	AndroidSDKRoot  string
	PlatformTools   string
	CmdlineToolsBin string
	JavaHome        string
}

// ResolveEnvironment implements spec.md §4.5.1's first two preconditions:
// locate the Android SDK, then compute the paths that must be exposed to
// every subprocess this build spawns.
func ResolveEnvironment() (Environment, error) {
	sdkRoot, err := deps.ResolveAndroidSDKRoot()
	if err != nil {
		return Environment{}, fmt.Errorf("resolving android sdk: %w", err)
	}
	javaHome, _ := deps.ResolveJavaHome()

	return Environment{
		AndroidSDKRoot:  sdkRoot,
		PlatformTools:   filepath.Join(sdkRoot, "platform-tools"),
		CmdlineToolsBin: filepath.Join(sdkRoot, "cmdline-tools", "latest", "bin"),
		JavaHome:        javaHome,
	}, nil
}

// ProcessEnv returns the additional KEY=VALUE pairs every external command
// in this build needs on top of the current process environment, exposing
// the resolved SDK layout the way an interactive Android developer's shell
// profile would.
func (e Environment) ProcessEnv() []string {
	env := []string{
		"ANDROID_HOME=" + e.AndroidSDKRoot,
		"ANDROID_SDK_ROOT=" + e.AndroidSDKRoot,
	}
	pathVar := e.PlatformTools + string(os.PathListSeparator) + e.CmdlineToolsBin + string(os.PathListSeparator) + os.Getenv("PATH")
	env = append(env, "PATH="+pathVar)
	if e.JavaHome != "" {
		env = append(env, "JAVA_HOME="+e.JavaHome)
	}
	return env
}

// PrepareWorkspace implements spec.md §4.5.1's remaining precondition:
// create a clean workspace directory for taskID under buildsRoot, removing
// any prior directory left behind by a crashed previous attempt. The task
// id, not the (possibly duplicated, possibly unsafe) app name, is what
// storage.WorkspaceDir keys on, so two tasks for apps named identically
// never collide.
func PrepareWorkspace(buildsRoot, taskID string) (string, error) {
	workspace := storage.WorkspaceDir(buildsRoot, taskID)

	if err := os.RemoveAll(workspace); err != nil {
		return "", fmt.Errorf("clearing prior workspace %s: %w", workspace, err)
	}
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return "", fmt.Errorf("creating workspace %s: %w", workspace, err)
	}
	return workspace, nil
}

// GradleCacheRoot is where a downloaded-and-unzipped pinned Gradle
// distribution is cached across builds, per spec.md §4.5.6
// ("~/.gradle/gradle-dist/gradle-<version>/").
func GradleCacheRoot() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.TempDir()
	}
	return filepath.Join(home, ".gradle", "gradle-dist")
}

// commandOnPath reports whether name resolves on PATH. It is a var so
// tests can stub it, matching the seam-via-package-variable pattern used
// by internal/projecttype's commandExists.
var commandOnPath = func(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// envRunner decorates a Runner, prepending a fixed set of KEY=VALUE pairs
// (typically Environment.ProcessEnv()) onto every command's own Env, so
// clients like androidshell.Client and gradlewrap that build their own
// toolexec.Command values still see the resolved Android SDK layout.
type envRunner struct {
	inner toolexec.Runner
	env   []string
}

func (r envRunner) Run(ctx context.Context, cmd toolexec.Command) (toolexec.Result, error) {
	merged := make([]string, 0, len(r.env)+len(cmd.Env))
	merged = append(merged, r.env...)
	merged = append(merged, cmd.Env...)
	cmd.Env = merged
	return r.inner.Run(ctx, cmd)
}

// copyArtifact copies src to dst, creating dst's parent directory first and
// verifying the copy's size and checksum against the source, per spec.md
// §4.5.9's "copy the built APK to storage; verify size equals source".
func copyArtifact(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating artifact parent dir: %w", err)
	}
	return fileutil.CopyFileVerified(src, dst)
}

package gradlewrap

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"vibe2apk/internal/toolexec"
)

// PinnedVersion is the Gradle distribution vibe2apk generates wrappers
// against, chosen for Android Gradle Plugin compatibility.
const PinnedVersion = "8.7"

const distributionURLTemplate = "https://services.gradle.org/distributions/gradle-%s-bin.zip"

// DistributionURL is the pinned Gradle distribution's download URL. It is
// a var so tests can point it at a local fixture server.
var DistributionURL = func() string {
	return fmt.Sprintf(distributionURLTemplate, PinnedVersion)
}

func wrapperScriptName() string {
	if runtime.GOOS == "windows" {
		return "gradlew.bat"
	}
	return "gradlew"
}

// EnsureWrapper makes sure projectDir has an executable Gradle wrapper,
// generating one if absent. It prefers a system Gradle already on PATH;
// otherwise it downloads and caches the pinned distribution under
// cacheRoot (typically ~/.gradle/gradle-dist). version and distURL default
// to PinnedVersion/DistributionURL() when empty, letting a caller override
// both from Config.GradleVersion/GradleDistURL.
func EnsureWrapper(ctx context.Context, runner toolexec.Runner, projectDir, cacheRoot, version, distURL string) error {
	if version == "" {
		version = PinnedVersion
	}
	if distURL == "" {
		distURL = DistributionURL()
	}

	wrapperPath := filepath.Join(projectDir, wrapperScriptName())
	if _, err := os.Stat(wrapperPath); err == nil {
		return os.Chmod(wrapperPath, 0o755)
	}

	gradleBin, err := resolveGradleBinary(ctx, cacheRoot)
	if err != nil {
		return err
	}

	result, err := runner.Run(ctx, toolexec.Command{
		Argv: []string{gradleBin, "wrapper", "--gradle-version", version, "--distribution-url", distURL},
		Dir:  projectDir,
	})
	if err != nil {
		return fmt.Errorf("generating gradle wrapper: %w", err)
	}
	if !result.Success() {
		return fmt.Errorf("gradle wrapper generation exited %d: %s", result.ExitCode, result.Stderr)
	}

	return os.Chmod(wrapperPath, 0o755)
}

// resolveGradleBinary returns a system `gradle` on PATH if present,
// otherwise ensures the pinned distribution is downloaded and unzipped
// under cacheRoot and returns its bin/gradle path.
func resolveGradleBinary(ctx context.Context, cacheRoot string) (string, error) {
	if path, err := exec.LookPath("gradle"); err == nil {
		return path, nil
	}
	return ensureCachedDistribution(ctx, cacheRoot)
}

func ensureCachedDistribution(ctx context.Context, cacheRoot string) (string, error) {
	distDir := filepath.Join(cacheRoot, fmt.Sprintf("gradle-%s", PinnedVersion))
	binName := "gradle"
	if runtime.GOOS == "windows" {
		binName = "gradle.bat"
	}
	gradleBin := filepath.Join(distDir, "bin", binName)

	if _, err := os.Stat(gradleBin); err == nil {
		return gradleBin, nil
	}

	if err := os.MkdirAll(cacheRoot, 0o755); err != nil {
		return "", fmt.Errorf("creating gradle cache dir: %w", err)
	}

	zipPath := filepath.Join(cacheRoot, fmt.Sprintf("gradle-%s-bin.zip", PinnedVersion))
	if err := downloadFile(ctx, DistributionURL(), zipPath); err != nil {
		return "", fmt.Errorf("downloading gradle %s: %w", PinnedVersion, err)
	}
	defer os.Remove(zipPath)

	if err := unzip(zipPath, cacheRoot); err != nil {
		return "", fmt.Errorf("unpacking gradle %s: %w", PinnedVersion, err)
	}

	if _, err := os.Stat(gradleBin); err != nil {
		return "", fmt.Errorf("gradle binary missing after unpack: %s", gradleBin)
	}
	if err := os.Chmod(gradleBin, 0o755); err != nil {
		return "", err
	}
	return gradleBin, nil
}

func downloadFile(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}

func unzip(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		target := filepath.Join(destDir, f.Name)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, f.Mode()); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := extractZipFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractZipFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// defaultHeartbeatInterval and defaultHeartbeatMaxTicks match the spec
// defaults (5s interval, 10 ticks max); Build's caller normally overrides
// these from Config.HeartbeatTick/HeartbeatMax instead.
const (
	defaultHeartbeatInterval = 5 * time.Second
	defaultHeartbeatMaxTicks = 10
)

// Build runs `./gradlew assembleDebug --no-daemon` with the JVM heap
// capped at 1 GB, matching the container-friendly resource limit from
// spec.md §4.5.6. report, if non-nil, receives synthetic progress ticks
// climbing from start toward end while the build is in flight, spaced by
// heartbeatInterval and capped at heartbeatMaxTicks (zero values fall back
// to the spec defaults).
func Build(ctx context.Context, runner toolexec.Runner, projectDir string, start, end int, heartbeatInterval time.Duration, heartbeatMaxTicks int, report toolexec.ProgressFunc) (toolexec.Result, error) {
	if heartbeatInterval <= 0 {
		heartbeatInterval = defaultHeartbeatInterval
	}
	if heartbeatMaxTicks <= 0 {
		heartbeatMaxTicks = defaultHeartbeatMaxTicks
	}
	cmd := toolexec.Command{
		Argv: []string{"./" + wrapperScriptName(), "assembleDebug", "--no-daemon"},
		Dir:  projectDir,
		Env:  []string{"GRADLE_OPTS=-Xmx1024m"},
	}
	hr := toolexec.NewHeartbeatRunner(runner, heartbeatInterval, heartbeatMaxTicks)
	return hr.RunWithHeartbeat(ctx, cmd, start, end, "Running Android debug build", report)
}

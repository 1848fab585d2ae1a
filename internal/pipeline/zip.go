package pipeline

import (
	"archive/zip"
	"context"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"vibe2apk/internal/androidwrapper"
	"vibe2apk/internal/apperrors"
	"vibe2apk/internal/config"
	"vibe2apk/internal/gradlewrap"
	"vibe2apk/internal/icon"
	"vibe2apk/internal/projecttype"
	"vibe2apk/internal/queue"
	"vibe2apk/internal/repair"
	"vibe2apk/internal/stage"
	"vibe2apk/internal/storage"
	"vibe2apk/internal/toolexec"
)

const zipStageName = "zip"

// ZipHandler runs the zip-kind build pipeline (spec.md §4.5.3): extract an
// uploaded front-end project, install and build it with its own tooling,
// wrap the built static output in a Trusted-Web-Activity-style Android
// project, and produce a debug APK via Gradle.
type ZipHandler struct {
	Config *config.Config
	Runner toolexec.Runner
}

// NewZipHandler constructs a ZipHandler.
func NewZipHandler(cfg *config.Config, runner toolexec.Runner) *ZipHandler {
	return &ZipHandler{Config: cfg, Runner: runner}
}

// Prepare validates that the task's upload still exists and looks like a
// zip archive.
func (z *ZipHandler) Prepare(_ context.Context, task *queue.Task) error {
	info, err := os.Stat(task.UploadPath)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrValidation, zipStageName, "prepare", "upload file missing", err)
	}
	if info.IsDir() {
		return apperrors.Wrap(apperrors.ErrValidation, zipStageName, "prepare", "upload path is a directory, expected a zip archive", nil)
	}
	return nil
}

// HealthCheck reports whether the zip pipeline's toolchain looks usable.
func (z *ZipHandler) HealthCheck(_ context.Context) stage.Health {
	if _, err := ResolveEnvironment(); err != nil {
		return stage.Unhealthy(zipStageName, err.Error())
	}
	if !commandOnPath("npm") {
		return stage.Unhealthy(zipStageName, "npm not found on PATH")
	}
	return stage.Healthy(zipStageName)
}

// Execute runs the full zip pipeline for task, reporting progress on the
// spec's declared percent schedule.
func (z *ZipHandler) Execute(ctx context.Context, task *queue.Task, report stage.Report) (queue.Result, error) {
	start := time.Now()

	if z.Config.MockBuild {
		return z.mockBuild(task, start)
	}

	report(5, "Checking environment")
	env, err := ResolveEnvironment()
	if err != nil {
		return stageFailure(apperrors.ErrEnvironment, zipStageName, "resolve environment", err)
	}
	runner := envRunner{inner: z.Runner, env: env.ProcessEnv()}

	workspace, err := PrepareWorkspace(z.Config.BuildsDir, task.ID)
	if err != nil {
		return stageFailure(apperrors.ErrEnvironment, zipStageName, "prepare workspace", err)
	}

	report(10, "Extracting archive")
	extractDir := filepath.Join(workspace, "extracted")
	if err := extractZipArchive(task.UploadPath, extractDir); err != nil {
		return stageFailure(apperrors.ErrValidation, zipStageName, "extract archive", err)
	}

	report(15, "Locating project root")
	projectDir, err := locateProjectRoot(extractDir)
	if err != nil {
		return stageFailure(apperrors.ErrValidation, zipStageName, "locate project root", err)
	}

	report(18, "Detecting project type and package manager")
	detection := projecttype.Detect(projectDir)

	if detection.Type == projecttype.TypeFrameworkStatic && detection.ConfigFile != "" {
		report(20, "Writing static-export configuration")
		if _, err := repair.WriteNextStaticExport(detection.ConfigFile); err != nil {
			return stageFailure(apperrors.ErrToolchain, zipStageName, "write static export config", err)
		}
	}

	if detection.Type == projecttype.TypeBundler && detection.ConfigFile != "" {
		report(22, "Running front-end auto-repair")
		if _, err := repair.Repair(projectDir, detection); err != nil {
			return stageFailure(apperrors.ErrToolchain, zipStageName, "auto-repair project", err)
		}
	}

	report(25, "Installing project dependencies")
	installRes, err := runner.Run(ctx, installCommand(detection.PackageManager, projectDir, z.Config.InstallTimeout))
	if err := requireSuccess(zipStageName, "install dependencies", installRes, err); err != nil {
		return stageFailure(apperrors.ErrToolchain, zipStageName, "install dependencies", err)
	}

	report(40, "Building project")
	buildCmd := buildCommand(detection.PackageManager, projectDir)
	buildRes, err := toolexec.NewHeartbeatRunner(runner, z.Config.HeartbeatTick, z.Config.HeartbeatMax).
		RunWithHeartbeat(ctx, buildCmd, 40, 53, "Building front-end project", toolexec.ProgressFunc(report))
	if err := requireSuccess(zipStageName, "run project build", buildRes, err); err != nil {
		return stageFailure(apperrors.ErrToolchain, zipStageName, "run project build", err)
	}

	report(55, "Verifying build output")
	outputDir := filepath.Join(projectDir, detection.OutputDir)
	if err := verifyOutputDir(outputDir); err != nil {
		return stageFailure(apperrors.ErrToolchain, zipStageName, "verify build output", err)
	}

	manifestPath := filepath.Join(outputDir, "manifest.webmanifest")
	if err := writeWebManifest(outputDir, manifestPath, task); err != nil {
		return stageFailure(apperrors.ErrToolchain, zipStageName, "write web manifest", err)
	}

	twaDir := filepath.Join(workspace, "twa")
	wrapper := androidwrapper.NewClient(runner, outputDir, twaDir)

	report(60, "Installing native-wrapper tooling")
	installToolingRes, err := wrapper.InstallTooling(ctx)
	if err := requireSuccess(zipStageName, "install wrapper tooling", installToolingRes, err); err != nil {
		return stageFailure(apperrors.ErrToolchain, zipStageName, "install wrapper tooling", err)
	}

	report(65, "Adding Android platform")
	addPlatformRes, err := wrapper.AddPlatform(ctx, manifestPath)
	if err := requireSuccess(zipStageName, "add android platform", addPlatformRes, err); err != nil {
		return stageFailure(apperrors.ErrToolchain, zipStageName, "add android platform", err)
	}

	report(70, "Syncing resources")
	syncRes, err := wrapper.SyncResources(ctx)
	if err := requireSuccess(zipStageName, "sync resources", syncRes, err); err != nil {
		return stageFailure(apperrors.ErrToolchain, zipStageName, "sync resources", err)
	}

	report(75, "Injecting app icon")
	if err := wrapper.InjectIcon(task.IconPath); err != nil {
		return stageFailure(apperrors.ErrToolchain, zipStageName, "inject icon", err)
	}

	report(80, "Ensuring Gradle wrapper is present")
	if err := gradlewrap.EnsureWrapper(ctx, runner, twaDir, GradleCacheRoot(), z.Config.GradleVersion, z.Config.GradleDistURL); err != nil {
		return stageFailure(apperrors.ErrToolchain, zipStageName, "ensure gradle wrapper", err)
	}

	gradleRes, err := gradlewrap.Build(ctx, runner, twaDir, 80, 93, z.Config.HeartbeatTick, z.Config.HeartbeatMax, toolexec.ProgressFunc(report))
	if err := requireSuccess(zipStageName, "gradle assembleDebug", gradleRes, err); err != nil {
		return stageFailure(apperrors.ErrToolchain, zipStageName, "gradle build", err)
	}

	report(95, "Copying output artifact")
	artifactPath := storage.ArtifactPath(z.Config.BuildsDir, task.AppName, task.ID)
	if err := copyArtifact(wrapper.DebugAPKPath(), artifactPath); err != nil {
		return stageFailure(apperrors.ErrToolchain, zipStageName, "copy artifact", err)
	}

	report(100, "Done")
	return queue.Result{
		Success:      true,
		ArtifactPath: artifactPath,
		DurationMS:   time.Since(start).Milliseconds(),
	}, nil
}

func (z *ZipHandler) mockBuild(task *queue.Task, start time.Time) (queue.Result, error) {
	artifactPath := storage.ArtifactPath(z.Config.BuildsDir, task.AppName, task.ID)
	if err := os.MkdirAll(filepath.Dir(artifactPath), 0o755); err != nil {
		return stageFailure(apperrors.ErrEnvironment, zipStageName, "mock build", err)
	}
	if err := os.WriteFile(artifactPath, []byte("mock apk"), 0o644); err != nil {
		return stageFailure(apperrors.ErrEnvironment, zipStageName, "mock build", err)
	}
	return queue.Result{
		Success:      true,
		ArtifactPath: artifactPath,
		DurationMS:   time.Since(start).Milliseconds(),
	}, nil
}

// extractZipArchive unpacks a zip archive into destDir, rejecting entries
// that would escape destDir (a defensive check the corpus's own zip-using
// code doesn't need since it only unpacks trusted Gradle distributions,
// but this archive is user-uploaded).
func extractZipArchive(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		target := filepath.Join(destDir, f.Name)
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) && target != filepath.Clean(destDir) {
			return fmt.Errorf("archive entry %q escapes extraction root", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := extractZipEntry(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// locateProjectRoot finds the directory within an extracted archive that
// holds package.json, per spec.md §4.5.3's "locate project root (entry
// containing a manifest file); fail if none". Uploads commonly wrap the
// project in a single top-level folder.
func locateProjectRoot(root string) (string, error) {
	if _, err := os.Stat(filepath.Join(root, "package.json")); err == nil {
		return root, nil
	}

	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || found != "" {
			return nil
		}
		if d.IsDir() {
			if d.Name() == "node_modules" || d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == "package.json" {
			found = filepath.Dir(path)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("no package.json found in uploaded archive")
	}
	return found, nil
}

func installCommand(pm projecttype.PackageManager, dir string, timeout time.Duration) toolexec.Command {
	argv := map[projecttype.PackageManager][]string{
		projecttype.PackageManagerPNPM: {"pnpm", "install"},
		projecttype.PackageManagerYarn: {"yarn", "install"},
		projecttype.PackageManagerNPM:  {"npm", "install"},
	}[pm]
	if argv == nil {
		argv = []string{"npm", "install"}
	}
	return toolexec.Command{
		Argv:    argv,
		Dir:     dir,
		Env:     []string{"NODE_ENV=development"},
		Timeout: timeout,
	}
}

func buildCommand(pm projecttype.PackageManager, dir string) toolexec.Command {
	argv := map[projecttype.PackageManager][]string{
		projecttype.PackageManagerPNPM: {"pnpm", "run", "build"},
		projecttype.PackageManagerYarn: {"yarn", "build"},
		projecttype.PackageManagerNPM:  {"npm", "run", "build"},
	}[pm]
	if argv == nil {
		argv = []string{"npm", "run", "build"}
	}
	return toolexec.Command{Argv: argv, Dir: dir}
}

func verifyOutputDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("build output directory %s: %w", dir, err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("build output directory %s is empty", dir)
	}
	return nil
}

// writeWebManifest writes a minimal web app manifest for the wrapper CLI's
// --manifest argument, rendering the task's icon (custom or bundled
// default) alongside it at a fixed relative path the manifest references.
func writeWebManifest(outputDir, manifestPath string, task *queue.Task) error {
	img, err := loadWrapperIcon(task.IconPath)
	if err != nil {
		return err
	}
	iconData, err := icon.RenderPNG(img, 512)
	if err != nil {
		return err
	}
	iconName := "vibe2apk-icon-512.png"
	if err := os.WriteFile(filepath.Join(outputDir, iconName), iconData, 0o644); err != nil {
		return err
	}

	manifest := map[string]any{
		"name":             task.AppName,
		"short_name":       task.AppName,
		"start_url":        "./index.html",
		"display":          "standalone",
		"background_color": "#ffffff",
		"theme_color":      "#2e86ab",
		"icons": []map[string]any{
			{"src": iconName, "sizes": "512x512", "type": "image/png"},
		},
	}
	data, err := sonic.Marshal(manifest)
	if err != nil {
		return err
	}
	return os.WriteFile(manifestPath, data, 0o644)
}

func loadWrapperIcon(sourcePath string) (image.Image, error) {
	if sourcePath == "" {
		return icon.Default()
	}
	return icon.LoadSource(sourcePath)
}

package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"vibe2apk/internal/androidshell"
	"vibe2apk/internal/apperrors"
	"vibe2apk/internal/config"
	"vibe2apk/internal/gradlewrap"
	"vibe2apk/internal/offlineify"
	"vibe2apk/internal/queue"
	"vibe2apk/internal/stage"
	"vibe2apk/internal/storage"
	"vibe2apk/internal/toolexec"
)

const htmlStageName = "html"

// HTMLHandler runs the html-kind build pipeline (spec.md §4.5.2): wrap a
// single HTML document in a Cordova-style mobile-app shell, optionally
// running it through the offlineify sub-pipeline first, then produce a
// debug APK via Gradle.
type HTMLHandler struct {
	Config     *config.Config
	Runner     toolexec.Runner
	HTTPClient *http.Client
}

// NewHTMLHandler constructs an HTMLHandler. httpClient is used only by the
// offlineify sub-pipeline's vendor-asset fetch.
func NewHTMLHandler(cfg *config.Config, runner toolexec.Runner, httpClient *http.Client) *HTMLHandler {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTMLHandler{Config: cfg, Runner: runner, HTTPClient: httpClient}
}

// Prepare validates that the task's upload still exists and is the html
// document Prepare expects; the worker pool calls this before Execute.
func (h *HTMLHandler) Prepare(_ context.Context, task *queue.Task) error {
	info, err := os.Stat(task.UploadPath)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrValidation, htmlStageName, "prepare", "upload file missing", err)
	}
	if info.IsDir() {
		return apperrors.Wrap(apperrors.ErrValidation, htmlStageName, "prepare", "upload path is a directory, expected a single html file", nil)
	}
	return nil
}

// HealthCheck reports whether the html pipeline's toolchain (Cordova CLI,
// Android SDK) looks usable.
func (h *HTMLHandler) HealthCheck(_ context.Context) stage.Health {
	if _, err := ResolveEnvironment(); err != nil {
		return stage.Unhealthy(htmlStageName, err.Error())
	}
	if !commandOnPath("cordova") {
		return stage.Unhealthy(htmlStageName, "cordova CLI not found on PATH (installed on demand during a build)")
	}
	return stage.Healthy(htmlStageName)
}

// Execute runs the full html pipeline for task, reporting progress on the
// spec's declared percent schedule.
func (h *HTMLHandler) Execute(ctx context.Context, task *queue.Task, report stage.Report) (queue.Result, error) {
	start := time.Now()

	if h.Config.MockBuild {
		return h.mockBuild(task, start)
	}

	report(5, "Checking environment")
	env, err := ResolveEnvironment()
	if err != nil {
		return stageFailure(apperrors.ErrEnvironment, htmlStageName, "resolve environment", err)
	}
	runner := envRunner{inner: h.Runner, env: env.ProcessEnv()}

	workspace, err := PrepareWorkspace(h.Config.BuildsDir, task.ID)
	if err != nil {
		return stageFailure(apperrors.ErrEnvironment, htmlStageName, "prepare workspace", err)
	}

	report(10, "Ensuring mobile-app shell CLI is installed")
	if err := h.ensureCordovaCLI(ctx); err != nil {
		return stageFailure(apperrors.ErrToolchain, htmlStageName, "ensure cordova cli", err)
	}

	webSrcDir := filepath.Join(workspace, "web-src")
	entryFile, err := h.stageWebSource(ctx, task, webSrcDir, report)
	if err != nil {
		return stageFailure(apperrors.ErrToolchain, htmlStageName, "offlineify", err)
	}

	projectRoot := filepath.Join(workspace, "shell")
	shell := androidshell.NewClient(runner, projectRoot)

	report(25, "Creating mobile-app shell project")
	createRes, err := shell.CreateProject(ctx, task.AppID, task.AppName)
	if err := requireSuccess(htmlStageName, "cordova create", createRes, err); err != nil {
		return stageFailure(apperrors.ErrToolchain, htmlStageName, "create shell project", err)
	}

	report(32, "Installing Android platform dependency")
	platformDepRes, err := shell.InstallPlatformDependency(ctx)
	if err := requireSuccess(htmlStageName, "install platform dependency", platformDepRes, err); err != nil {
		return stageFailure(apperrors.ErrToolchain, htmlStageName, "install platform dependency", err)
	}

	report(38, "Adding Android platform")
	addPlatformRes, err := shell.AddPlatform(ctx)
	if err := requireSuccess(htmlStageName, "add android platform", addPlatformRes, err); err != nil {
		return stageFailure(apperrors.ErrToolchain, htmlStageName, "add android platform", err)
	}

	report(42, "Injecting app icon")
	if err := shell.InjectIcon(task.IconPath); err != nil {
		return stageFailure(apperrors.ErrToolchain, htmlStageName, "inject icon", err)
	}

	report(45, "Copying web content into shell")
	if err := shell.CopyWebContent(webSrcDir, entryFile); err != nil {
		return stageFailure(apperrors.ErrToolchain, htmlStageName, "copy web content", err)
	}

	report(55, "Syncing web resources to Android platform")
	syncRes, err := shell.SyncWebResources(ctx)
	if err := requireSuccess(htmlStageName, "sync web resources", syncRes, err); err != nil {
		return stageFailure(apperrors.ErrToolchain, htmlStageName, "sync web resources", err)
	}

	report(60, "Ensuring Gradle wrapper is present")
	if err := gradlewrap.EnsureWrapper(ctx, runner, shell.PlatformDir(), GradleCacheRoot(), h.Config.GradleVersion, h.Config.GradleDistURL); err != nil {
		return stageFailure(apperrors.ErrToolchain, htmlStageName, "ensure gradle wrapper", err)
	}

	report(70, "Running Android debug build")
	buildRes, err := gradlewrap.Build(ctx, runner, shell.PlatformDir(), 70, 95, h.Config.HeartbeatTick, h.Config.HeartbeatMax, toolexec.ProgressFunc(report))
	if err := requireSuccess(htmlStageName, "gradle assembleDebug", buildRes, err); err != nil {
		return stageFailure(apperrors.ErrToolchain, htmlStageName, "gradle build", err)
	}

	report(95, "Copying output artifact")
	artifactPath := storage.ArtifactPath(h.Config.BuildsDir, task.AppName, task.ID)
	if err := copyArtifact(shell.DebugAPKPath(), artifactPath); err != nil {
		return stageFailure(apperrors.ErrToolchain, htmlStageName, "copy artifact", err)
	}

	report(100, "Done")
	return queue.Result{
		Success:      true,
		ArtifactPath: artifactPath,
		DurationMS:   time.Since(start).Milliseconds(),
	}, nil
}

// stageWebSource populates webSrcDir with what CopyWebContent should copy
// into the shell's web root, running the offlineify sub-pipeline first if
// the uploaded HTML needs it. Returns the entry file name relative to
// webSrcDir.
func (h *HTMLHandler) stageWebSource(ctx context.Context, task *queue.Task, webSrcDir string, report stage.Report) (string, error) {
	src, err := os.ReadFile(task.UploadPath)
	if err != nil {
		return "", fmt.Errorf("reading uploaded html: %w", err)
	}

	if !offlineify.Triggered(src) {
		report(15, "No offline rewrite needed")
		if err := os.MkdirAll(webSrcDir, 0o755); err != nil {
			return "", err
		}
		entryFile := filepath.Base(task.UploadPath)
		if err := copyArtifact(task.UploadPath, filepath.Join(webSrcDir, entryFile)); err != nil {
			return "", err
		}
		return entryFile, nil
	}

	report(15, "Running offline rewrite (offlineify)")
	if _, err := offlineify.Process(ctx, h.HTTPClient, h.Runner, task.UploadPath, webSrcDir); err != nil {
		return "", err
	}
	return "index.html", nil
}

func (h *HTMLHandler) ensureCordovaCLI(ctx context.Context) error {
	if commandOnPath("cordova") {
		return nil
	}
	res, err := h.Runner.Run(ctx, toolexec.Command{
		Argv:    []string{"npm", "install", "-g", "cordova"},
		Timeout: h.Config.InstallTimeout,
	})
	return requireSuccess(htmlStageName, "npm install -g cordova", res, err)
}

func (h *HTMLHandler) mockBuild(task *queue.Task, start time.Time) (queue.Result, error) {
	artifactPath := storage.ArtifactPath(h.Config.BuildsDir, task.AppName, task.ID)
	if err := os.MkdirAll(filepath.Dir(artifactPath), 0o755); err != nil {
		return stageFailure(apperrors.ErrEnvironment, htmlStageName, "mock build", err)
	}
	if err := os.WriteFile(artifactPath, []byte("mock apk"), 0o644); err != nil {
		return stageFailure(apperrors.ErrEnvironment, htmlStageName, "mock build", err)
	}
	return queue.Result{
		Success:      true,
		ArtifactPath: artifactPath,
		DurationMS:   time.Since(start).Milliseconds(),
	}, nil
}

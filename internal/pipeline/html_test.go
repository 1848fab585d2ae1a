package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vibe2apk/internal/config"
	"vibe2apk/internal/pipeline"
	"vibe2apk/internal/queue"
	"vibe2apk/internal/toolexec"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.BuildsDir = t.TempDir()
	cfg.UploadsDir = t.TempDir()
	return &cfg
}

func writeUpload(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestHTMLHandlerPrepareRejectsMissingUpload(t *testing.T) {
	h := pipeline.NewHTMLHandler(newTestConfig(t), &toolexec.FakeRunner{}, nil)
	task := &queue.Task{ID: "t1", UploadPath: filepath.Join(t.TempDir(), "missing.html")}
	err := h.Prepare(context.Background(), task)
	require.Error(t, err)
}

func TestHTMLHandlerPrepareRejectsDirectory(t *testing.T) {
	h := pipeline.NewHTMLHandler(newTestConfig(t), &toolexec.FakeRunner{}, nil)
	task := &queue.Task{ID: "t1", UploadPath: t.TempDir()}
	err := h.Prepare(context.Background(), task)
	require.Error(t, err)
}

func TestHTMLHandlerPrepareAcceptsFile(t *testing.T) {
	uploadDir := t.TempDir()
	upload := writeUpload(t, uploadDir, "index.html", "<html></html>")
	h := pipeline.NewHTMLHandler(newTestConfig(t), &toolexec.FakeRunner{}, nil)
	task := &queue.Task{ID: "t1", UploadPath: upload}
	require.NoError(t, h.Prepare(context.Background(), task))
}

func TestHTMLHandlerHealthCheckReportsMissingSDK(t *testing.T) {
	t.Setenv("ANDROID_HOME", "")
	t.Setenv("ANDROID_SDK_ROOT", "")
	t.Setenv("HOME", t.TempDir())
	h := pipeline.NewHTMLHandler(newTestConfig(t), &toolexec.FakeRunner{}, nil)
	health := h.HealthCheck(context.Background())
	require.False(t, health.Ready)
}

func TestHTMLHandlerHealthCheckReportsCordovaMissing(t *testing.T) {
	t.Setenv("ANDROID_HOME", t.TempDir())
	restore := pipeline.StubCommandOnPath(func(name string) bool { return false })
	defer restore()

	h := pipeline.NewHTMLHandler(newTestConfig(t), &toolexec.FakeRunner{}, nil)
	health := h.HealthCheck(context.Background())
	require.False(t, health.Ready)
}

func TestHTMLHandlerHealthCheckHealthyWhenToolchainPresent(t *testing.T) {
	t.Setenv("ANDROID_HOME", t.TempDir())
	restore := pipeline.StubCommandOnPath(func(name string) bool { return true })
	defer restore()

	h := pipeline.NewHTMLHandler(newTestConfig(t), &toolexec.FakeRunner{}, nil)
	health := h.HealthCheck(context.Background())
	require.True(t, health.Ready)
}

func TestHTMLHandlerExecuteMockBuildWritesDummyArtifact(t *testing.T) {
	uploadDir := t.TempDir()
	upload := writeUpload(t, uploadDir, "index.html", "<html><body>hi</body></html>")

	cfg := newTestConfig(t)
	cfg.MockBuild = true
	h := pipeline.NewHTMLHandler(cfg, &toolexec.FakeRunner{}, nil)

	task := &queue.Task{ID: "t1", AppID: "com.example.app", AppName: "My App", UploadPath: upload}
	result, err := h.Execute(context.Background(), task, func(int, string) {})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.FileExists(t, result.ArtifactPath)
	require.GreaterOrEqual(t, result.DurationMS, int64(0))
}

func TestHTMLHandlerExecuteMockBuildSkipsFakeRunnerCalls(t *testing.T) {
	uploadDir := t.TempDir()
	upload := writeUpload(t, uploadDir, "index.html", "<html></html>")

	cfg := newTestConfig(t)
	cfg.MockBuild = true
	runner := &toolexec.FakeRunner{}
	h := pipeline.NewHTMLHandler(cfg, runner, nil)

	task := &queue.Task{ID: "t1", AppID: "com.example.app", AppName: "My App", UploadPath: upload}
	_, err := h.Execute(context.Background(), task, func(int, string) {})
	require.NoError(t, err)
	require.Empty(t, runner.Calls)
}

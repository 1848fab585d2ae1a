package androidwrapper

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"vibe2apk/internal/icon"
	"vibe2apk/internal/toolexec"
)

// loadIconOrDefault decodes sourcePath if given, else falls back to the
// bundled default icon.
func loadIconOrDefault(sourcePath string) (image.Image, error) {
	if sourcePath == "" {
		return icon.Default()
	}
	return icon.LoadSource(sourcePath)
}

// WrapperPackage is the npm package providing the Bubblewrap CLI.
const WrapperPackage = "@bubblewrap/cli"

// Client wraps the Bubblewrap CLI's project lifecycle for one wrapper
// build, grounded on the same Client-plus-injected-Runner shape as
// androidshell.Client (in turn grounded on the teacher's makemkv.Client).
type Client struct {
	runner     toolexec.Runner
	projectDir string // the built front-end project's output, where tooling installs
	twaDir     string // the generated Trusted Web Activity Android project
}

// NewClient constructs a wrapper client. projectDir is the built
// front-end project (npm install target); twaDir is where the generated
// Android project lives.
func NewClient(runner toolexec.Runner, projectDir, twaDir string) *Client {
	return &Client{runner: runner, projectDir: projectDir, twaDir: twaDir}
}

// TWADir is the generated Trusted Web Activity Android project directory.
func (c *Client) TWADir() string { return c.twaDir }

// InstallTooling installs the Bubblewrap CLI as a dev dependency of the
// built project.
func (c *Client) InstallTooling(ctx context.Context) (toolexec.Result, error) {
	return c.runner.Run(ctx, toolexec.Command{
		Argv: []string{"npm", "install", "--save-dev", WrapperPackage},
		Dir:  c.projectDir,
	})
}

// AddPlatform generates the Android TWA project from the built site,
// serving manifestPath as the Trusted Web Activity's web app manifest.
func (c *Client) AddPlatform(ctx context.Context, manifestPath string) (toolexec.Result, error) {
	if err := os.MkdirAll(filepath.Dir(c.twaDir), 0o755); err != nil {
		return toolexec.Result{}, fmt.Errorf("preparing twa parent dir: %w", err)
	}
	return c.runner.Run(ctx, toolexec.Command{
		Argv: []string{
			"npx", "bubblewrap", "init",
			"--manifest", manifestPath,
			"--directory", c.twaDir,
			"--skipPwaValidation",
		},
		Dir: c.projectDir,
	})
}

// SyncResources regenerates the TWA project's Android resources from its
// current configuration (icon, app id, colors) without recreating it.
func (c *Client) SyncResources(ctx context.Context) (toolexec.Result, error) {
	return c.runner.Run(ctx, toolexec.Command{
		Argv: []string{"npx", "bubblewrap", "update"},
		Dir:  c.twaDir,
	})
}

// mipmapResDir is where the generated Android Studio project keeps its
// mipmap-* icon directories.
func (c *Client) mipmapResDir() string {
	return filepath.Join(c.twaDir, "app", "src", "main", "res")
}

// InjectIcon renders every wrapper-style icon density from sourcePath into
// the TWA project's res/mipmap-* directories, overwriting the round and
// square launcher icons and removing any adaptive-icon override.
func (c *Client) InjectIcon(sourcePath string) error {
	img, err := loadIconOrDefault(sourcePath)
	if err != nil {
		return err
	}
	return icon.InjectWrapper(img, c.mipmapResDir())
}

// DebugAPKPath is where the TWA project's Gradle build leaves the debug
// APK.
func (c *Client) DebugAPKPath() string {
	return filepath.Join(c.twaDir, "app", "build", "outputs", "apk", "debug", "app-debug.apk")
}

package androidshell

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"vibe2apk/internal/fileutil"
	"vibe2apk/internal/htmlpatch"
	"vibe2apk/internal/icon"
	"vibe2apk/internal/toolexec"
)

// loadIconOrDefault decodes sourcePath if given, else falls back to the
// bundled default icon (Task.IconPath is omitempty: not every build
// request uploads one).
func loadIconOrDefault(sourcePath string) (image.Image, error) {
	if sourcePath == "" {
		return icon.Default()
	}
	return icon.LoadSource(sourcePath)
}

// PlatformDependency is the npm package that provides the Cordova Android
// platform, installed before `cordova platform add android` so the add
// step can run offline against the pinned version.
const PlatformDependency = "cordova-android"

// Client wraps the Cordova CLI's project lifecycle for one shell build,
// grounded on the teacher's makemkv.Client shape: a thin object holding an
// injected Executor/Runner plus the paths it operates on, one method per
// external command.
type Client struct {
	runner      toolexec.Runner
	projectRoot string
}

// NewClient constructs a shell client rooted at projectRoot, the clean
// workspace directory created for this build.
func NewClient(runner toolexec.Runner, projectRoot string) *Client {
	return &Client{runner: runner, projectRoot: projectRoot}
}

// WebRoot is the shell project's web content directory Cordova serves
// from, and the destination for copied HTML assets.
func (c *Client) WebRoot() string {
	return filepath.Join(c.projectRoot, "www")
}

// PlatformDir is the generated native Android project directory.
func (c *Client) PlatformDir() string {
	return filepath.Join(c.projectRoot, "platforms", "android")
}

// CreateProject scaffolds a new Cordova project at projectRoot with the
// given app identifier and display name.
func (c *Client) CreateProject(ctx context.Context, appID, appName string) (toolexec.Result, error) {
	parent := filepath.Dir(c.projectRoot)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return toolexec.Result{}, fmt.Errorf("preparing workspace parent: %w", err)
	}
	return c.runner.Run(ctx, toolexec.Command{
		Argv: []string{"cordova", "create", c.projectRoot, appID, appName},
		Dir:  parent,
	})
}

// InstallPlatformDependency installs the pinned cordova-android npm
// package into the project so AddPlatform can resolve it offline.
func (c *Client) InstallPlatformDependency(ctx context.Context) (toolexec.Result, error) {
	return c.runner.Run(ctx, toolexec.Command{
		Argv: []string{"npm", "install", "--save-exact", PlatformDependency},
		Dir:  c.projectRoot,
	})
}

// AddPlatform adds the Android platform to the Cordova project.
func (c *Client) AddPlatform(ctx context.Context) (toolexec.Result, error) {
	return c.runner.Run(ctx, toolexec.Command{
		Argv: []string{"cordova", "platform", "add", "android"},
		Dir:  c.projectRoot,
	})
}

// iconResourceDir is Cordova's conventional location for per-platform icon
// resources referenced from config.xml.
func (c *Client) iconResourceDir() string {
	return filepath.Join(c.projectRoot, "res", "icon", "android")
}

// InjectIcon renders every shell-style icon density from sourcePath (a
// custom upload or the bundled default) into the project's icon resource
// directory, then adds <icon> entries to config.xml if none exist yet.
func (c *Client) InjectIcon(sourcePath string) error {
	img, err := loadIconOrDefault(sourcePath)
	if err != nil {
		return err
	}
	names, err := icon.InjectShell(img, c.iconResourceDir())
	if err != nil {
		return err
	}
	return c.ensureConfigIcons(names)
}

func (c *Client) ensureConfigIcons(iconFiles []string) error {
	configPath := filepath.Join(c.projectRoot, "config.xml")
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("reading config.xml: %w", err)
	}
	content := string(raw)
	if strings.Contains(content, "<icon ") {
		return nil
	}

	var entries strings.Builder
	for i, name := range iconFiles {
		if i >= len(icon.ShellDensities) {
			break
		}
		density := icon.ShellDensities[i]
		fmt.Fprintf(&entries, "    <icon density=\"%s\" src=\"res/icon/android/%s\" />\n", density.Suffix, name)
	}

	closingTag := "</widget>"
	idx := strings.LastIndex(content, closingTag)
	if idx == -1 {
		return fmt.Errorf("config.xml missing closing </widget> tag")
	}
	patched := content[:idx] + entries.String() + content[idx:]
	return os.WriteFile(configPath, []byte(patched), 0o644)
}

// CopyWebContent copies srcDir's contents into the shell's web root,
// renaming entryFile to index.html if it isn't already, then idempotently
// patches the resulting index.html for the mobile shell.
func (c *Client) CopyWebContent(srcDir, entryFile string) error {
	webRoot := c.WebRoot()
	if err := os.RemoveAll(webRoot); err != nil {
		return fmt.Errorf("clearing web root: %w", err)
	}
	if err := fileutil.CopyDir(srcDir, webRoot); err != nil {
		return fmt.Errorf("copying web content: %w", err)
	}

	entryPath := filepath.Join(webRoot, entryFile)
	indexPath := filepath.Join(webRoot, "index.html")
	if entryPath != indexPath {
		if err := os.Rename(entryPath, indexPath); err != nil {
			return fmt.Errorf("renaming entry file to index.html: %w", err)
		}
	}

	raw, err := os.ReadFile(indexPath)
	if err != nil {
		return fmt.Errorf("reading index.html: %w", err)
	}
	patched, err := htmlpatch.PrepareForMobileShell(raw)
	if err != nil {
		return fmt.Errorf("patching index.html: %w", err)
	}
	return os.WriteFile(indexPath, patched, 0o644)
}

// SyncWebResources syncs the web root into the native Android project.
func (c *Client) SyncWebResources(ctx context.Context) (toolexec.Result, error) {
	return c.runner.Run(ctx, toolexec.Command{
		Argv: []string{"cordova", "prepare", "android"},
		Dir:  c.projectRoot,
	})
}

// DebugAPKPath is where Cordova's Gradle build leaves the debug APK.
func (c *Client) DebugAPKPath() string {
	return filepath.Join(c.PlatformDir(), "app", "build", "outputs", "apk", "debug", "app-debug.apk")
}

package androidshell_test

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vibe2apk/internal/androidshell"
	"vibe2apk/internal/toolexec"
)

func writeIconFixture(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestCreateProjectInvokesCordovaCreate(t *testing.T) {
	root := filepath.Join(t.TempDir(), "myapp-build")
	runner := &toolexec.FakeRunner{Results: []toolexec.Result{{ExitCode: 0}}}
	client := androidshell.NewClient(runner, root)

	_, err := client.CreateProject(context.Background(), "com.example.myapp", "My App")
	require.NoError(t, err)

	require.Len(t, runner.Calls, 1)
	require.Equal(t, []string{"cordova", "create", root, "com.example.myapp", "My App"}, runner.Calls[0].Argv)
}

func TestAddPlatformInvokesCordovaPlatformAdd(t *testing.T) {
	root := t.TempDir()
	runner := &toolexec.FakeRunner{Results: []toolexec.Result{{ExitCode: 0}}}
	client := androidshell.NewClient(runner, root)

	_, err := client.AddPlatform(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"cordova", "platform", "add", "android"}, runner.Calls[0].Argv)
}

func TestCopyWebContentRenamesEntryAndPatchesHTML(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "site.html"), []byte("<html><head></head><body><h1>hi</h1></body></html>"), 0o644))

	projectRoot := filepath.Join(root, "project")
	require.NoError(t, os.MkdirAll(projectRoot, 0o755))
	runner := &toolexec.FakeRunner{}
	client := androidshell.NewClient(runner, projectRoot)

	err := client.CopyWebContent(src, "site.html")
	require.NoError(t, err)

	indexPath := filepath.Join(client.WebRoot(), "index.html")
	raw, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	require.Contains(t, string(raw), "cordova.js")
	require.Contains(t, string(raw), "viewport")
}

func TestInjectIconWritesDensitiesAndPatchesConfigXML(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.xml"), []byte(`<?xml version='1.0' encoding='utf-8'?>
<widget id="com.example.app" version="1.0.0" xmlns="http://www.w3.org/ns/widgets">
    <name>App</name>
</widget>
`), 0o644))

	iconPath := filepath.Join(root, "icon.png")
	writeIconFixture(t, iconPath)

	runner := &toolexec.FakeRunner{}
	client := androidshell.NewClient(runner, root)

	err := client.InjectIcon(iconPath)
	require.NoError(t, err)

	config, err := os.ReadFile(filepath.Join(root, "config.xml"))
	require.NoError(t, err)
	require.Contains(t, string(config), `<icon density="ldpi"`)
	require.Contains(t, string(config), `<icon density="xxxhdpi"`)

	require.FileExists(t, filepath.Join(root, "res", "icon", "android", "icon-36.png"))
}

func TestInjectIconIsIdempotentOnConfigXML(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.xml"), []byte(`<?xml version='1.0' encoding='utf-8'?>
<widget id="com.example.app" version="1.0.0" xmlns="http://www.w3.org/ns/widgets">
    <icon density="ldpi" src="res/icon/android/icon-36.png" />
</widget>
`), 0o644))
	iconPath := filepath.Join(root, "icon.png")
	writeIconFixture(t, iconPath)

	runner := &toolexec.FakeRunner{}
	client := androidshell.NewClient(runner, root)
	err := client.InjectIcon(iconPath)
	require.NoError(t, err)

	config, err := os.ReadFile(filepath.Join(root, "config.xml"))
	require.NoError(t, err)
	require.Equal(t, 1, countSubstring(string(config), "<icon density"))
}

func countSubstring(haystack, needle string) int {
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
		}
	}
	return count
}

func TestDebugAPKPathAndPlatformDir(t *testing.T) {
	root := "/tmp/proj"
	client := androidshell.NewClient(&toolexec.FakeRunner{}, root)
	require.Equal(t, filepath.Join(root, "platforms", "android"), client.PlatformDir())
	require.Contains(t, client.DebugAPKPath(), "app-debug.apk")
}

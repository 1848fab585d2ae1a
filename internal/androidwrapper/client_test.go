package androidwrapper_test

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vibe2apk/internal/androidwrapper"
	"vibe2apk/internal/toolexec"
)

func writeIconFixture(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.NRGBA{R: 10, G: 200, B: 10, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestInstallToolingInstallsBubblewrapCLI(t *testing.T) {
	dir := t.TempDir()
	runner := &toolexec.FakeRunner{Results: []toolexec.Result{{ExitCode: 0}}}
	client := androidwrapper.NewClient(runner, dir, filepath.Join(dir, "twa"))

	_, err := client.InstallTooling(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"npm", "install", "--save-dev", "@bubblewrap/cli"}, runner.Calls[0].Argv)
	require.Equal(t, dir, runner.Calls[0].Dir)
}

func TestAddPlatformInvokesBubblewrapInit(t *testing.T) {
	dir := t.TempDir()
	twaDir := filepath.Join(dir, "twa")
	runner := &toolexec.FakeRunner{Results: []toolexec.Result{{ExitCode: 0}}}
	client := androidwrapper.NewClient(runner, dir, twaDir)

	manifest := filepath.Join(dir, "manifest.json")
	_, err := client.AddPlatform(context.Background(), manifest)
	require.NoError(t, err)

	argv := runner.Calls[0].Argv
	require.Contains(t, argv, "init")
	require.Contains(t, argv, manifest)
	require.Contains(t, argv, twaDir)
}

func TestInjectIconWritesWrapperDensitiesAndDropsAdaptiveIcon(t *testing.T) {
	dir := t.TempDir()
	twaDir := filepath.Join(dir, "twa")
	resDir := filepath.Join(twaDir, "app", "src", "main", "res")
	require.NoError(t, os.MkdirAll(filepath.Join(resDir, "mipmap-anydpi-v26"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(resDir, "mipmap-anydpi-v26", "ic_launcher.xml"), []byte("<adaptive-icon/>"), 0o644))

	iconPath := filepath.Join(dir, "icon.png")
	writeIconFixture(t, iconPath)

	client := androidwrapper.NewClient(&toolexec.FakeRunner{}, dir, twaDir)
	err := client.InjectIcon(iconPath)
	require.NoError(t, err)

	require.FileExists(t, filepath.Join(resDir, "mipmap-mdpi", "ic_launcher.png"))
	require.FileExists(t, filepath.Join(resDir, "mipmap-xxxhdpi", "ic_launcher_round.png"))
	require.NoDirExists(t, filepath.Join(resDir, "mipmap-anydpi-v26"))
}

func TestDebugAPKPath(t *testing.T) {
	client := androidwrapper.NewClient(&toolexec.FakeRunner{}, "/tmp/proj", "/tmp/proj/twa")
	require.Equal(t, "/tmp/proj/twa/app/build/outputs/apk/debug/app-debug.apk", client.DebugAPKPath())
}

package icon_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vibe2apk/internal/icon"
)

func solidSquare(t *testing.T, size int, c color.Color) image.Image {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestRenderProducesExactSquareCanvas(t *testing.T) {
	src := solidSquare(t, 100, color.RGBA{255, 0, 0, 255})
	out := icon.Render(src, 48)
	require.Equal(t, 48, out.Bounds().Dx())
	require.Equal(t, 48, out.Bounds().Dy())
}

func TestRenderPadsNonSquareSourceTransparently(t *testing.T) {
	// A wide, short source: contain-fit should pad top/bottom, not crop.
	src := image.NewNRGBA(image.Rect(0, 0, 200, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 200; x++ {
			src.Set(x, y, color.RGBA{0, 255, 0, 255})
		}
	}

	out := icon.Render(src, 96)
	require.Equal(t, 96, out.Bounds().Dx())
	require.Equal(t, 96, out.Bounds().Dy())

	// Top-left corner should be padding (transparent), not the source color.
	_, _, _, a := out.At(0, 0).RGBA()
	require.Equal(t, uint32(0), a)
}

func TestInjectWrapperWritesAllDensitiesAndDropsAdaptiveIcon(t *testing.T) {
	resDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(resDir, "mipmap-anydpi-v26"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(resDir, "mipmap-anydpi-v26", "ic_launcher.xml"), []byte("<adaptive-icon/>"), 0o644))

	src := solidSquare(t, 64, color.RGBA{10, 20, 30, 255})
	require.NoError(t, icon.InjectWrapper(src, resDir))

	for _, d := range icon.WrapperDensities {
		for _, name := range []string{"ic_launcher.png", "ic_launcher_round.png"} {
			path := filepath.Join(resDir, d.MipmapDir(), name)
			require.FileExists(t, path)
		}
	}
	require.NoDirExists(t, filepath.Join(resDir, "mipmap-anydpi-v26"))
}

func TestInjectShellWritesEveryDensity(t *testing.T) {
	resourcesDir := t.TempDir()
	src := solidSquare(t, 64, color.RGBA{1, 2, 3, 255})

	written, err := icon.InjectShell(src, resourcesDir)
	require.NoError(t, err)
	require.Len(t, written, len(icon.ShellDensities))
	for _, name := range written {
		require.FileExists(t, filepath.Join(resourcesDir, name))
	}
}

func TestLoadSourceDecodesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icon.png")
	writePNG(t, path, solidSquare(t, 32, color.RGBA{5, 6, 7, 255}))

	img, err := icon.LoadSource(path)
	require.NoError(t, err)
	require.Equal(t, 32, img.Bounds().Dx())
}

package icon

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
)

// LoadSource decodes a custom-uploaded or bundled-default icon file. Only
// PNG and JPEG are accepted at upload time, so only those decoders are
// registered.
func LoadSource(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open icon %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode icon %s: %w", path, err)
	}
	return img, nil
}

// InjectWrapper renders src at every WrapperDensities bucket and writes
// ic_launcher.png / ic_launcher_round.png into each res/mipmap-<suffix>
// directory under resDir, overwriting whatever the wrapper project shipped
// with. It also deletes any mipmap-anydpi-v26 adaptive-icon override,
// because adaptive icons crop roughly 18% from the edges of the source
// image and would visually clip a "contain"-fit render.
func InjectWrapper(src image.Image, resDir string) error {
	for _, d := range WrapperDensities {
		dir := filepath.Join(resDir, d.MipmapDir())
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		data, err := RenderPNG(src, d.Size)
		if err != nil {
			return fmt.Errorf("render icon at %s: %w", d.Suffix, err)
		}
		for _, name := range []string{"ic_launcher.png", "ic_launcher_round.png"} {
			if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
				return fmt.Errorf("write %s/%s: %w", dir, name, err)
			}
		}
	}

	adaptiveDir := filepath.Join(resDir, "mipmap-anydpi-v26")
	if err := os.RemoveAll(adaptiveDir); err != nil {
		return fmt.Errorf("remove adaptive icon override: %w", err)
	}
	return nil
}

// InjectShell renders src at every ShellDensities bucket into resourcesDir
// (the shell project's icon resource directory, named by the mobile-app
// shell tooling's own convention rather than Android's mipmap-* layout) so
// the shell's build step can reference them.
func InjectShell(src image.Image, resourcesDir string) ([]string, error) {
	if err := os.MkdirAll(resourcesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", resourcesDir, err)
	}

	var written []string
	for _, d := range ShellDensities {
		data, err := RenderPNG(src, d.Size)
		if err != nil {
			return nil, fmt.Errorf("render icon at %s: %w", d.Suffix, err)
		}
		name := fmt.Sprintf("icon-%d.png", d.Size)
		path := filepath.Join(resourcesDir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, name)
	}
	return written, nil
}

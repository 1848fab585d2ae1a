package icon

import (
	"bytes"
	_ "embed"
	"fmt"
	"image"
)

//go:embed assets/default_icon.png
var defaultIconPNG []byte

// Default decodes the bundled fallback icon, used whenever a build task has
// no user-uploaded icon (Task.IconPath is empty). It is a plain 512x512
// square so it survives InjectShell/InjectWrapper's resizing unremarkably.
func Default() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(defaultIconPNG))
	if err != nil {
		return nil, fmt.Errorf("decode bundled default icon: %w", err)
	}
	return img, nil
}

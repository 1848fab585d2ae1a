package icon

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// Render resizes src to fit within a size x size square using a "contain"
// fit — the image is scaled uniformly so its larger dimension exactly fills
// size, then centered on a fully transparent canvas so the aspect ratio is
// never distorted and non-square source icons don't get cropped.
func Render(src image.Image, size int) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, size, size))

	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return canvas
	}

	scale := float64(size) / float64(srcW)
	if h := float64(size) / float64(srcH); h < scale {
		scale = h
	}
	dstW := int(float64(srcW)*scale + 0.5)
	dstH := int(float64(srcH)*scale + 0.5)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	offsetX := (size - dstW) / 2
	offsetY := (size - dstH) / 2
	dstRect := image.Rect(offsetX, offsetY, offsetX+dstW, offsetY+dstH)

	draw.CatmullRom.Scale(canvas, dstRect, src, bounds, draw.Over, nil)
	return canvas
}

// EncodePNG writes img as a maximum-compression PNG, per spec: "write PNG
// with maximum compression".
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestCompression}
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode icon png: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPNG is the common Render+EncodePNG pipeline used by both the shell-
// and wrapper-style injectors.
func RenderPNG(src image.Image, size int) ([]byte, error) {
	return EncodePNG(Render(src, size))
}

package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/webp"
)

func (e *Extractor) processImage(ctx context.Context, data []byte, name string) (string, error) {
	if e.artifacts == nil {
		return "", errors.New("no artifact store configured")
	}
	encoded, err := ReencodePNG(data)
	if err != nil {
		return "", err
	}
	path, err := e.artifacts.Save(ctx, name, encoded)
	if err != nil {
		return "", fmt.Errorf("save artifact: %w", err)
	}
	return path, nil
}

// ReencodePNG decodes a PNG, JPEG or WebP image, drops any alpha channel and
// encodes the result as an opaque RGB PNG.
func ReencodePNG(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	rgb := toRGB(src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, rgb); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// toRGB copies the colour channels of src and forces full opacity, so the png
// encoder writes a 3-channel image.
func toRGB(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}

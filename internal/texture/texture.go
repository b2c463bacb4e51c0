// Package texture decodes Ragnarok Online textures and samples their
// average color for material export.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"path"
	"strings"

	"golang.org/x/image/bmp"
)

// ErrUnknownFormat is returned for file extensions no decoder handles.
var ErrUnknownFormat = errors.New("unknown texture format")

// Decode decodes a texture, choosing the decoder by the file extension.
func Decode(name string, data []byte) (image.Image, error) {
	var (
		img image.Image
		err error
	)
	switch strings.ToLower(path.Ext(strings.ReplaceAll(name, "\\", "/"))) {
	case ".bmp":
		img, err = bmp.Decode(bytes.NewReader(data))
	case ".tga":
		img, err = DecodeTGA(data)
	case ".png":
		img, err = png.Decode(bytes.NewReader(data))
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return img, nil
}

// IsMagentaKey reports whether a color is the magenta transparency key.
// The tolerance absorbs BMP quantization.
func IsMagentaKey(r, g, b uint8) bool {
	return r >= 250 && g <= 10 && b >= 250
}

// AverageColor returns the mean color of img in [0, 1], ignoring
// magenta-keyed and fully transparent pixels. ok is false when no pixel
// counts.
func AverageColor(img image.Image) (c [3]float64, ok bool) {
	var sum [3]float64
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r16, g16, b16, a16 := img.At(x, y).RGBA()
			if a16 == 0 {
				continue
			}
			r8, g8, b8 := uint8(r16>>8), uint8(g16>>8), uint8(b16>>8)
			if IsMagentaKey(r8, g8, b8) {
				continue
			}
			sum[0] += float64(r8)
			sum[1] += float64(g8)
			sum[2] += float64(b8)
			n++
		}
	}
	if n == 0 {
		return c, false
	}
	for i := range c {
		c[i] = sum[i] / float64(n) / 255
	}
	return c, true
}

package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

// Meta describes a decoded image buffer.
type Meta struct {
	Width  int
	Height int
	Format string // "jpeg" or "png"
}

// Decode decodes raw image bytes into a working NRGBA buffer plus metadata.
func Decode(data []byte) (*image.NRGBA, Meta, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, Meta{}, fmt.Errorf("decoding image: %w", err)
	}
	b := img.Bounds()
	return imaging.Clone(img), Meta{Width: b.Dx(), Height: b.Dy(), Format: format}, nil
}

// Encode re-encodes a buffer in a format-appropriate way: PNG stays lossless,
// everything else becomes high-quality JPEG. No sharpening, contrast or
// brightness transforms are applied; they hurt extraction quality on
// already-good phone photographs.
func Encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = imaging.Encode(&buf, img, imaging.PNG)
	default:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(95))
	}
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), nil
}

// resizeCap scales an image down so its longest side is at most maxDim,
// preserving aspect ratio. Images already within the cap are never upscaled.
func resizeCap(img image.Image, maxDim int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return imaging.Clone(img)
	}
	if w >= h {
		return imaging.Resize(img, maxDim, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxDim, imaging.Lanczos)
}

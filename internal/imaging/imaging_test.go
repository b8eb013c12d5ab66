package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fill creates a w x h image painted a single color.
func fill(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// paintRect paints a rectangle of the image a single color.
func paintRect(img *image.NRGBA, rect image.Rectangle, c color.NRGBA) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

var (
	white = color.NRGBA{255, 255, 255, 255}
	dark  = color.NRGBA{40, 40, 40, 255}
)

func TestDetectOrientation(t *testing.T) {
	cases := []struct {
		name   string
		w, h   int
		rotate bool
		reason string
	}{
		{"clearly horizontal", 1500, 500, true, "clearly horizontal"},
		{"likely horizontal", 650, 500, true, "likely horizontal"},
		{"square", 500, 500, false, "portrait or square"},
		{"portrait", 400, 1200, false, "portrait or square"},
		{"zero width", 0, 500, false, "detection failed: unreadable dimensions"},
		{"negative height", 500, -1, false, "detection failed: unreadable dimensions"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := DetectOrientation(tc.w, tc.h)
			assert.Equal(t, tc.rotate, o.NeedsRotation)
			assert.Equal(t, tc.reason, o.Reason)
			if tc.rotate {
				assert.Equal(t, 90, o.AngleDegrees)
			}
		})
	}
}

func TestWhitespaceTrim_AcceptsCenteredContent(t *testing.T) {
	img := fill(200, 200, white)
	paintRect(img, image.Rect(20, 20, 180, 180), dark)

	c, err := whitespaceTrim(img)
	require.NoError(t, err)
	assert.Equal(t, "whitespace_trim", c.Strategy)
	assert.InDelta(t, 160, c.Width(), 2)
	assert.InDelta(t, 160, c.Height(), 2)
}

func TestWhitespaceTrim_RejectsNoOp(t *testing.T) {
	// No background border to remove.
	img := fill(200, 200, dark)
	_, err := whitespaceTrim(img)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "removed only")
}

func TestWhitespaceTrim_RejectsOverTrim(t *testing.T) {
	// A tiny speck of content would discard 99% of the image.
	img := fill(200, 200, white)
	paintRect(img, image.Rect(90, 90, 110, 110), dark)

	_, err := whitespaceTrim(img)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "over-trim")
}

func TestPickBest_TieBreaksOnEarlierIndex(t *testing.T) {
	a := &CropCandidate{Strategy: "first", Index: 0, Image: fill(600, 1200, white)}
	b := &CropCandidate{Strategy: "second", Index: 1, Image: fill(600, 1200, white)}

	best, _ := pickBest([]*CropCandidate{a, b})
	require.NotNil(t, best)
	assert.Equal(t, "first", best.Strategy)
}

func TestPickBest_PrefersReceiptShapedCrop(t *testing.T) {
	// Same content, but one candidate has a typical receipt aspect ratio.
	receiptShaped := fill(500, 1000, white)
	paintRect(receiptShaped, image.Rect(50, 50, 450, 950), dark)
	wide := fill(1500, 400, white)
	paintRect(wide, image.Rect(50, 50, 1450, 350), dark)

	best, _ := pickBest([]*CropCandidate{
		{Strategy: "wide", Index: 0, Image: wide},
		{Strategy: "receipt", Index: 1, Image: receiptShaped},
	})
	require.NotNil(t, best)
	assert.Equal(t, "receipt", best.Strategy)
}

func TestPickBest_Empty(t *testing.T) {
	best, _ := pickBest(nil)
	assert.Nil(t, best)
}

func TestResizeCap(t *testing.T) {
	small := fill(100, 200, white)
	out := resizeCap(small, 1024)
	assert.Equal(t, 100, out.Bounds().Dx())
	assert.Equal(t, 200, out.Bounds().Dy())

	tall := fill(500, 4000, white)
	out = resizeCap(tall, 1000)
	assert.Equal(t, 1000, out.Bounds().Dy())
	assert.LessOrEqual(t, out.Bounds().Dx(), 1000)
}

func TestNormalize_RoundTrip(t *testing.T) {
	img := fill(300, 500, white)
	paintRect(img, image.Rect(40, 40, 260, 460), dark)
	data, err := Encode(img, "png")
	require.NoError(t, err)

	n := NewNormalizer(1024)
	out, meta, err := n.Normalize(data)
	require.NoError(t, err)
	assert.Equal(t, "png", meta.Format)
	assert.Greater(t, meta.Width, 0)
	assert.Greater(t, meta.Height, 0)

	decoded, decodedMeta, err := Decode(out)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.Equal(t, meta.Width, decodedMeta.Width)
	assert.Equal(t, meta.Height, decodedMeta.Height)
}

func TestNormalize_RotatesLandscape(t *testing.T) {
	// A featureless landscape frame falls through to the conservative margin
	// crop, so the portrait orientation survives to the output.
	data, err := Encode(fill(600, 300, white), "png")
	require.NoError(t, err)

	n := NewNormalizer(1024)
	_, meta, err := n.Normalize(data)
	require.NoError(t, err)
	assert.Greater(t, meta.Height, meta.Width)
}

func TestNormalize_UndecodableInput(t *testing.T) {
	n := NewNormalizer(1024)
	_, _, err := n.Normalize([]byte("not an image"))
	require.Error(t, err)
}

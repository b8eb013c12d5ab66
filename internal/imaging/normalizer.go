package imaging

import (
	"image"
	"log"

	"github.com/disintegration/imaging"
)

// Normalizer crops and orients a raw photograph to isolate the receipt body.
// No single cropping heuristic is reliable across backgrounds, so it runs all
// strategies and keeps the highest-scoring candidate. Geometry failure always
// degrades gracefully: the worst case returns the resized original, never an
// error that would abort extraction.
type Normalizer struct {
	maxDim     int
	strategies []Strategy
}

// NewNormalizer creates a Normalizer with the given longest-side cap.
func NewNormalizer(maxDim int) *Normalizer {
	return &Normalizer{maxDim: maxDim, strategies: defaultStrategies()}
}

// Normalize decodes raw bytes, corrects gross 90° misorientation, crops to the
// receipt body and re-encodes. The returned Meta describes the output buffer.
// Only an undecodable input produces an error; callers then proceed with the
// original bytes.
func (n *Normalizer) Normalize(data []byte) ([]byte, Meta, error) {
	img, meta, err := Decode(data)
	if err != nil {
		return nil, Meta{}, err
	}

	if o := DetectOrientation(meta.Width, meta.Height); o.NeedsRotation {
		log.Printf("imaging.Normalizer: rotating %d° (%s)", o.AngleDegrees, o.Reason)
		img = imaging.Rotate90(img)
	}

	resized := resizeCap(img, n.maxDim)

	var candidates []*CropCandidate
	for i, s := range n.strategies {
		c, err := s.Run(resized)
		if err != nil {
			log.Printf("imaging.Normalizer: strategy %s failed: %v", s.Name, err)
			continue
		}
		c.Index = i
		candidates = append(candidates, c)
	}

	chosen, score := pickBest(candidates)
	if chosen == nil {
		log.Printf("imaging.Normalizer: all strategies failed, using conservative %d%% margin crop", int(conservativeMargin*100))
		chosen = conservativeCrop(resized)
	} else {
		log.Printf("imaging.Normalizer: selected %s (score %.1f, %dx%d)",
			chosen.Strategy, score, chosen.Width(), chosen.Height())
	}

	out := resizeCap(chosen.Image, n.maxDim)
	encoded, err := Encode(out, meta.Format)
	if err != nil {
		// fall back to the unmodified resized original before giving up
		if encoded, err = Encode(resized, meta.Format); err != nil {
			return nil, Meta{}, err
		}
		out = resized
	}

	b := out.Bounds()
	return encoded, Meta{Width: b.Dx(), Height: b.Dy(), Format: meta.Format}, nil
}

// conservativeCrop is the terminal fallback: a fixed-margin crop of the
// resized original, or the original itself when even that is degenerate.
func conservativeCrop(img *image.NRGBA) *CropCandidate {
	rect := marginRect(img.Bounds(), conservativeMargin)
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return &CropCandidate{Strategy: "passthrough", Image: img}
	}
	return &CropCandidate{Strategy: "conservative_margin", Image: imaging.Crop(img, rect)}
}

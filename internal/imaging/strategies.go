package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CropCandidate is one proposed crop produced by a single strategy. Candidates
// are owned by the normalizer during scoring and discarded after the winner is
// chosen.
type CropCandidate struct {
	Strategy string
	Index    int
	Image    *image.NRGBA
}

// Width returns the candidate's pixel width.
func (c *CropCandidate) Width() int { return c.Image.Bounds().Dx() }

// Height returns the candidate's pixel height.
func (c *CropCandidate) Height() int { return c.Image.Bounds().Dy() }

// Strategy is a single candidate-generation heuristic. Strategies are pure
// functions over the input buffer; a failing strategy is simply excluded from
// scoring.
type Strategy struct {
	Name string
	Run  func(img *image.NRGBA) (*CropCandidate, error)
}

const (
	// backgroundLuma is the luminance above which a row/column counts as
	// uniform background for whitespace trimming.
	backgroundLuma = 235.0

	// trim acceptance band: trims removing less are no-ops, trims removing
	// more are probable over-trims.
	minTrimFraction = 0.05
	maxTrimFraction = 0.70

	// sobelThreshold binarizes the combined gradient magnitude.
	sobelThreshold = 60

	// minEdgeRun is the run-length requirement on ink-density profiles.
	minEdgeRun = 3

	// edgePadFraction pads the detected content box.
	edgePadFraction = 0.02

	// conservativeMargin is the fixed-margin crop used when no strategy
	// produces a plausible box.
	conservativeMargin = 0.08
)

// defaultStrategies returns the candidate generators in their fixed order.
// The order doubles as the deterministic tie-break during scoring.
func defaultStrategies() []Strategy {
	return []Strategy{
		{Name: "whitespace_trim", Run: whitespaceTrim},
		{Name: "edge_low_blur", Run: func(img *image.NRGBA) (*CropCandidate, error) {
			return edgeCrop(img, "edge_low_blur", 2, false)
		}},
		{Name: "edge_high_blur", Run: edgeHighBlur},
		{Name: "smart_content", Run: smartContentCrop},
	}
}

// whitespaceTrim trims uniform background from all four edges. The result is
// rejected when it removes less than 5% of the area (a no-op) or more than
// 70% (a probable over-trim).
func whitespaceTrim(img *image.NRGBA) (*CropCandidate, error) {
	rect, ok := trimRect(img)
	if !ok {
		return nil, fmt.Errorf("whitespace trim: no content rows found")
	}

	origArea := float64(img.Bounds().Dx() * img.Bounds().Dy())
	removed := 1 - float64(rect.Dx()*rect.Dy())/origArea
	if removed < minTrimFraction {
		return nil, fmt.Errorf("whitespace trim: removed only %.1f%% of area", removed*100)
	}
	if removed > maxTrimFraction {
		return nil, fmt.Errorf("whitespace trim: removed %.1f%% of area, probable over-trim", removed*100)
	}

	return &CropCandidate{Strategy: "whitespace_trim", Image: imaging.Crop(img, rect)}, nil
}

// trimRect finds the bounding box left after trimming background rows and
// columns from each edge.
func trimRect(img *image.NRGBA) (image.Rectangle, bool) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	rowMean := make([]float64, h)
	colSum := make([]float64, w)
	for y := 0; y < h; y++ {
		var sum float64
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			l := 0.299*float64(row[x*4]) + 0.587*float64(row[x*4+1]) + 0.114*float64(row[x*4+2])
			sum += l
			colSum[x] += l
		}
		rowMean[y] = sum / float64(w)
	}

	top, bottom := 0, h-1
	for top < h && rowMean[top] >= backgroundLuma {
		top++
	}
	for bottom > top && rowMean[bottom] >= backgroundLuma {
		bottom--
	}
	left, right := 0, w-1
	for left < w && colSum[left]/float64(h) >= backgroundLuma {
		left++
	}
	for right > left && colSum[right]/float64(h) >= backgroundLuma {
		right--
	}

	if top >= bottom || left >= right {
		return image.Rectangle{}, false
	}
	return image.Rect(left, top, right+1, bottom+1), true
}

// edgeCrop derives the content box from Sobel gradients: grayscale → blur →
// normalize → Sobel X+Y → threshold → ink-density bounds → 2% padding.
func edgeCrop(img *image.NRGBA, name string, sigma float64, denoise bool) (*CropCandidate, error) {
	g := toGray(img)
	g = blurGray(g, sigma)
	if denoise {
		g = medianGray(g, 5)
	}
	g = normalizeGray(g)
	mask := binaryMask(sobelMagnitude(g), sobelThreshold)

	rect, ok := contentBounds(mask, minEdgeRun)
	if !ok {
		return nil, fmt.Errorf("%s: no content bounds found", name)
	}
	rect = padRect(rect, edgePadFraction, img.Bounds())

	return &CropCandidate{Strategy: name, Image: imaging.Crop(img, rect)}, nil
}

// edgeHighBlur is the textured-background variant: it first tries a plain
// whitespace sub-trim and keeps it when that alone removes a plausible share
// of the area; otherwise it runs the edge pipeline with heavy blur and a
// median denoise pass to suppress false edges from patterned surfaces.
func edgeHighBlur(img *image.NRGBA) (*CropCandidate, error) {
	if rect, ok := trimRect(img); ok {
		origArea := float64(img.Bounds().Dx() * img.Bounds().Dy())
		removed := 1 - float64(rect.Dx()*rect.Dy())/origArea
		if removed >= minTrimFraction && removed <= maxTrimFraction {
			return &CropCandidate{Strategy: "edge_high_blur", Image: imaging.Crop(img, rect)}, nil
		}
	}
	return edgeCrop(img, "edge_high_blur", 8, true)
}

// smartContentCrop partitions the image into a fixed grid, seeds a box at the
// highest-variance cell and greedily expands it while neighboring cells stay
// above 30% of the maximum variance. Implausibly small boxes are replaced by
// a conservative fixed-margin crop.
func smartContentCrop(img *image.NRGBA) (*CropCandidate, error) {
	const cell = 20
	const neighborFraction = 0.30

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	gw, gh := (w+cell-1)/cell, (h+cell-1)/cell
	if gw < 2 || gh < 2 {
		return nil, fmt.Errorf("smart content: image too small for %dpx grid", cell)
	}

	g := toGray(img)
	variances := make([][]float64, gh)
	maxVar := 0.0
	maxR, maxC := 0, 0
	for r := 0; r < gh; r++ {
		variances[r] = make([]float64, gw)
		for c := 0; c < gw; c++ {
			v := grayVariance(g, image.Rect(c*cell, r*cell, (c+1)*cell, (r+1)*cell))
			variances[r][c] = v
			if v > maxVar {
				maxVar, maxR, maxC = v, r, c
			}
		}
	}
	if maxVar == 0 {
		return nil, fmt.Errorf("smart content: flat image, no variance seed")
	}

	floor := maxVar * neighborFraction
	top, bottom, left, right := maxR, maxR, maxC, maxC
	lineAbove := func(cells []float64, lo, hi int) bool {
		for i := lo; i <= hi; i++ {
			if cells[i] >= floor {
				return true
			}
		}
		return false
	}
	colLine := func(c, lo, hi int) bool {
		for r := lo; r <= hi; r++ {
			if variances[r][c] >= floor {
				return true
			}
		}
		return false
	}
	for top > 0 && lineAbove(variances[top-1], left, right) {
		top--
	}
	for bottom < gh-1 && lineAbove(variances[bottom+1], left, right) {
		bottom++
	}
	for left > 0 && colLine(left-1, top, bottom) {
		left--
	}
	for right < gw-1 && colLine(right+1, top, bottom) {
		right++
	}

	rect := image.Rect(left*cell, top*cell, (right+1)*cell, (bottom+1)*cell).Intersect(b)
	if rect.Dx() < w/2 || rect.Dy() < h/2 {
		rect = marginRect(b, conservativeMargin)
	}

	return &CropCandidate{Strategy: "smart_content", Image: imaging.Crop(img, rect)}, nil
}

// marginRect shrinks bounds by a uniform margin fraction on each side.
func marginRect(b image.Rectangle, margin float64) image.Rectangle {
	mx := int(float64(b.Dx()) * margin)
	my := int(float64(b.Dy()) * margin)
	return image.Rect(b.Min.X+mx, b.Min.Y+my, b.Max.X-mx, b.Max.Y-my)
}

package imaging

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
)

// toGray converts any image to 8-bit grayscale via the stdlib color model.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}

// blurGray applies a Gaussian blur with the given sigma to a grayscale buffer.
func blurGray(g *image.Gray, sigma float64) *image.Gray {
	return toGray(imaging.Blur(g, sigma))
}

// normalizeGray linearly stretches gray levels to the full 0..255 range.
// A flat image is returned unchanged.
func normalizeGray(g *image.Gray) *image.Gray {
	minV, maxV := uint8(255), uint8(0)
	for _, v := range g.Pix {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if maxV <= minV {
		return g
	}
	out := image.NewGray(g.Bounds())
	scale := 255.0 / float64(maxV-minV)
	for i, v := range g.Pix {
		out.Pix[i] = uint8(float64(v-minV) * scale)
	}
	return out
}

// medianGray applies a median filter with the given radius, used to knock out
// texture noise on patterned backgrounds before edge detection.
func medianGray(g *image.Gray, radius int) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)

	var hist [256]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for i := range hist {
				hist[i] = 0
			}
			count := 0
			for dy := -radius; dy <= radius; dy++ {
				yy := y + dy
				if yy < 0 || yy >= h {
					continue
				}
				for dx := -radius; dx <= radius; dx++ {
					xx := x + dx
					if xx < 0 || xx >= w {
						continue
					}
					hist[g.Pix[yy*g.Stride+xx]]++
					count++
				}
			}
			target := count / 2
			acc := 0
			for v := 0; v < 256; v++ {
				acc += hist[v]
				if acc > target {
					out.Pix[y*out.Stride+x] = uint8(v)
					break
				}
			}
		}
	}
	return out
}

// sobelMagnitude combines Sobel X and Y gradients by addition, clamped to 255.
func sobelMagnitude(g *image.Gray) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)

	at := func(x, y int) int {
		if x < 0 {
			x = 0
		} else if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		} else if y >= h {
			y = h - 1
		}
		return int(g.Pix[y*g.Stride+x])
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) +
				-2*at(x-1, y) + 2*at(x+1, y) +
				-at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			if gx < 0 {
				gx = -gx
			}
			if gy < 0 {
				gy = -gy
			}
			mag := gx + gy
			if mag > 255 {
				mag = 255
			}
			out.Pix[y*out.Stride+x] = uint8(mag)
		}
	}
	return out
}

// binaryMask thresholds a gray buffer into a 0/255 mask.
func binaryMask(g *image.Gray, threshold uint8) *image.Gray {
	out := image.NewGray(g.Bounds())
	for i, v := range g.Pix {
		if v >= threshold {
			out.Pix[i] = 255
		}
	}
	return out
}

// contentBounds derives the content bounding box of a binary mask from row and
// column ink densities. The density threshold adapts to the profile
// (median + 0.5·stddev) and a run of at least minRun consecutive rows/columns
// above it is required on each side, rejecting single-pixel noise.
func contentBounds(mask *image.Gray, minRun int) (image.Rectangle, bool) {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return image.Rectangle{}, false
	}

	rows := make([]int, h)
	cols := make([]int, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mask.Pix[y*mask.Stride+x] > 0 {
				rows[y]++
				cols[x]++
			}
		}
	}

	top, bottom, okV := runBounds(rows, minRun)
	left, right, okH := runBounds(cols, minRun)
	if !okV || !okH {
		return image.Rectangle{}, false
	}
	return image.Rect(left, top, right+1, bottom+1), true
}

// runBounds finds the first and last index of a run of minRun consecutive
// profile entries above the adaptive threshold.
func runBounds(profile []int, minRun int) (first, last int, ok bool) {
	median, stddev := profileStats(profile)
	threshold := median + 0.5*stddev

	first, last = -1, -1
	run := 0
	for i, v := range profile {
		if float64(v) > threshold {
			run++
			if run >= minRun && first == -1 {
				first = i - run + 1
			}
		} else {
			run = 0
		}
	}
	run = 0
	for i := len(profile) - 1; i >= 0; i-- {
		if float64(profile[i]) > threshold {
			run++
			if run >= minRun {
				last = i + run - 1
				break
			}
		} else {
			run = 0
		}
	}
	if first == -1 || last == -1 || last < first {
		return 0, 0, false
	}
	return first, last, true
}

// padRect expands a rectangle by the given fraction of each dimension,
// clamped to bounds.
func padRect(r image.Rectangle, fraction float64, bounds image.Rectangle) image.Rectangle {
	padX := int(float64(r.Dx()) * fraction)
	padY := int(float64(r.Dy()) * fraction)
	padded := image.Rect(r.Min.X-padX, r.Min.Y-padY, r.Max.X+padX, r.Max.Y+padY)
	return padded.Intersect(bounds)
}

package imaging

import (
	"image"
	"math"
	"sort"
)

// rgbStats computes per-channel mean and standard deviation over a buffer.
func rgbStats(img *image.NRGBA) (mean, stddev [3]float64) {
	b := img.Bounds()
	n := float64(b.Dx() * b.Dy())
	if n == 0 {
		return mean, stddev
	}

	var sum, sumSq [3]float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride : (y-b.Min.Y)*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			for c := 0; c < 3; c++ {
				v := float64(row[x+c])
				sum[c] += v
				sumSq[c] += v * v
			}
		}
	}
	for c := 0; c < 3; c++ {
		mean[c] = sum[c] / n
		variance := sumSq[c]/n - mean[c]*mean[c]
		if variance < 0 {
			variance = 0
		}
		stddev[c] = math.Sqrt(variance)
	}
	return mean, stddev
}

// contrastOf is the mean per-channel standard deviation normalized to [0,1].
func contrastOf(img *image.NRGBA) float64 {
	_, stddev := rgbStats(img)
	c := (stddev[0] + stddev[1] + stddev[2]) / 3 / 127.5
	if c > 1 {
		c = 1
	}
	return c
}

// brightnessOf is the mean luminance normalized to [0,1].
func brightnessOf(img *image.NRGBA) float64 {
	mean, _ := rgbStats(img)
	return (0.299*mean[0] + 0.587*mean[1] + 0.114*mean[2]) / 255
}

// profileStats returns the median and standard deviation of an ink-density
// profile, used for adaptive thresholding of row/column densities.
func profileStats(profile []int) (median, stddev float64) {
	if len(profile) == 0 {
		return 0, 0
	}
	sorted := make([]int, len(profile))
	copy(sorted, profile)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		median = float64(sorted[mid-1]+sorted[mid]) / 2
	} else {
		median = float64(sorted[mid])
	}

	var sum, sumSq float64
	for _, v := range profile {
		sum += float64(v)
		sumSq += float64(v) * float64(v)
	}
	n := float64(len(profile))
	m := sum / n
	variance := sumSq/n - m*m
	if variance < 0 {
		variance = 0
	}
	return median, math.Sqrt(variance)
}

// grayVariance computes the luminance variance of a grayscale sub-rectangle.
func grayVariance(g *image.Gray, rect image.Rectangle) float64 {
	rect = rect.Intersect(g.Bounds())
	n := float64(rect.Dx() * rect.Dy())
	if n == 0 {
		return 0
	}
	var sum, sumSq float64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			v := float64(g.GrayAt(x, y).Y)
			sum += v
			sumSq += v * v
		}
	}
	m := sum / n
	variance := sumSq/n - m*m
	if variance < 0 {
		variance = 0
	}
	return variance
}

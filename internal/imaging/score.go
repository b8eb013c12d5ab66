package imaging

// Quality score bands. Area is in pixels of the candidate crop.
const (
	areaSevereFloor   = 100_000
	areaModerateFloor = 200_000
	areaCeiling       = 2_500_000
	goodAreaLow       = 300_000
	goodAreaHigh      = 2_000_000
)

// scoreCandidate assigns a quality score to a crop candidate from its area,
// aspect ratio, contrast and brightness statistics. Higher is better.
func scoreCandidate(c *CropCandidate) float64 {
	score := 0.0
	w, h := c.Width(), c.Height()
	area := w * h

	switch {
	case area < areaSevereFloor:
		score -= 60
	case area < areaModerateFloor:
		score -= 25
	}
	if area > areaCeiling {
		// probably under-cropped
		score -= 20
	}

	score += 40 * contrastOf(c.Image)

	ratio := 0.0
	if h > 0 {
		ratio = float64(w) / float64(h)
	}
	switch {
	case ratio >= 0.3 && ratio <= 0.7:
		// typical receipt shape
		score += 25
	case ratio >= 0.2 && ratio <= 0.9:
		score += 10
	default:
		score -= 10
	}

	brightness := brightnessOf(c.Image)
	if brightness < 0.15 || brightness > 0.90 {
		score -= 25
	} else if brightness >= 0.3 && brightness <= 0.7 {
		score += 10
	}

	if area >= goodAreaLow && area <= goodAreaHigh {
		score += 15
	}

	return score
}

// pickBest reduces the surviving candidates to the highest-scoring one.
// Ties break deterministically in favor of the earlier generation index.
func pickBest(candidates []*CropCandidate) (*CropCandidate, float64) {
	var best *CropCandidate
	bestScore := 0.0
	for _, c := range candidates {
		s := scoreCandidate(c)
		if best == nil || s > bestScore {
			best = c
			bestScore = s
		}
	}
	return best, bestScore
}

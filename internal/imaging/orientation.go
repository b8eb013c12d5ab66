package imaging

// Orientation is the result of the rotation heuristic.
type Orientation struct {
	NeedsRotation bool   `json:"needs_rotation"`
	AngleDegrees  int    `json:"angle_degrees"`
	Reason        string `json:"reason"`
}

// DetectOrientation estimates whether a photograph is rotated 90° using the
// aspect ratio alone. Receipts are assumed portrait; this only corrects gross
// misorientation, never fine-grained skew. It never fails: unreadable
// dimensions default to no rotation.
func DetectOrientation(width, height int) Orientation {
	if width <= 0 || height <= 0 {
		return Orientation{Reason: "detection failed: unreadable dimensions"}
	}
	ratio := float64(width) / float64(height)
	switch {
	case ratio > 1.5:
		return Orientation{NeedsRotation: true, AngleDegrees: 90, Reason: "clearly horizontal"}
	case ratio > 1.2:
		return Orientation{NeedsRotation: true, AngleDegrees: 90, Reason: "likely horizontal"}
	default:
		return Orientation{Reason: "portrait or square"}
	}
}

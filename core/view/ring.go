package view

import "math"

// Ring geometry of the score indicator, in SVG user units.
const (
	RingRadius = 45
	RingSize   = 120
	RingStroke = 8
)

// Ring describes a circular progress indicator for a 0–100 score.
type Ring struct {
	Radius        float64
	Center        float64
	Size          int
	Stroke        int
	Circumference float64
	DashOffset    float64
	// Fraction is the filled share of the ring in [0,1].
	Fraction float64
	Color    string
}

// NewRing computes the dash offset for score. The score is clamped to [0,100]
// for geometry only.
func NewRing(score float64, color string) Ring {
	frac := score / 100
	if math.IsNaN(frac) || frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	c := 2 * math.Pi * RingRadius
	return Ring{
		Radius:        RingRadius,
		Center:        RingSize / 2,
		Size:          RingSize,
		Stroke:        RingStroke,
		Circumference: c,
		DashOffset:    c - frac*c,
		Fraction:      frac,
		Color:         color,
	}
}

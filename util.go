package main

import (
	"math"

	"github.com/google/uuid"
)

// geomEpsilon absorbs float noise in crossing and arrival comparisons.
const geomEpsilon = 1e-9

// GenerateID returns a random UUID v4 string
func GenerateID() string {
	return uuid.NewString()
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// clampInt restricts v to [min, max]
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Distance returns the distance between two points
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// nearlyEqual reports whether two coordinates are within tolerance
func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6
}

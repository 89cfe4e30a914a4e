// Package units provides shared angle conversion and normalization helpers
package units

import "math"

// DegPerRad converts radians to degrees when multiplied.
const DegPerRad = 180.0 / math.Pi

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * DegPerRad
}

// NormalizeDeg wraps an angle into the half-open interval (-180, 180].
func NormalizeDeg(deg float64) float64 {
	for deg > 180 {
		deg -= 360
	}
	for deg <= -180 {
		deg += 360
	}
	return deg
}

// ShortestDeltaDeg returns the signed shortest angular distance from one
// angle to another, in degrees. The result lies in (-180, 180], so a step
// from 179 to -179 reports +2 rather than -358.
func ShortestDeltaDeg(from, to float64) float64 {
	return NormalizeDeg(to - from)
}

// Clamp limits v to the closed interval [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package overlay

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TrajectoryPoint is one joint observation: a surface-space position plus
// the video frame it was observed on.
type TrajectoryPoint struct {
	X     float64
	Y     float64
	Frame int
}

const (
	// twoPointSegments is the fixed Bezier subdivision used when only two
	// samples exist.
	twoPointSegments = 10
	// controlOffsetRatio places the synthetic Bezier control points along
	// the segment vector from each endpoint.
	controlOffsetRatio = 0.3
	// minSegmentSamples and baseSegmentSamples bound the adaptive
	// Catmull-Rom subdivision per segment.
	minSegmentSamples  = 5
	baseSegmentSamples = 8
	// velocityRatioCap limits how much faster-than-average motion can
	// densify sampling.
	velocityRatioCap = 3.0

	// MarkerStride selects every Nth raw sample as a curve anchor marker.
	MarkerStride = 5
)

// SmoothTrajectory expands a short joint history into a dense smooth path.
//
// With fewer than two points, or with smoothing disabled, the input
// positions are returned unchanged. Two points become a cubic Bezier so a
// sparse pair still reads as a curve. Three or more points are interpolated
// with a clamped Catmull-Rom spline whose per-segment sample density scales
// with local velocity, capped at velocityRatioCap times the mean.
//
// The result is a pure function of the input window.
func SmoothTrajectory(points []TrajectoryPoint, enabled bool) []Point {
	if !enabled || len(points) < 2 {
		return rawPath(points)
	}
	if len(points) == 2 {
		return twoPointBezier(points[0], points[1])
	}
	return catmullRomPath(points)
}

// MarkerPoints returns every MarkerStride-th input position, starting with
// the first. Markers anchor the smoothed curve to real observations.
func MarkerPoints(points []TrajectoryPoint) []Point {
	var out []Point
	for i := 0; i < len(points); i += MarkerStride {
		out = append(out, Point{X: points[i].X, Y: points[i].Y})
	}
	return out
}

func rawPath(points []TrajectoryPoint) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{X: p.X, Y: p.Y}
	}
	return out
}

// twoPointBezier synthesizes a cubic Bezier between two samples. The
// control points sit controlOffsetRatio along the segment vector from each
// endpoint, which keeps the curve close to the chord without rendering a
// single harsh straight line.
func twoPointBezier(a, b TrajectoryPoint) []Point {
	dx := b.X - a.X
	dy := b.Y - a.Y
	c1 := Point{X: a.X + dx*controlOffsetRatio, Y: a.Y + dy*controlOffsetRatio}
	c2 := Point{X: b.X - dx*controlOffsetRatio, Y: b.Y - dy*controlOffsetRatio}

	out := make([]Point, 0, twoPointSegments+1)
	for i := 0; i <= twoPointSegments; i++ {
		t := float64(i) / twoPointSegments
		u := 1 - t
		out = append(out, Point{
			X: u*u*u*a.X + 3*u*u*t*c1.X + 3*u*t*t*c2.X + t*t*t*b.X,
			Y: u*u*u*a.Y + 3*u*u*t*c1.Y + 3*u*t*t*c2.Y + t*t*t*b.Y,
		})
	}
	return out
}

// catmullRomPath interpolates three or more samples with a clamped
// Catmull-Rom spline, duplicating the endpoints so the curve passes through
// them.
func catmullRomPath(points []TrajectoryPoint) []Point {
	velocities := segmentVelocities(points)
	meanV := stat.Mean(velocities, nil)

	var out []Point
	n := len(points)
	for i := 0; i < n-1; i++ {
		p0 := points[maxInt(i-1, 0)]
		p1 := points[i]
		p2 := points[i+1]
		p3 := points[minInt(i+2, n-1)]

		samples := segmentSampleCount(velocities[i], meanV)
		for j := 0; j < samples; j++ {
			t := float64(j) / float64(samples)
			out = append(out, catmullRom(p0, p1, p2, p3, t))
		}
	}
	last := points[n-1]
	out = append(out, Point{X: last.X, Y: last.Y})
	return out
}

// segmentVelocities computes per-segment speed in surface pixels per frame.
// Frame deltas are floored to one so out-of-order or duplicate frame
// numbers cannot divide by zero.
func segmentVelocities(points []TrajectoryPoint) []float64 {
	v := make([]float64, len(points)-1)
	for i := 0; i < len(points)-1; i++ {
		a, b := points[i], points[i+1]
		dist := math.Hypot(b.X-a.X, b.Y-a.Y)
		delta := b.Frame - a.Frame
		if delta < 1 {
			delta = 1
		}
		v[i] = dist / float64(delta)
	}
	return v
}

// segmentSampleCount picks the subdivision for one segment. Faster-moving
// segments get denser sampling, up to roughly 2.5 times the base.
func segmentSampleCount(localV, meanV float64) int {
	denom := meanV
	if denom == 0 {
		denom = 1
	}
	ratio := localV / denom
	if ratio > velocityRatioCap {
		ratio = velocityRatioCap
	}
	samples := int(math.Round(baseSegmentSamples * (1 + ratio*0.5)))
	if samples < minSegmentSamples {
		samples = minSegmentSamples
	}
	return samples
}

// catmullRom evaluates the uniform Catmull-Rom basis at t for the segment
// between p1 and p2.
func catmullRom(p0, p1, p2, p3 TrajectoryPoint, t float64) Point {
	t2 := t * t
	t3 := t2 * t
	return Point{
		X: 0.5 * (2*p1.X +
			(-p0.X+p2.X)*t +
			(2*p0.X-5*p1.X+4*p2.X-p3.X)*t2 +
			(-p0.X+3*p1.X-3*p2.X+p3.X)*t3),
		Y: 0.5 * (2*p1.Y +
			(-p0.Y+p2.Y)*t +
			(2*p0.Y-5*p1.Y+4*p2.Y-p3.Y)*t2 +
			(-p0.Y+3*p1.Y-3*p2.Y+p3.Y)*t3),
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

package overlay

import (
	"math"
	"testing"
)

func TestSmoothTrajectoryIdentityBelowTwoPoints(t *testing.T) {
	if got := SmoothTrajectory(nil, true); len(got) != 0 {
		t.Errorf("empty input produced %d points", len(got))
	}
	one := []TrajectoryPoint{{X: 7, Y: 9, Frame: 3}}
	got := SmoothTrajectory(one, true)
	if len(got) != 1 || got[0].X != 7 || got[0].Y != 9 {
		t.Errorf("single point altered: %+v", got)
	}
}

func TestSmoothTrajectoryDisabledPassthrough(t *testing.T) {
	pts := []TrajectoryPoint{
		{X: 0, Y: 0, Frame: 0},
		{X: 10, Y: 5, Frame: 1},
		{X: 20, Y: 0, Frame: 2},
	}
	got := SmoothTrajectory(pts, false)
	if len(got) != 3 {
		t.Fatalf("disabled smoothing changed point count: %d", len(got))
	}
	for i, p := range pts {
		if got[i].X != p.X || got[i].Y != p.Y {
			t.Errorf("point %d altered: %+v", i, got[i])
		}
	}
}

func TestSmoothTrajectoryTwoPointBezier(t *testing.T) {
	pts := []TrajectoryPoint{
		{X: 0, Y: 0, Frame: 0},
		{X: 100, Y: 0, Frame: 1},
	}
	got := SmoothTrajectory(pts, true)
	if len(got) != twoPointSegments+1 {
		t.Fatalf("point count = %d, want %d", len(got), twoPointSegments+1)
	}
	first, last := got[0], got[len(got)-1]
	if !almostEqual(first.X, 0) || !almostEqual(first.Y, 0) {
		t.Errorf("curve start = %+v, want origin", first)
	}
	if !almostEqual(last.X, 100) || !almostEqual(last.Y, 0) {
		t.Errorf("curve end = %+v, want (100,0)", last)
	}
	for i := 1; i < len(got); i++ {
		if got[i].X <= got[i-1].X {
			t.Errorf("x not increasing at %d: %v then %v", i, got[i-1].X, got[i].X)
		}
	}
}

func TestSmoothTrajectoryCollinearStaysCollinear(t *testing.T) {
	pts := []TrajectoryPoint{
		{X: 0, Y: 50, Frame: 0},
		{X: 10, Y: 50, Frame: 1},
		{X: 20, Y: 50, Frame: 2},
		{X: 30, Y: 50, Frame: 3},
		{X: 40, Y: 50, Frame: 4},
	}
	got := SmoothTrajectory(pts, true)
	if len(got) <= len(pts) {
		t.Fatalf("smoothing added no density: %d points", len(got))
	}
	for i, p := range got {
		if !almostEqual(p.Y, 50) {
			t.Errorf("point %d left the line: y = %v", i, p.Y)
		}
	}
}

// ==== four evenly spaced samples along the x axis ====

func TestSmoothTrajectoryHorizontalScenario(t *testing.T) {
	pts := []TrajectoryPoint{
		{X: 0, Y: 0, Frame: 0},
		{X: 10, Y: 0, Frame: 1},
		{X: 20, Y: 0, Frame: 2},
		{X: 30, Y: 0, Frame: 3},
	}
	got := SmoothTrajectory(pts, true)
	if len(got) <= 4 {
		t.Fatalf("output length = %d, want > 4", len(got))
	}
	for i, p := range got {
		if !almostEqual(p.Y, 0) {
			t.Errorf("point %d y = %v, want 0", i, p.Y)
		}
		if i > 0 && p.X < got[i-1].X {
			t.Errorf("x decreased at %d: %v then %v", i, got[i-1].X, p.X)
		}
	}
	if !almostEqual(got[0].X, 0) || !almostEqual(got[len(got)-1].X, 30) {
		t.Errorf("endpoints %v..%v, want 0..30", got[0].X, got[len(got)-1].X)
	}
}

func TestSegmentSampleCountMonotoneAndCapped(t *testing.T) {
	prev := 0
	for ratio := 0.0; ratio <= 5.0; ratio += 0.25 {
		n := segmentSampleCount(ratio, 1)
		if n < prev {
			t.Errorf("sample count decreased at ratio %v: %d after %d", ratio, n, prev)
		}
		if n < minSegmentSamples {
			t.Errorf("ratio %v: count %d below minimum %d", ratio, n, minSegmentSamples)
		}
		prev = n
	}
	// Past the cap the count stops growing.
	atCap := segmentSampleCount(velocityRatioCap, 1)
	beyond := segmentSampleCount(velocityRatioCap*10, 1)
	if beyond != atCap {
		t.Errorf("count beyond cap = %d, want %d", beyond, atCap)
	}
	want := int(math.Round(baseSegmentSamples * (1 + velocityRatioCap*0.5)))
	if atCap != want {
		t.Errorf("count at cap = %d, want %d", atCap, want)
	}
}

func TestSegmentSampleCountZeroMeanVelocity(t *testing.T) {
	if n := segmentSampleCount(0, 0); n != baseSegmentSamples {
		t.Errorf("stationary history sample count = %d, want %d", n, baseSegmentSamples)
	}
}

func TestSmoothTrajectoryStationaryHistoryStaysFinite(t *testing.T) {
	pts := []TrajectoryPoint{
		{X: 5, Y: 5, Frame: 0},
		{X: 5, Y: 5, Frame: 0},
		{X: 5, Y: 5, Frame: 0},
	}
	got := SmoothTrajectory(pts, true)
	if len(got) == 0 {
		t.Fatal("no output for stationary history")
	}
	for i, p := range got {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			t.Fatalf("point %d is not finite: %+v", i, p)
		}
		if !almostEqual(p.X, 5) || !almostEqual(p.Y, 5) {
			t.Errorf("point %d drifted: %+v", i, p)
		}
	}
}

func TestMarkerPoints(t *testing.T) {
	var pts []TrajectoryPoint
	for i := 0; i < 11; i++ {
		pts = append(pts, TrajectoryPoint{X: float64(i), Y: 0, Frame: i})
	}
	got := MarkerPoints(pts)
	if len(got) != 3 {
		t.Fatalf("marker count = %d, want 3", len(got))
	}
	for i, wantX := range []float64{0, 5, 10} {
		if got[i].X != wantX {
			t.Errorf("marker %d x = %v, want %v", i, got[i].X, wantX)
		}
	}
	if got := MarkerPoints(nil); len(got) != 0 {
		t.Errorf("markers for empty history: %d", len(got))
	}
}

func TestSmoothTrajectoryPassesThroughSamples(t *testing.T) {
	pts := []TrajectoryPoint{
		{X: 0, Y: 0, Frame: 0},
		{X: 10, Y: 20, Frame: 1},
		{X: 30, Y: 10, Frame: 2},
		{X: 50, Y: 40, Frame: 3},
	}
	got := SmoothTrajectory(pts, true)
	for _, want := range pts {
		found := false
		for _, p := range got {
			if almostEqual(p.X, want.X) && almostEqual(p.Y, want.Y) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("curve misses sample (%v,%v)", want.X, want.Y)
		}
	}
}

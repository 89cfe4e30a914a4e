package overlay

import (
	"math"
	"testing"

	"github.com/felo/sportai-web-sub011/internal/pose"
)

// rightAngleKps places a wrist, elbow, and shoulder in an exact right
// angle with the elbow at (100,100).
func rightAngleKps() []pose.Keypoint {
	kps := buildKps()
	setKp(kps, 9, 200, 100, 0.9) // wrist, straight right of the elbow
	setKp(kps, 7, 100, 100, 0.9) // elbow
	setKp(kps, 5, 100, 0, 0.9)   // shoulder, straight above
	return kps
}

var elbowSpec = AngleSpec{First: 9, Vertex: 7, Second: 5}

func testLabelParams() LabelParams {
	p := DefaultLabelParams()
	p.MinStableFrames = 3
	return p
}

func TestPlaceAngleLabelsMeasuresVertexAngle(t *testing.T) {
	states := LabelStateMap{}
	labels, placed := PlaceAngleLabels([]AngleSpec{elbowSpec}, rightAngleKps(), testMinConf, states, nil, testLabelParams())
	if len(labels) != 1 {
		t.Fatalf("label count = %d, want 1", len(labels))
	}
	lb := labels[0]
	if !almostEqual(lb.AngleDeg, 90) {
		t.Errorf("angle = %v, want 90", lb.AngleDeg)
	}
	if lb.Text != "90°" {
		t.Errorf("text = %q, want 90 with a degree sign", lb.Text)
	}
	if !almostEqual(lb.Vertex.X, 100) || !almostEqual(lb.Vertex.Y, 100) {
		t.Errorf("vertex = %+v, want (100,100)", lb.Vertex)
	}
	if len(placed) != 1 {
		t.Errorf("placed count = %d, want 1", len(placed))
	}
	if lb.Box.W <= 0 || lb.Box.H <= 0 {
		t.Errorf("degenerate label box %+v", lb.Box)
	}
}

func TestPlaceAngleLabelsStraightLimb(t *testing.T) {
	kps := buildKps()
	setKp(kps, 9, 200, 100, 0.9)
	setKp(kps, 7, 100, 100, 0.9)
	setKp(kps, 5, 0, 100, 0.9)

	states := LabelStateMap{}
	labels, _ := PlaceAngleLabels([]AngleSpec{elbowSpec}, kps, testMinConf, states, nil, testLabelParams())
	if len(labels) != 1 {
		t.Fatalf("label count = %d, want 1", len(labels))
	}
	if !almostEqual(labels[0].AngleDeg, 180) {
		t.Errorf("angle = %v, want 180 for a straight limb", labels[0].AngleDeg)
	}
}

func TestPlaceAngleLabelsHysteresisRejectsMarginalMove(t *testing.T) {
	states := LabelStateMap{}
	params := testLabelParams()

	labels, _ := PlaceAngleLabels([]AngleSpec{elbowSpec}, rightAngleKps(), testMinConf, states, nil, params)
	adopted := labels[0].Placement
	for i := 0; i < 4; i++ {
		PlaceAngleLabels([]AngleSpec{elbowSpec}, rightAngleKps(), testMinConf, states, nil, params)
	}
	if states[elbowSpec].FramesSinceChange < params.MinStableFrames {
		t.Fatalf("stability = %d, want at least %d", states[elbowSpec].FramesSinceChange, params.MinStableFrames)
	}

	// Swing the shoulder so the preferred position shifts, without any
	// collision pressure.
	perturbed := buildKps()
	setKp(perturbed, 9, 200, 100, 0.9)
	setKp(perturbed, 7, 100, 100, 0.9)
	setKp(perturbed, 5, 10, 80, 0.9)

	fresh := LabelStateMap{}
	freshLabels, _ := PlaceAngleLabels([]AngleSpec{elbowSpec}, perturbed, testMinConf, fresh, nil, params)
	if freshLabels[0].Placement == adopted {
		t.Skip("perturbation no longer shifts the preferred position")
	}

	labels, _ = PlaceAngleLabels([]AngleSpec{elbowSpec}, perturbed, testMinConf, states, nil, params)
	if labels[0].Placement != adopted {
		t.Errorf("placement moved to %d for a marginal alternative, want %d kept", labels[0].Placement, adopted)
	}
}

func TestPlaceAngleLabelsCollisionForcesMove(t *testing.T) {
	states := LabelStateMap{}
	params := testLabelParams()

	labels, _ := PlaceAngleLabels([]AngleSpec{elbowSpec}, rightAngleKps(), testMinConf, states, nil, params)
	adopted := labels[0].Placement
	obstacle := labels[0].Box

	// The very next frame an obstacle covers the adopted position; zero
	// accumulated stability must not block the move.
	labels, placed := PlaceAngleLabels([]AngleSpec{elbowSpec}, rightAngleKps(), testMinConf, states, []Rect{obstacle}, params)
	if len(labels) != 1 {
		t.Fatalf("label count = %d, want 1", len(labels))
	}
	if labels[0].Placement == adopted {
		t.Errorf("placement stayed at %d despite a collision", adopted)
	}
	if labels[0].Box.Intersects(obstacle) {
		t.Errorf("relocated box %+v still collides with %+v", labels[0].Box, obstacle)
	}
	if len(placed) != 2 {
		t.Errorf("placed count = %d, want obstacle plus label", len(placed))
	}
}

func TestPlaceAngleLabelsPersistentCollisionMovesAfterStability(t *testing.T) {
	states := LabelStateMap{}
	params := testLabelParams()

	// Block the naturally preferred spot so the label settles elsewhere.
	first, _ := PlaceAngleLabels([]AngleSpec{elbowSpec}, rightAngleKps(), testMinConf, LabelStateMap{}, nil, params)
	preferredBox := first[0].Box

	labels, _ := PlaceAngleLabels([]AngleSpec{elbowSpec}, rightAngleKps(), testMinConf, states, []Rect{preferredBox}, params)
	settled := labels[0].Placement
	if settled == first[0].Placement {
		t.Fatalf("label did not avoid the blocked preference")
	}
	for i := 0; i < params.MinStableFrames; i++ {
		PlaceAngleLabels([]AngleSpec{elbowSpec}, rightAngleKps(), testMinConf, states, []Rect{preferredBox}, params)
	}

	// A wall over every candidate position keeps the collision alive;
	// having been stable, the label may fall back to the top preference.
	wall := Rect{X: -1000, Y: -1000, W: 3000, H: 3000}
	labels, _ = PlaceAngleLabels([]AngleSpec{elbowSpec}, rightAngleKps(), testMinConf, states, []Rect{wall}, params)
	if labels[0].Placement == settled {
		t.Errorf("placement stayed at %d under a persistent collision past stability", settled)
	}
}

func TestPlaceAngleLabelsSharedVertexNoOverlap(t *testing.T) {
	kps := buildKps()
	setKp(kps, 9, 200, 100, 0.9)
	setKp(kps, 7, 100, 100, 0.9)
	setKp(kps, 5, 100, 0, 0.9)
	setKp(kps, 11, 100, 200, 0.9)
	specA := AngleSpec{First: 9, Vertex: 7, Second: 5}
	specB := AngleSpec{First: 9, Vertex: 7, Second: 11}

	states := LabelStateMap{}
	labels, placed := PlaceAngleLabels([]AngleSpec{specA, specB}, kps, testMinConf, states, nil, testLabelParams())
	if len(labels) != 2 {
		t.Fatalf("label count = %d, want 2", len(labels))
	}
	if labels[0].Box.Intersects(labels[1].Box) {
		t.Errorf("same-vertex labels overlap: %+v and %+v", labels[0].Box, labels[1].Box)
	}
	if len(placed) != 2 {
		t.Errorf("placed count = %d, want 2", len(placed))
	}
}

func TestPlaceAngleLabelsPrunesStaleTriples(t *testing.T) {
	stale := AngleSpec{First: 1, Vertex: 2, Second: 3}
	states := LabelStateMap{
		stale: {Placement: 4, FramesSinceChange: 20},
	}
	PlaceAngleLabels([]AngleSpec{elbowSpec}, rightAngleKps(), testMinConf, states, nil, testLabelParams())
	if _, ok := states[stale]; ok {
		t.Error("stale triple survived pruning")
	}
	if _, ok := states[elbowSpec]; !ok {
		t.Error("requested triple missing from state map")
	}
}

func TestPlaceAngleLabelsLowConfidenceSkipsButKeepsState(t *testing.T) {
	kps := rightAngleKps()
	kps[7].Confidence = 0.1

	states := LabelStateMap{
		elbowSpec: {Placement: 5, FramesSinceChange: 7},
	}
	labels, placed := PlaceAngleLabels([]AngleSpec{elbowSpec}, kps, testMinConf, states, nil, testLabelParams())
	if len(labels) != 0 {
		t.Fatalf("label count = %d, want 0 for an unreliable vertex", len(labels))
	}
	if len(placed) != 0 {
		t.Errorf("placed count = %d, want 0", len(placed))
	}
	st, ok := states[elbowSpec]
	if !ok {
		t.Fatal("state pruned for a still-requested triple")
	}
	if st.Placement != 5 || st.FramesSinceChange != 7 {
		t.Errorf("state mutated while skipped: %+v", st)
	}
}

func TestPlaceAngleLabelsDegenerateRay(t *testing.T) {
	kps := buildKps()
	setKp(kps, 9, 100, 100, 0.9) // wrist sits exactly on the elbow
	setKp(kps, 7, 100, 100, 0.9)
	setKp(kps, 5, 100, 0, 0.9)

	states := LabelStateMap{}
	labels, _ := PlaceAngleLabels([]AngleSpec{elbowSpec}, kps, testMinConf, states, nil, testLabelParams())
	if len(labels) != 0 {
		t.Fatalf("label count = %d, want 0 for a zero-length ray", len(labels))
	}
}

func TestVertexAngleKnownValues(t *testing.T) {
	tests := []struct {
		name   string
		first  pose.Keypoint
		second pose.Keypoint
		want   float64
	}{
		{"right angle", pose.Keypoint{X: 1, Y: 0}, pose.Keypoint{X: 0, Y: 1}, 90},
		{"straight", pose.Keypoint{X: 1, Y: 0}, pose.Keypoint{X: -1, Y: 0}, 180},
		{"acute", pose.Keypoint{X: 1, Y: 0}, pose.Keypoint{X: 1, Y: 1}, 45},
		{"closed", pose.Keypoint{X: 2, Y: 0}, pose.Keypoint{X: 5, Y: 0}, 0},
	}
	vertex := pose.Keypoint{X: 0, Y: 0}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := vertexAngle(tt.first, vertex, tt.second)
			if !ok {
				t.Fatal("vertexAngle reported degenerate rays")
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("angle = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRectIntersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	tests := []struct {
		name string
		b    Rect
		want bool
	}{
		{"overlapping", Rect{X: 5, Y: 5, W: 10, H: 10}, true},
		{"contained", Rect{X: 2, Y: 2, W: 3, H: 3}, true},
		{"disjoint", Rect{X: 20, Y: 0, W: 5, H: 5}, false},
		{"edge touching", Rect{X: 10, Y: 0, W: 5, H: 5}, false},
		{"corner touching", Rect{X: 10, Y: 10, W: 5, H: 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Intersects(tt.b); got != tt.want {
				t.Errorf("Intersects = %v, want %v", got, tt.want)
			}
			if got := tt.b.Intersects(a); got != tt.want {
				t.Errorf("reverse Intersects = %v, want %v", got, tt.want)
			}
		})
	}
}

package overlay

import (
	"fmt"
	"math"
	"sort"

	"github.com/felo/sportai-web-sub011/internal/pose"
	"github.com/felo/sportai-web-sub011/internal/units"
)

// AngleSpec names one joint angle by keypoint index: the angle at Vertex
// between the rays toward First and Second.
type AngleSpec struct {
	First  int
	Vertex int
	Second int
}

// DefaultAngleSpecs measures both elbows and both knees under the given
// model's keypoint layout.
func DefaultAngleSpecs(model pose.Model) []AngleSpec {
	lm := pose.LandmarksFor(model)
	return []AngleSpec{
		{First: lm.LeftShoulder, Vertex: lm.LeftElbow, Second: lm.LeftWrist},
		{First: lm.RightShoulder, Vertex: lm.RightElbow, Second: lm.RightWrist},
		{First: lm.LeftHip, Vertex: lm.LeftKnee, Second: lm.LeftAnkle},
		{First: lm.RightHip, Vertex: lm.RightKnee, Second: lm.RightAnkle},
	}
}

// LabelParams holds the label layout and hysteresis settings.
type LabelParams struct {
	// MinStableFrames is how long a placement must survive before a
	// persistent collision may push the label to a spot that is still
	// imperfect.
	MinStableFrames int
	FontSize        float64
	Padding         float64
	// Radius is the distance from the vertex to the label center.
	Radius float64
}

// DefaultLabelParams returns the production label settings.
func DefaultLabelParams() LabelParams {
	return LabelParams{
		MinStableFrames: 10,
		FontSize:        14,
		Padding:         4,
		Radius:          28,
	}
}

// placementCount is the number of candidate label positions around a
// vertex, one every 45 degrees.
const placementCount = 8

// LabelState is the per-triple hysteresis record carried between frames.
type LabelState struct {
	// Placement is the adopted position index in [0,placementCount).
	Placement int
	// FramesSinceChange counts consecutive frames the placement survived.
	FramesSinceChange int
}

// LabelStateMap threads hysteresis state through successive frames. The
// caller owns it and passes it to every PlaceAngleLabels call; entries for
// triples no longer requested are pruned automatically.
type LabelStateMap map[AngleSpec]*LabelState

// AngleLabel is one measured, placed joint angle ready to draw.
type AngleLabel struct {
	Spec      AngleSpec
	AngleDeg  float64
	Vertex    Point
	Box       Rect
	Placement int
	Text      string
}

// PlaceAngleLabels measures the requested joint angles on surface-space
// keypoints and chooses flicker-resistant, non-overlapping label positions.
//
// placed carries bounding boxes already claimed this frame (labels from
// other overlays, for example); boxes chosen here are appended and the
// combined set returned, so later calls in the same frame avoid them.
// Triples whose keypoints fall below minConf are skipped for the frame but
// keep their hysteresis state.
func PlaceAngleLabels(specs []AngleSpec, kps []pose.Keypoint, minConf float64, states LabelStateMap, placed []Rect, params LabelParams) ([]AngleLabel, []Rect) {
	labels := make([]AngleLabel, 0, len(specs))
	requested := make(map[AngleSpec]bool, len(specs))

	for _, spec := range specs {
		requested[spec] = true

		p := pose.Pose{Keypoints: kps}
		first := p.Keypoint(spec.First)
		vertex := p.Keypoint(spec.Vertex)
		second := p.Keypoint(spec.Second)
		if !first.Confident(minConf) || !vertex.Confident(minConf) || !second.Confident(minConf) {
			continue
		}

		angle, ok := vertexAngle(first, vertex, second)
		if !ok {
			continue
		}
		text := fmt.Sprintf("%.0f°", angle)
		v := Point{X: vertex.X, Y: vertex.Y}

		prefs := placementPreferences(first, vertex, second)
		boxes := placementBoxes(v, text, params)
		candidate := pickCandidate(prefs, boxes, placed)

		st, exists := states[spec]
		if !exists {
			st = &LabelState{Placement: candidate}
			states[spec] = st
		} else if candidate != st.Placement {
			currentCollides := anyIntersect(boxes[st.Placement], placed)
			candidateClear := !anyIntersect(boxes[candidate], placed)
			resolves := currentCollides && candidateClear
			forced := currentCollides && st.FramesSinceChange >= params.MinStableFrames
			if resolves || forced {
				st.Placement = candidate
				st.FramesSinceChange = 0
			} else {
				st.FramesSinceChange++
			}
		} else {
			st.FramesSinceChange++
		}

		box := boxes[st.Placement]
		placed = append(placed, box)
		labels = append(labels, AngleLabel{
			Spec:      spec,
			AngleDeg:  angle,
			Vertex:    v,
			Box:       box,
			Placement: st.Placement,
			Text:      text,
		})
	}

	for spec := range states {
		if !requested[spec] {
			delete(states, spec)
		}
	}
	return labels, placed
}

// vertexAngle measures the angle at vertex in degrees [0,180]. It reports
// false when either ray has zero length.
func vertexAngle(first, vertex, second pose.Keypoint) (float64, bool) {
	ux := first.X - vertex.X
	uy := first.Y - vertex.Y
	wx := second.X - vertex.X
	wy := second.Y - vertex.Y

	lu := math.Hypot(ux, uy)
	lw := math.Hypot(wx, wy)
	if lu == 0 || lw == 0 {
		return 0, false
	}
	cos := units.Clamp((ux*wx+uy*wy)/(lu*lw), -1, 1)
	return units.RadToDeg(math.Acos(cos)), true
}

// placementPreferences orders the candidate positions by how close each
// lies to the joint's outward bisector, so the first choice sits in the
// open side of the angle away from both limbs.
func placementPreferences(first, vertex, second pose.Keypoint) []int {
	ux, uy := unitVec(first.X-vertex.X, first.Y-vertex.Y)
	wx, wy := unitVec(second.X-vertex.X, second.Y-vertex.Y)

	ox := -(ux + wx)
	oy := -(uy + wy)
	if math.Hypot(ox, oy) < 1e-9 {
		// Straight angle: step off perpendicular to the limbs.
		ox, oy = -uy, ux
	}
	outward := units.RadToDeg(math.Atan2(oy, ox))

	prefs := make([]int, placementCount)
	for i := range prefs {
		prefs[i] = i
	}
	sort.SliceStable(prefs, func(a, b int) bool {
		da := math.Abs(units.ShortestDeltaDeg(placementAngle(prefs[a]), outward))
		db := math.Abs(units.ShortestDeltaDeg(placementAngle(prefs[b]), outward))
		return da < db
	})
	return prefs
}

// placementAngle returns the direction of placement index i in degrees.
func placementAngle(i int) float64 {
	return float64(i) * 360 / placementCount
}

// placementBoxes computes the label bounding box at each candidate
// position. Text extent is approximated from the font size.
func placementBoxes(vertex Point, text string, params LabelParams) [placementCount]Rect {
	w := float64(len([]rune(text)))*params.FontSize*0.6 + 2*params.Padding
	h := params.FontSize + 2*params.Padding

	var boxes [placementCount]Rect
	for i := range boxes {
		a := units.DegToRad(placementAngle(i))
		cx := vertex.X + math.Cos(a)*params.Radius
		cy := vertex.Y + math.Sin(a)*params.Radius
		boxes[i] = Rect{X: cx - w/2, Y: cy - h/2, W: w, H: h}
	}
	return boxes
}

// pickCandidate returns the most preferred placement whose box avoids all
// already-placed boxes, or the top preference when every position collides.
func pickCandidate(prefs []int, boxes [placementCount]Rect, placed []Rect) int {
	for _, i := range prefs {
		if !anyIntersect(boxes[i], placed) {
			return i
		}
	}
	return prefs[0]
}

func anyIntersect(box Rect, placed []Rect) bool {
	for _, r := range placed {
		if box.Intersects(r) {
			return true
		}
	}
	return false
}

func unitVec(x, y float64) (float64, float64) {
	l := math.Hypot(x, y)
	if l == 0 {
		return 0, 0
	}
	return x / l, y / l
}

package overlay

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/felo/sportai-web-sub011/internal/pose"
	"github.com/felo/sportai-web-sub011/internal/units"
)

// Surface receives primitive draw calls in surface pixels. Implementations
// draw onto an image, a video frame, or a test recorder; the caller owns
// the surface lifecycle.
type Surface interface {
	Clear()
	Size() (w, h float64)
	Line(x1, y1, x2, y2 float64, c color.RGBA, width float64)
	Polyline(pts []Point, c color.RGBA, width float64)
	Circle(cx, cy, r float64, c color.RGBA, width float64, fill bool)
	Rect(r Rect, c color.RGBA, width float64)
	Arc(cx, cy, r, startDeg, endDeg float64, c color.RGBA, width float64)
	Text(s string, x, y float64, c color.RGBA, sizePx float64)
}

// Style holds per-layer colors and stroke widths.
type Style struct {
	TrajectoryColor  color.RGBA
	TrajectoryWidth  float64
	MarkerColor      color.RGBA
	MarkerRadius     float64
	SkeletonColor    color.RGBA
	SkeletonWidth    float64
	JointColor       color.RGBA
	JointRadius      float64
	BoxColor         color.RGBA
	BoxWidth         float64
	OrientationColor color.RGBA
	AngleColor       color.RGBA
	AngleTextColor   color.RGBA
	ObjectColor      color.RGBA
	ProjectileColor  color.RGBA
	CourtColor       color.RGBA
	CourtWidth       float64
}

// DefaultStyle returns the stock overlay palette.
func DefaultStyle() Style {
	return Style{
		TrajectoryColor:  color.RGBA{R: 255, G: 196, B: 0, A: 255},
		TrajectoryWidth:  2,
		MarkerColor:      color.RGBA{R: 255, G: 255, B: 255, A: 255},
		MarkerRadius:     3,
		SkeletonColor:    color.RGBA{R: 0, G: 220, B: 130, A: 255},
		SkeletonWidth:    2,
		JointColor:       color.RGBA{R: 255, G: 255, B: 255, A: 255},
		JointRadius:      3,
		BoxColor:         color.RGBA{R: 0, G: 160, B: 255, A: 255},
		BoxWidth:         1,
		OrientationColor: color.RGBA{R: 255, G: 80, B: 80, A: 255},
		AngleColor:       color.RGBA{R: 255, G: 230, B: 0, A: 255},
		AngleTextColor:   color.RGBA{R: 20, G: 20, B: 20, A: 255},
		ObjectColor:      color.RGBA{R: 255, G: 120, B: 0, A: 255},
		ProjectileColor:  color.RGBA{R: 255, G: 60, B: 200, A: 255},
		CourtColor:       color.RGBA{R: 120, G: 200, B: 255, A: 255},
		CourtWidth:       2,
	}
}

// ObjectBox is one detected non-person object in detection space.
type ObjectBox struct {
	Label      string
	Confidence float64
	Box        Rect
}

// FrameInput carries everything the dispatcher needs for one frame. All
// coordinates are in detection space; the dispatcher maps them.
type FrameInput struct {
	Model       pose.Model
	VideoWidth  float64
	VideoHeight float64
	Poses       []pose.Pose
	// Trajectories maps joint index to that joint's recent history.
	Trajectories map[int][]TrajectoryPoint
	Objects      []ObjectBox
	Projectile   []TrajectoryPoint
	Court        []Point
}

// Options selects overlays and styling for one render call. Nothing here
// persists inside the dispatcher.
type Options struct {
	ShowTrajectories   bool
	ShowSkeleton       bool
	ShowBoxes          bool
	ShowOrientation    bool
	ShowAngles         bool
	ShowObjects        bool
	ShowProjectile     bool
	ShowCourt          bool
	SmoothTrajectories bool
	MinConfidence      float64
	AngleSpecs         []AngleSpec
	Labels             LabelParams
	Style              Style
}

// DefaultOptions enables every overlay with stock styling.
func DefaultOptions() Options {
	return Options{
		ShowTrajectories:   true,
		ShowSkeleton:       true,
		ShowBoxes:          true,
		ShowOrientation:    true,
		ShowAngles:         true,
		ShowObjects:        true,
		ShowProjectile:     true,
		ShowCourt:          true,
		SmoothTrajectories: true,
		MinConfidence:      0.3,
		Labels:             DefaultLabelParams(),
		Style:              DefaultStyle(),
	}
}

// RenderResult reports what one frame actually drew.
type RenderResult struct {
	// Orientation is nil when the estimator had no confident core.
	Orientation *OrientationEstimate
	Labels      []AngleLabel
	DrawnPoses  int
}

// RenderFrame draws all enabled overlays for one frame.
//
// Layer order is a contract: trajectories, then skeletons and tracking
// boxes, then angle measurements, then object boxes, then the projectile
// trail, then the court boundary. Later layers always paint on top.
//
// The orientation tracker and label state map are the only state that
// survives between calls; both belong to the caller's session.
func RenderFrame(s Surface, in FrameInput, opts Options, tracker *OrientationTracker, labels LabelStateMap) RenderResult {
	s.Clear()

	sw, sh := s.Size()
	m := NewMapper(sw, sh, in.VideoWidth, in.VideoHeight, in.Model)

	var result RenderResult

	if opts.ShowTrajectories {
		drawTrajectories(s, m, in.Trajectories, opts)
	}

	if opts.ShowSkeleton || opts.ShowBoxes || opts.ShowOrientation {
		result.Orientation = drawPoses(s, m, in, opts, tracker)
		result.DrawnPoses = len(in.Poses)
	}

	if opts.ShowAngles && len(opts.AngleSpecs) > 0 && len(in.Poses) > 0 {
		result.Labels = drawAngles(s, m, in.Poses[0], opts, labels)
	} else {
		// Triples are pruned even on frames with nothing to measure.
		for spec := range labels {
			delete(labels, spec)
		}
	}

	if opts.ShowObjects {
		drawObjects(s, m, in.Objects, opts.Style)
	}

	if opts.ShowProjectile && len(in.Projectile) > 0 {
		drawProjectile(s, m, in.Projectile, opts.Style)
	}

	if opts.ShowCourt && len(in.Court) >= 2 {
		drawCourt(s, m, in.Court, opts.Style)
	}

	return result
}

func drawTrajectories(s Surface, m *Mapper, trajectories map[int][]TrajectoryPoint, opts Options) {
	joints := make([]int, 0, len(trajectories))
	for j := range trajectories {
		joints = append(joints, j)
	}
	sort.Ints(joints)

	for _, j := range joints {
		history := trajectories[j]
		if len(history) == 0 {
			continue
		}
		mapped := make([]TrajectoryPoint, len(history))
		for i, tp := range history {
			x, y := m.Map(tp.X, tp.Y)
			mapped[i] = TrajectoryPoint{X: x, Y: y, Frame: tp.Frame}
		}

		path := SmoothTrajectory(mapped, opts.SmoothTrajectories)
		if len(path) >= 2 {
			s.Polyline(path, opts.Style.TrajectoryColor, opts.Style.TrajectoryWidth)
		}
		for _, mk := range MarkerPoints(mapped) {
			s.Circle(mk.X, mk.Y, opts.Style.MarkerRadius, opts.Style.MarkerColor, 1, true)
		}
	}
}

// drawPoses draws skeletons and tracking boxes, plus the facing indicator
// for the primary (first) pose.
func drawPoses(s Surface, m *Mapper, in FrameInput, opts Options, tracker *OrientationTracker) *OrientationEstimate {
	var estimate *OrientationEstimate

	for pi, p := range in.Poses {
		if opts.ShowSkeleton {
			drawSkeleton(s, m, p, in.Model, opts)
		}
		if opts.ShowBoxes && p.Box != nil {
			box := m.MapRect(Rect{X: p.Box.X, Y: p.Box.Y, W: p.Box.W, H: p.Box.H})
			s.Rect(box, opts.Style.BoxColor, opts.Style.BoxWidth)
			if p.TrackID != "" {
				s.Text(p.TrackID, box.X, box.Y-4, opts.Style.BoxColor, 11)
			}
		}
		if opts.ShowOrientation && pi == 0 && tracker != nil {
			estimate = tracker.Estimate(p.Keypoints, in.Model, opts.MinConfidence)
			if estimate != nil {
				drawOrientation(s, m, estimate, opts.Style)
			}
		}
	}
	return estimate
}

func drawSkeleton(s Surface, m *Mapper, p pose.Pose, model pose.Model, opts Options) {
	for _, edge := range pose.SkeletonEdges(model) {
		a := p.Keypoint(edge[0])
		b := p.Keypoint(edge[1])
		if !a.Confident(opts.MinConfidence) || !b.Confident(opts.MinConfidence) {
			continue
		}
		ax, ay := m.Map(a.X, a.Y)
		bx, by := m.Map(b.X, b.Y)
		s.Line(ax, ay, bx, by, opts.Style.SkeletonColor, opts.Style.SkeletonWidth)
	}
	for _, k := range p.Keypoints {
		if !k.Confident(opts.MinConfidence) {
			continue
		}
		x, y := m.Map(k.X, k.Y)
		s.Circle(x, y, opts.Style.JointRadius, opts.Style.JointColor, 1, true)
	}
}

// drawOrientation renders the ground facing indicator: a ring at the
// anchor with an arrow pointing the way the torso faces. Angle zero points
// at the camera, which on screen is straight down the flattened ring.
func drawOrientation(s Surface, m *Mapper, est *OrientationEstimate, style Style) {
	cx, cy := m.Map(est.Anchor.X, est.Anchor.Y)
	r := 26 * m.Scale()
	if m.Identity() {
		r = 26
	}

	a := units.DegToRad(est.AngleDeg)
	dx := math.Sin(a) * r
	dy := math.Cos(a) * r * 0.35

	s.Arc(cx, cy, r, 0, 360, style.OrientationColor, 1)
	s.Line(cx, cy, cx+dx, cy+dy, style.OrientationColor, 2)
	s.Circle(cx+dx, cy+dy, 3, style.OrientationColor, 1, true)
	s.Text(formatDegrees(est.AngleDeg), cx+r+6, cy, style.OrientationColor, 12)
}

func drawAngles(s Surface, m *Mapper, p pose.Pose, opts Options, states LabelStateMap) []AngleLabel {
	mapped := make([]pose.Keypoint, len(p.Keypoints))
	for i, k := range p.Keypoints {
		x, y := m.Map(k.X, k.Y)
		mapped[i] = pose.Keypoint{X: x, Y: y, Confidence: k.Confidence, Name: k.Name}
	}

	labels, _ := PlaceAngleLabels(opts.AngleSpecs, mapped, opts.MinConfidence, states, nil, opts.Labels)
	for _, lb := range labels {
		drawAngleLabel(s, mapped, lb, opts)
	}
	return labels
}

func drawAngleLabel(s Surface, kps []pose.Keypoint, lb AngleLabel, opts Options) {
	p := pose.Pose{Keypoints: kps}
	first := p.Keypoint(lb.Spec.First)
	second := p.Keypoint(lb.Spec.Second)

	// Arc across the measured angle, inside the joint.
	startDeg := units.RadToDeg(math.Atan2(first.Y-lb.Vertex.Y, first.X-lb.Vertex.X))
	endDeg := units.RadToDeg(math.Atan2(second.Y-lb.Vertex.Y, second.X-lb.Vertex.X))
	sweep := units.ShortestDeltaDeg(startDeg, endDeg)
	if sweep < 0 {
		startDeg, sweep = endDeg, -sweep
	}
	arcR := opts.Labels.Radius * 0.6
	s.Arc(lb.Vertex.X, lb.Vertex.Y, arcR, startDeg, startDeg+sweep, opts.Style.AngleColor, 2)

	s.Rect(lb.Box, opts.Style.AngleColor, 1)
	s.Text(lb.Text, lb.Box.X+opts.Labels.Padding, lb.Box.Y+lb.Box.H-opts.Labels.Padding, opts.Style.AngleTextColor, opts.Labels.FontSize)
}

func drawObjects(s Surface, m *Mapper, objects []ObjectBox, style Style) {
	for _, o := range objects {
		box := m.MapRect(o.Box)
		s.Rect(box, style.ObjectColor, 1)
		if o.Label != "" {
			s.Text(o.Label, box.X, box.Y-4, style.ObjectColor, 11)
		}
	}
}

func drawProjectile(s Surface, m *Mapper, trail []TrajectoryPoint, style Style) {
	mapped := make([]TrajectoryPoint, len(trail))
	for i, tp := range trail {
		x, y := m.Map(tp.X, tp.Y)
		mapped[i] = TrajectoryPoint{X: x, Y: y, Frame: tp.Frame}
	}
	path := SmoothTrajectory(mapped, true)
	if len(path) >= 2 {
		s.Polyline(path, style.ProjectileColor, 2)
	}
	last := mapped[len(mapped)-1]
	s.Circle(last.X, last.Y, 5, style.ProjectileColor, 1, true)
}

func drawCourt(s Surface, m *Mapper, court []Point, style Style) {
	pts := make([]Point, 0, len(court)+1)
	for _, p := range court {
		pts = append(pts, m.MapPoint(p.X, p.Y))
	}
	pts = append(pts, pts[0])
	s.Polyline(pts, style.CourtColor, style.CourtWidth)
}

func formatDegrees(deg float64) string {
	return fmt.Sprintf("%.0f°", deg)
}

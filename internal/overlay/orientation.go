package overlay

import (
	"math"
	"sync"

	"github.com/felo/sportai-web-sub011/internal/pose"
	"github.com/felo/sportai-web-sub011/internal/units"
)

// OrientationParams holds the calibration constants of the facing
// estimator. The direction weights and the knee bend threshold are
// empirically tuned; changes to them shift estimator output and should be
// made deliberately through the tuning config.
type OrientationParams struct {
	// Direction signal weights. They sum to one.
	ShoulderWeight float64
	HipWeight      float64
	TwistWeight    float64
	WristWeight    float64
	KneeWeight     float64

	// KneeBendRatio is the horizontal ankle-to-knee separation, as a
	// fraction of vertical knee-to-hip distance, above which a knee counts
	// as bent.
	KneeBendRatio float64

	// ReferenceRatio is the shoulder-width to torso-height ratio of a
	// person standing square to the camera.
	ReferenceRatio float64

	// Temporal smoothing gains.
	MomentumDecay float64
	MomentumGain  float64
	DeltaGain     float64
	MomentumApply float64
}

// DefaultOrientationParams returns the calibrated production constants.
func DefaultOrientationParams() OrientationParams {
	return OrientationParams{
		ShoulderWeight: 0.3,
		HipWeight:      0.25,
		TwistWeight:    0.15,
		WristWeight:    0.1,
		KneeWeight:     0.2,
		KneeBendRatio:  0.15,
		ReferenceRatio: 0.8,
		MomentumDecay:  0.7,
		MomentumGain:   0.3,
		DeltaGain:      0.4,
		MomentumApply:  0.2,
	}
}

// OrientationEstimate is one frame's facing result. AngleDeg is in
// (-180,180], where 0 faces the camera and positive angles turn toward the
// person's right. Anchor is a detection-space ground point suitable for
// drawing a facing indicator. Confidence is the mean confidence of the four
// core keypoints.
type OrientationEstimate struct {
	AngleDeg   float64
	Anchor     Point
	Confidence float64
}

// OrientationTracker fuses per-frame directional cues into a temporally
// smoothed facing angle. One tracker serves one viewing session; call Reset
// when the session or video changes so state never bleeds across.
type OrientationTracker struct {
	mu        sync.Mutex
	params    OrientationParams
	prevAngle float64
	momentum  float64
	hasPrev   bool
}

// NewOrientationTracker creates a tracker with the given calibration.
func NewOrientationTracker(params OrientationParams) *OrientationTracker {
	return &OrientationTracker{params: params}
}

// Reset clears the smoothing state. The next estimate passes through
// unsmoothed.
func (t *OrientationTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prevAngle = 0
	t.momentum = 0
	t.hasPrev = false
}

// Estimate computes the smoothed facing angle for one pose. It returns nil
// when either shoulder or either hip falls below minConf; a missing frame
// never fabricates an angle and never disturbs the smoothing state.
func (t *OrientationTracker) Estimate(kps []pose.Keypoint, model pose.Model, minConf float64) *OrientationEstimate {
	lm := pose.LandmarksFor(model)
	p := pose.Pose{Keypoints: kps}

	ls := p.Keypoint(lm.LeftShoulder)
	rs := p.Keypoint(lm.RightShoulder)
	lh := p.Keypoint(lm.LeftHip)
	rh := p.Keypoint(lm.RightHip)
	if !ls.Confident(minConf) || !rs.Confident(minConf) ||
		!lh.Confident(minConf) || !rh.Confident(minConf) {
		return nil
	}

	shoulderMid := Point{X: (ls.X + rs.X) / 2, Y: (ls.Y + rs.Y) / 2}
	hipMid := Point{X: (lh.X + rh.X) / 2, Y: (lh.Y + rh.Y) / 2}

	torsoHeight := math.Abs(shoulderMid.Y - hipMid.Y)
	if torsoHeight == 0 {
		torsoHeight = 1
	}

	// Apparent shoulder width shrinks as the torso rotates away from
	// square; the arccos of the width ratio recovers the rotation size.
	shoulderWidth := math.Abs(rs.X - ls.X)
	ratio := units.Clamp(shoulderWidth/torsoHeight/t.params.ReferenceRatio, 0, 1)
	magnitude := units.RadToDeg(math.Acos(ratio))

	direction := t.directionSign(p, lm, minConf, shoulderMid, hipMid)

	// A camera-facing person shows their left side on the image's right.
	shouldersFacing := rs.X < ls.X
	hipsFacing := rh.X < lh.X

	var raw float64
	switch {
	case shouldersFacing && hipsFacing:
		raw = direction * magnitude
	case !shouldersFacing && !hipsFacing:
		raw = direction * (180 - magnitude)
	default:
		// Shoulders and hips disagree mid-turn; snap to a clean profile.
		raw = direction * 90
	}
	raw = units.NormalizeDeg(raw)
	if !units.IsFinite(raw) {
		return nil
	}

	return &OrientationEstimate{
		AngleDeg:   t.smooth(raw),
		Anchor:     anchorPoint(p, lm, minConf, hipMid, torsoHeight),
		Confidence: (ls.Confidence + rs.Confidence + lh.Confidence + rh.Confidence) / 4,
	}
}

// directionSign resolves whether the turn is toward the person's left or
// right. Five weighted cues vote; the sign of their sum decides. A tied or
// empty vote counts as a right turn so the result is deterministic.
func (t *OrientationTracker) directionSign(p pose.Pose, lm pose.Landmarks, minConf float64, shoulderMid, hipMid Point) float64 {
	ls := p.Keypoint(lm.LeftShoulder)
	rs := p.Keypoint(lm.RightShoulder)
	lh := p.Keypoint(lm.LeftHip)
	rh := p.Keypoint(lm.RightHip)

	// Horizontal extent of the torso quad; midpoints shifted off its
	// center indicate rotation.
	left := math.Min(math.Min(ls.X, rs.X), math.Min(lh.X, rh.X))
	right := math.Max(math.Max(ls.X, rs.X), math.Max(lh.X, rh.X))
	extentCenter := (left + right) / 2

	sum := t.params.ShoulderWeight * signVote(shoulderMid.X-extentCenter)
	sum += t.params.HipWeight * signVote(hipMid.X-extentCenter)
	sum += t.params.TwistWeight * signVote(shoulderMid.X-hipMid.X)

	lw := p.Keypoint(lm.LeftWrist)
	rw := p.Keypoint(lm.RightWrist)
	if lw.Confident(minConf) && rw.Confident(minConf) {
		wristMidX := (lw.X + rw.X) / 2
		sum += t.params.WristWeight * signVote(wristMidX-shoulderMid.X)
	}

	sum += t.params.KneeWeight * t.kneeVote(p, lm, minConf)

	if sum < 0 {
		return -1
	}
	return 1
}

// kneeVote derives a directional cue from knee flexion. A knee can only
// fold the shin backward relative to the thigh, so a confidently bent
// knee's ankle offset tells which way the body points. The vote sign is
// negated to match the estimator's turn convention.
func (t *OrientationTracker) kneeVote(p pose.Pose, lm pose.Landmarks, minConf float64) float64 {
	sides := []struct{ hip, knee, ankle int }{
		{lm.LeftHip, lm.LeftKnee, lm.LeftAnkle},
		{lm.RightHip, lm.RightKnee, lm.RightAnkle},
	}
	var total float64
	for _, s := range sides {
		hip := p.Keypoint(s.hip)
		knee := p.Keypoint(s.knee)
		ankle := p.Keypoint(s.ankle)
		if !hip.Confident(minConf) || !knee.Confident(minConf) || !ankle.Confident(minConf) {
			continue
		}
		thigh := math.Abs(knee.Y - hip.Y)
		offset := ankle.X - knee.X
		if math.Abs(offset) <= t.params.KneeBendRatio*thigh {
			continue
		}
		total += signVote(offset)
	}
	return -signVote(total)
}

// smooth advances the session state by one raw estimate and returns the
// smoothed angle. The delta is taken along the shortest arc so estimates
// crossing the +-180 seam move a couple of degrees, not a full turn.
func (t *OrientationTracker) smooth(raw float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.hasPrev {
		t.prevAngle = raw
		t.momentum = 0
		t.hasPrev = true
		return raw
	}

	delta := units.ShortestDeltaDeg(t.prevAngle, raw)
	t.momentum = t.params.MomentumDecay*t.momentum + t.params.MomentumGain*delta
	next := t.prevAngle + delta*t.params.DeltaGain + t.momentum*t.params.MomentumApply
	next = units.NormalizeDeg(next)
	t.prevAngle = next
	return next
}

// anchorPoint picks a detection-space ground point for the facing
// indicator: between the ankles when both are visible, beside a single
// visible ankle, or projected below the hips as a last resort.
func anchorPoint(p pose.Pose, lm pose.Landmarks, minConf float64, hipMid Point, torsoHeight float64) Point {
	la := p.Keypoint(lm.LeftAnkle)
	ra := p.Keypoint(lm.RightAnkle)
	laOK := la.Confident(minConf)
	raOK := ra.Confident(minConf)

	switch {
	case laOK && raOK:
		return Point{X: (la.X + ra.X) / 2, Y: (la.Y + ra.Y) / 2}
	case laOK:
		return Point{X: (la.X + hipMid.X) / 2, Y: la.Y}
	case raOK:
		return Point{X: (ra.X + hipMid.X) / 2, Y: ra.Y}
	default:
		return Point{X: hipMid.X, Y: hipMid.Y + torsoHeight}
	}
}

// signVote maps a signed quantity to a -1, 0, or +1 ballot.
func signVote(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

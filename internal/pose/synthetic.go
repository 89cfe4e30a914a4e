// This file provides synthetic pose generation for demos and tests.
package pose

import (
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"
	"time"
)

// SyntheticGenerator produces frames of one or more figures walking a
// circular path with swinging limbs. Output is a deterministic function of
// the frame counter and the seed, so replays of the same configuration are
// identical.
type SyntheticGenerator struct {
	frameIndex atomic.Uint64
	startNs    int64

	// Configuration
	Model       Model
	PersonCount int
	FrameRate   float64 // frames per second
	VideoWidth  float64 // source video pixels
	VideoHeight float64
	CenterX     float64 // path centre, video px
	CenterY     float64
	PathRadius  float64 // video px
	WalkSpeed   float64 // px per second along the path
	FigureH     float64 // figure height, video px
	StrideHz    float64 // gait cycles per second
	NoisePx     float64 // keypoint jitter amplitude

	rng *rand.Rand
}

// NewSyntheticGenerator creates a generator with walking-figure defaults
// for a 1280x720 source video.
func NewSyntheticGenerator(model Model) *SyntheticGenerator {
	return &SyntheticGenerator{
		startNs:     time.Now().UnixNano(),
		Model:       model,
		PersonCount: 1,
		FrameRate:   30.0,
		VideoWidth:  1280,
		VideoHeight: 720,
		CenterX:     640,
		CenterY:     430,
		PathRadius:  240,
		WalkSpeed:   90,
		FigureH:     260,
		StrideHz:    1.6,
		NoisePx:     1.5,
		rng:         rand.New(rand.NewSource(1)),
	}
}

// Seed reseeds the jitter source. Call before the first frame for
// reproducible output.
func (g *SyntheticGenerator) Seed(seed int64) {
	g.rng = rand.New(rand.NewSource(seed))
}

// Next generates the next frame. It implements Source and never returns
// io.EOF.
func (g *SyntheticGenerator) Next() (*Frame, error) {
	idx := g.frameIndex.Add(1) - 1
	elapsed := float64(idx) / g.FrameRate

	frame := &Frame{
		Index:          int(idx),
		TimestampNanos: g.startNs + int64(elapsed*1e9),
		Model:          g.Model,
		VideoWidth:     g.VideoWidth,
		VideoHeight:    g.VideoHeight,
		Poses:          make([]Pose, 0, g.PersonCount),
	}

	for p := 0; p < g.PersonCount; p++ {
		phase := float64(p) * 2 * math.Pi / float64(g.PersonCount)
		frame.Poses = append(frame.Poses, g.figure(elapsed, phase, p))
	}

	return frame, nil
}

// figure builds one walker's pose at the given elapsed time and path phase.
func (g *SyntheticGenerator) figure(elapsed, pathPhase float64, person int) Pose {
	theta := pathPhase + elapsed*g.WalkSpeed/g.PathRadius

	// Ground position on a flattened ellipse to suggest camera perspective.
	x := g.CenterX + g.PathRadius*math.Cos(theta)
	groundY := g.CenterY + g.PathRadius*math.Sin(theta)*0.35

	// Walking direction tangent; yaw 0 means facing the camera.
	dirX := -math.Sin(theta)
	dirY := math.Cos(theta) * 0.35
	yaw := math.Atan2(dirX, dirY)
	cosYaw := math.Cos(yaw)

	h := g.FigureH
	hipY := groundY - 0.50*h
	shoulderY := groundY - 0.78*h
	noseY := groundY - 0.92*h
	kneeY := groundY - 0.26*h
	elbowY := shoulderY + 0.18*h
	wristY := shoulderY + 0.34*h

	// Apparent half-widths shrink as the walker turns sideways; the sign
	// flips left and right when walking away from the camera.
	halfShoulder := 0.13 * h * cosYaw
	halfHip := 0.10 * h * cosYaw

	stride := math.Sin(2 * math.Pi * g.StrideHz * elapsed)
	legReach := 0.12 * h
	armSwing := 0.08 * h

	lm := LandmarksFor(g.Model)
	kps := make([]Keypoint, g.Model.KeypointCount())

	set := func(i int, px, py, conf float64) {
		if i < 0 || i >= len(kps) {
			return
		}
		kps[i] = Keypoint{
			X:          px + g.rng.NormFloat64()*g.NoisePx,
			Y:          py + g.rng.NormFloat64()*g.NoisePx,
			Confidence: conf,
			Name:       g.Model.KeypointName(i),
		}
	}

	core := 0.88 + g.rng.Float64()*0.1
	limb := 0.72 + g.rng.Float64()*0.2

	set(lm.Nose, x+0.02*h*math.Sin(yaw), noseY, core)
	set(lm.LeftShoulder, x+halfShoulder, shoulderY, core)
	set(lm.RightShoulder, x-halfShoulder, shoulderY, core)
	set(lm.LeftHip, x+halfHip, hipY, core)
	set(lm.RightHip, x-halfHip, hipY, core)

	set(lm.LeftElbow, x+halfShoulder+stride*armSwing*0.5, elbowY, limb)
	set(lm.RightElbow, x-halfShoulder-stride*armSwing*0.5, elbowY, limb)
	set(lm.LeftWrist, x+halfShoulder+stride*armSwing, wristY, limb)
	set(lm.RightWrist, x-halfShoulder-stride*armSwing, wristY, limb)

	set(lm.LeftKnee, x+halfHip+stride*legReach*0.5, kneeY, limb)
	set(lm.RightKnee, x-halfHip-stride*legReach*0.5, kneeY, limb)
	set(lm.LeftAnkle, x+halfHip+stride*legReach, groundY, limb)
	set(lm.RightAnkle, x-halfHip-stride*legReach, groundY, limb)

	if g.Model == ModelExtended {
		g.fillExtendedDetail(kps, x, noseY, groundY, h, halfShoulder, cosYaw)
	} else {
		g.fillFace(kps, x, noseY, h, cosYaw)
	}

	// The extended model reports in its virtual input frame, not video px.
	if g.Model == ModelExtended && g.VideoWidth > 0 && g.VideoHeight > 0 {
		sx := VirtualFrameWidth / g.VideoWidth
		sy := VirtualFrameHeight / g.VideoHeight
		for i := range kps {
			kps[i].X *= sx
			kps[i].Y *= sy
		}
	}

	pose := Pose{
		Keypoints: kps,
		TrackID:   fmt.Sprintf("syn-%03d", person+1),
	}
	pose.Box = boundingBox(kps)
	return pose
}

// fillFace populates the COCO eye and ear keypoints around the nose.
func (g *SyntheticGenerator) fillFace(kps []Keypoint, x, noseY, h, cosYaw float64) {
	eyeOff := 0.035 * h * cosYaw
	earOff := 0.07 * h * cosYaw
	conf := 0.8 + g.rng.Float64()*0.15
	set := func(i int, px, py float64) {
		kps[i] = Keypoint{
			X:          px + g.rng.NormFloat64()*g.NoisePx,
			Y:          py + g.rng.NormFloat64()*g.NoisePx,
			Confidence: conf,
			Name:       g.Model.KeypointName(i),
		}
	}
	set(1, x+eyeOff, noseY-0.02*h)
	set(2, x-eyeOff, noseY-0.02*h)
	set(3, x+earOff, noseY)
	set(4, x-earOff, noseY)
}

// fillExtendedDetail populates the extended layout's face, hand, and foot
// keypoints near their parent landmarks with lower confidence.
func (g *SyntheticGenerator) fillExtendedDetail(kps []Keypoint, x, noseY, groundY, h, halfShoulder, cosYaw float64) {
	lm := extendedLandmarks
	near := func(i, parent int, dx, dy float64) {
		if parent < 0 || parent >= len(kps) {
			return
		}
		p := kps[parent]
		kps[i] = Keypoint{
			X:          p.X + dx + g.rng.NormFloat64()*g.NoisePx,
			Y:          p.Y + dy + g.rng.NormFloat64()*g.NoisePx,
			Confidence: 0.58 + g.rng.Float64()*0.2,
			Name:       g.Model.KeypointName(i),
		}
	}

	eyeOff := 0.035 * h * cosYaw
	// Face ring: inner/outer eyes, ears, mouth corners.
	for i, dx := range map[int]float64{1: eyeOff * 0.7, 2: eyeOff, 3: eyeOff * 1.3, 4: -eyeOff * 0.7, 5: -eyeOff, 6: -eyeOff * 1.3} {
		near(i, lm.Nose, dx, -0.02*h)
	}
	near(7, lm.Nose, 0.07*h*cosYaw, 0)
	near(8, lm.Nose, -0.07*h*cosYaw, 0)
	near(9, lm.Nose, 0.02*h*cosYaw, 0.03*h)
	near(10, lm.Nose, -0.02*h*cosYaw, 0.03*h)

	// Hands hang just below the wrists.
	for _, side := range []struct{ wrist, pinky, index, thumb int }{
		{lm.LeftWrist, 17, 19, 21},
		{lm.RightWrist, 18, 20, 22},
	} {
		near(side.pinky, side.wrist, 0, 0.035*h)
		near(side.index, side.wrist, 0, 0.04*h)
		near(side.thumb, side.wrist, 0, 0.025*h)
	}

	// Heels and toes around the ankles.
	near(29, lm.LeftAnkle, -0.02*h, 0.01*h)
	near(30, lm.RightAnkle, 0.02*h, 0.01*h)
	near(31, lm.LeftAnkle, 0.05*h, 0.015*h)
	near(32, lm.RightAnkle, -0.05*h, 0.015*h)
}

// boundingBox computes a box around the confident keypoints with a small
// margin, or nil when no keypoint is usable.
func boundingBox(kps []Keypoint) *Box {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	found := false
	for _, k := range kps {
		if k.Confidence <= 0 {
			continue
		}
		found = true
		minX = math.Min(minX, k.X)
		minY = math.Min(minY, k.Y)
		maxX = math.Max(maxX, k.X)
		maxY = math.Max(maxY, k.Y)
	}
	if !found {
		return nil
	}
	const margin = 8.0
	return &Box{
		X: minX - margin,
		Y: minY - margin,
		W: maxX - minX + 2*margin,
		H: maxY - minY + 2*margin,
	}
}

package overlay

import "github.com/felo/sportai-web-sub011/internal/pose"

// DefaultHistoryFrames bounds a joint's history when the caller passes no
// window of its own.
const DefaultHistoryFrames = 30

// JointHistory keeps the bounded per-joint observation window that feeds
// trajectory smoothing. Positions stay in detection space; RenderFrame maps
// them when it draws. One instance tracks one person for one session and is
// not safe for concurrent use, matching the engine's one-frame-at-a-time
// model.
type JointHistory struct {
	window int
	joints map[int][]TrajectoryPoint
}

// NewJointHistory creates a history holding up to window observations per
// joint. A non-positive window falls back to DefaultHistoryFrames.
func NewJointHistory(window int) *JointHistory {
	if window <= 0 {
		window = DefaultHistoryFrames
	}
	return &JointHistory{
		window: window,
		joints: make(map[int][]TrajectoryPoint),
	}
}

// Observe appends one joint position for the given frame, evicting the
// oldest observation once the window is full.
func (h *JointHistory) Observe(joint int, x, y float64, frame int) {
	pts := append(h.joints[joint], TrajectoryPoint{X: x, Y: y, Frame: frame})
	if len(pts) > h.window {
		pts = pts[len(pts)-h.window:]
	}
	h.joints[joint] = pts
}

// ObservePose records every requested joint of p that clears minConf.
// Low-confidence joints are skipped for the frame; their histories keep
// their previous points so a momentary dropout does not sever the trail.
func (h *JointHistory) ObservePose(p pose.Pose, joints []int, minConf float64, frame int) {
	for _, j := range joints {
		kp := p.Keypoint(j)
		if !kp.Confident(minConf) {
			continue
		}
		h.Observe(j, kp.X, kp.Y, frame)
	}
}

// Trajectories exposes the live history map in the shape FrameInput wants.
// The map and its slices are reused across frames; render from it before
// the next Observe call.
func (h *JointHistory) Trajectories() map[int][]TrajectoryPoint {
	return h.joints
}

// Len reports how many observations joint currently holds.
func (h *JointHistory) Len(joint int) int {
	return len(h.joints[joint])
}

// Reset discards all histories. Call on every session or video change so
// trails never bridge two sources.
func (h *JointHistory) Reset() {
	h.joints = make(map[int][]TrajectoryPoint)
}

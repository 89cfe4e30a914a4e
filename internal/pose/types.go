package pose

// Keypoint is one detected anatomical landmark in detection space.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
	Name       string  `json:"name,omitempty"`
}

// Confident reports whether the keypoint meets the given confidence
// threshold.
func (k Keypoint) Confident(min float64) bool {
	return k.Confidence >= min
}

// Keypoint3 is an optional world-space landmark with depth, supplied by
// detectors that estimate 3D positions alongside the 2D ones.
type Keypoint3 struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Confidence float64 `json:"confidence"`
}

// Box is an axis-aligned bounding box in detection space.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Pose is one person's keypoint set for a single frame. Detectors produce
// poses fresh every frame; the overlay engine never retains them across
// frames.
type Pose struct {
	Keypoints []Keypoint  `json:"keypoints"`
	Box       *Box        `json:"box,omitempty"`
	TrackID   string      `json:"track_id,omitempty"`
	World     []Keypoint3 `json:"world,omitempty"`
}

// Keypoint returns the keypoint at index i, or a zero-confidence keypoint
// when i is out of range. Out-of-range access is a graceful omission, not
// an error.
func (p Pose) Keypoint(i int) Keypoint {
	if i < 0 || i >= len(p.Keypoints) {
		return Keypoint{}
	}
	return p.Keypoints[i]
}

// Frame is the complete detector output for one displayed video frame. It
// may carry zero poses; consumers render nothing rather than failing.
type Frame struct {
	Index          int     `json:"frame"`
	TimestampNanos int64   `json:"timestamp_ns"`
	Model          Model   `json:"model"`
	VideoWidth     float64 `json:"video_width,omitempty"`
	VideoHeight    float64 `json:"video_height,omitempty"`
	Poses          []Pose  `json:"poses"`
}

// Source yields successive frames of detector output. Next returns io.EOF
// once the source is exhausted; live sources never return io.EOF.
type Source interface {
	Next() (*Frame, error)
}

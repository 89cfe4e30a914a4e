package pose

// Model identifies the keypoint layout produced by a detection backend.
// The layout fixes both the number of keypoints and their index order.
type Model string

const (
	// ModelCOCO is the 17-keypoint COCO layout emitted by most 2D detectors.
	// Its coordinates are expressed in source video pixels.
	ModelCOCO Model = "coco17"

	// ModelExtended is the 33-keypoint layout with face, hand, and foot
	// landmarks. Its coordinates live in a fixed virtual input frame rather
	// than video pixels; see VirtualFrameWidth and VirtualFrameHeight.
	ModelExtended Model = "extended33"
)

// The extended model runs its detector on a fixed-size input frame, so its
// keypoints are decoupled from the real video resolution. All scaling must
// go through these two constants; never restate the dimensions at a call
// site.
const (
	VirtualFrameWidth  = 640.0
	VirtualFrameHeight = 360.0
)

// Valid reports whether m names a known keypoint layout.
func (m Model) Valid() bool {
	return m == ModelCOCO || m == ModelExtended
}

// KeypointCount returns the number of keypoints in layout m.
func (m Model) KeypointCount() int {
	if m == ModelExtended {
		return len(extended33Names)
	}
	return len(coco17Names)
}

// KeypointName returns the canonical name of keypoint index i under layout
// m, or "" when i is out of range.
func (m Model) KeypointName(i int) string {
	names := coco17Names[:]
	if m == ModelExtended {
		names = extended33Names[:]
	}
	if i < 0 || i >= len(names) {
		return ""
	}
	return names[i]
}

var coco17Names = [17]string{
	"nose", "left_eye", "right_eye", "left_ear", "right_ear",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_hip", "right_hip",
	"left_knee", "right_knee", "left_ankle", "right_ankle",
}

var extended33Names = [33]string{
	"nose", "left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer",
	"left_ear", "right_ear", "mouth_left", "mouth_right",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_pinky", "right_pinky",
	"left_index", "right_index", "left_thumb", "right_thumb",
	"left_hip", "right_hip", "left_knee", "right_knee",
	"left_ankle", "right_ankle", "left_heel", "right_heel",
	"left_foot_index", "right_foot_index",
}

// Landmarks holds the per-model indices of the anatomical keypoints the
// overlay engine reasons about directly.
type Landmarks struct {
	Nose          int
	LeftShoulder  int
	RightShoulder int
	LeftElbow     int
	RightElbow    int
	LeftWrist     int
	RightWrist    int
	LeftHip       int
	RightHip      int
	LeftKnee      int
	RightKnee     int
	LeftAnkle     int
	RightAnkle    int
}

var cocoLandmarks = Landmarks{
	Nose:          0,
	LeftShoulder:  5,
	RightShoulder: 6,
	LeftElbow:     7,
	RightElbow:    8,
	LeftWrist:     9,
	RightWrist:    10,
	LeftHip:       11,
	RightHip:      12,
	LeftKnee:      13,
	RightKnee:     14,
	LeftAnkle:     15,
	RightAnkle:    16,
}

var extendedLandmarks = Landmarks{
	Nose:          0,
	LeftShoulder:  11,
	RightShoulder: 12,
	LeftElbow:     13,
	RightElbow:    14,
	LeftWrist:     15,
	RightWrist:    16,
	LeftHip:       23,
	RightHip:      24,
	LeftKnee:      25,
	RightKnee:     26,
	LeftAnkle:     27,
	RightAnkle:    28,
}

// LandmarksFor returns the landmark index table for layout m.
func LandmarksFor(m Model) Landmarks {
	if m == ModelExtended {
		return extendedLandmarks
	}
	return cocoLandmarks
}

// cocoSkeleton pairs keypoint indices to connect when drawing the COCO
// layout: legs, pelvis, torso, arms, then the face fan.
var cocoSkeleton = [][2]int{
	{15, 13}, {13, 11}, {16, 14}, {14, 12}, {11, 12},
	{5, 11}, {6, 12}, {5, 6},
	{5, 7}, {6, 8}, {7, 9}, {8, 10},
	{1, 2}, {0, 1}, {0, 2}, {1, 3}, {2, 4}, {3, 5}, {4, 6},
}

// extendedSkeleton pairs keypoint indices for the 33-point layout,
// including hand and foot landmarks.
var extendedSkeleton = [][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 7}, {0, 4}, {4, 5}, {5, 6}, {6, 8}, {9, 10},
	{11, 12}, {11, 13}, {13, 15}, {15, 17}, {15, 19}, {15, 21}, {17, 19},
	{12, 14}, {14, 16}, {16, 18}, {16, 20}, {16, 22}, {18, 20},
	{11, 23}, {12, 24}, {23, 24}, {23, 25}, {24, 26}, {25, 27}, {26, 28},
	{27, 29}, {28, 30}, {29, 31}, {30, 32}, {27, 31}, {28, 32},
}

// SkeletonEdges returns the index pairs to connect when drawing layout m.
// Callers must not mutate the returned slice.
func SkeletonEdges(m Model) [][2]int {
	if m == ModelExtended {
		return extendedSkeleton
	}
	return cocoSkeleton
}

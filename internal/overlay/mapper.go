package overlay

import (
	"github.com/felo/sportai-web-sub011/internal/pose"
)

// Mapper converts detection-space coordinates into drawing-surface pixels.
//
// The extended keypoint model reports positions in a fixed virtual input
// frame regardless of the actual video resolution; other models report in
// the video's intrinsic pixels. Either way the detection frame is fitted
// into the surface preserving aspect ratio, so overlays land on the visible
// video pixels rather than stretching across letterbox bars.
type Mapper struct {
	surfaceW float64
	surfaceH float64
	frameW   float64
	frameH   float64
	scale    float64
	offsetX  float64
	offsetY  float64
	identity bool
}

// NewMapper builds a mapper for one frame's dimensions. A zero video size
// (dimensions not yet known) or zero surface size yields an identity
// mapping rather than a division by zero.
func NewMapper(surfaceW, surfaceH, videoW, videoH float64, model pose.Model) *Mapper {
	frameW, frameH := detectionFrame(videoW, videoH, model)

	m := &Mapper{
		surfaceW: surfaceW,
		surfaceH: surfaceH,
		frameW:   frameW,
		frameH:   frameH,
	}
	if frameW <= 0 || frameH <= 0 || surfaceW <= 0 || surfaceH <= 0 {
		m.identity = true
		m.scale = 1
		return m
	}

	sx := surfaceW / frameW
	sy := surfaceH / frameH
	m.scale = sx
	if sy < sx {
		m.scale = sy
	}
	m.offsetX = (surfaceW - frameW*m.scale) / 2
	m.offsetY = (surfaceH - frameH*m.scale) / 2
	return m
}

// detectionFrame returns the coordinate frame detections arrive in.
func detectionFrame(videoW, videoH float64, model pose.Model) (w, h float64) {
	if model == pose.ModelExtended {
		return pose.VirtualFrameWidth, pose.VirtualFrameHeight
	}
	return videoW, videoH
}

// Map converts one detection-space position to surface pixels.
func (m *Mapper) Map(x, y float64) (float64, float64) {
	if m.identity {
		return x, y
	}
	return x*m.scale + m.offsetX, y*m.scale + m.offsetY
}

// MapPoint converts a detection-space point to a surface point.
func (m *Mapper) MapPoint(x, y float64) Point {
	sx, sy := m.Map(x, y)
	return Point{X: sx, Y: sy}
}

// MapRect converts a detection-space rectangle to surface pixels.
func (m *Mapper) MapRect(r Rect) Rect {
	x, y := m.Map(r.X, r.Y)
	return Rect{X: x, Y: y, W: r.W * m.scale, H: r.H * m.scale}
}

// Scale returns the detection-to-surface scale factor.
func (m *Mapper) Scale() float64 {
	return m.scale
}

// Identity reports whether the mapper is a no-op passthrough.
func (m *Mapper) Identity() bool {
	return m.identity
}

// Viewport returns the sub-region of the surface the detection frame maps
// onto. With matching aspect ratios this is the whole surface; otherwise it
// excludes the letterbox or pillarbox bars.
func (m *Mapper) Viewport() Rect {
	if m.identity {
		return Rect{X: 0, Y: 0, W: m.surfaceW, H: m.surfaceH}
	}
	return Rect{
		X: m.offsetX,
		Y: m.offsetY,
		W: m.frameW * m.scale,
		H: m.frameH * m.scale,
	}
}

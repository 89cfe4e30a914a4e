// Package videoio annotates video files with rendered overlays. It exposes
// decoded OpenCV frames (via gocv) behind the overlay Surface interface so
// the engine's draw calls land directly on video pixels, and drives the
// batch capture/render/write loop.
package videoio

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/felo/sportai-web-sub011/internal/overlay"
)

// MatSurface implements overlay.Surface on a decoded video frame. Clear is
// a no-op: the freshly read frame itself is the background, so clearing
// would erase the video.
type MatSurface struct {
	mat *gocv.Mat
}

// NewMatSurface wraps an existing Mat. The caller keeps ownership and
// reuses the Mat across frames; the surface never closes it.
func NewMatSurface(mat *gocv.Mat) *MatSurface {
	return &MatSurface{mat: mat}
}

// Clear does nothing. The video frame is the background.
func (s *MatSurface) Clear() {}

// Size returns the frame dimensions in pixels.
func (s *MatSurface) Size() (float64, float64) {
	return float64(s.mat.Cols()), float64(s.mat.Rows())
}

// Line draws a stroked segment.
func (s *MatSurface) Line(x1, y1, x2, y2 float64, c color.RGBA, width float64) {
	gocv.Line(s.mat, pt(x1, y1), pt(x2, y2), c, stroke(width))
}

// Polyline draws connected segments between successive points.
func (s *MatSurface) Polyline(pts []overlay.Point, c color.RGBA, width float64) {
	for i := 1; i < len(pts); i++ {
		gocv.Line(s.mat, pt(pts[i-1].X, pts[i-1].Y), pt(pts[i].X, pts[i].Y), c, stroke(width))
	}
}

// Circle draws a circle outline, or a filled disc when fill is set.
func (s *MatSurface) Circle(cx, cy, r float64, c color.RGBA, width float64, fill bool) {
	thickness := stroke(width)
	if fill {
		// OpenCV treats negative thickness as filled.
		thickness = -1
	}
	gocv.Circle(s.mat, pt(cx, cy), int(math.Round(r)), c, thickness)
}

// Rect draws a rectangle outline.
func (s *MatSurface) Rect(r overlay.Rect, c color.RGBA, width float64) {
	gocv.Rectangle(s.mat, image.Rect(round(r.X), round(r.Y), round(r.X+r.W), round(r.Y+r.H)), c, stroke(width))
}

// Arc draws a circular arc between startDeg and endDeg.
func (s *MatSurface) Arc(cx, cy, r, startDeg, endDeg float64, c color.RGBA, width float64) {
	radius := int(math.Round(r))
	gocv.Ellipse(s.mat, pt(cx, cy), image.Pt(radius, radius), 0, startDeg, endDeg, c, stroke(width))
}

// Text draws a label with the Hershey simplex face. sizePx approximates
// the cap height in pixels.
func (s *MatSurface) Text(str string, x, y float64, c color.RGBA, sizePx float64) {
	// Hershey simplex at scale 1.0 renders roughly 22px glyphs.
	scale := sizePx / 22.0
	if scale <= 0 {
		scale = 0.5
	}
	gocv.PutText(s.mat, str, pt(x, y), gocv.FontHersheySimplex, scale, c, 1)
}

func pt(x, y float64) image.Point {
	return image.Pt(round(x), round(y))
}

func round(v float64) int {
	return int(math.Round(v))
}

func stroke(width float64) int {
	t := int(math.Round(width))
	if t < 1 {
		t = 1
	}
	return t
}

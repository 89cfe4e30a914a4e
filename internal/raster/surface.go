// Package raster draws overlay primitives onto an in-memory RGBA image.
// It backs PNG frame export and headless rendering where no video frame
// buffer is available.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/felo/sportai-web-sub011/internal/overlay"
)

// ImageSurface implements overlay.Surface on an RGBA raster.
type ImageSurface struct {
	img        *image.RGBA
	Background color.RGBA
}

// NewImageSurface allocates a surface of the given pixel size, cleared to
// an opaque near-black background.
func NewImageSurface(w, h int) *ImageSurface {
	s := &ImageSurface{
		img:        image.NewRGBA(image.Rect(0, 0, w, h)),
		Background: color.RGBA{R: 16, G: 16, B: 20, A: 255},
	}
	s.Clear()
	return s
}

// Image exposes the backing raster.
func (s *ImageSurface) Image() *image.RGBA {
	return s.img
}

// Clear fills the surface with the background color.
func (s *ImageSurface) Clear() {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(s.Background), image.Point{}, draw.Src)
}

// Size returns the surface dimensions in pixels.
func (s *ImageSurface) Size() (float64, float64) {
	b := s.img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

// Line draws a stroked segment by stamping discs along it.
func (s *ImageSurface) Line(x1, y1, x2, y2 float64, c color.RGBA, width float64) {
	dx := x2 - x1
	dy := y2 - y1
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps < 1 {
		steps = 1
	}
	r := width / 2
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		s.stamp(x1+dx*t, y1+dy*t, r, c)
	}
}

// Polyline draws consecutive segments through the points.
func (s *ImageSurface) Polyline(pts []overlay.Point, c color.RGBA, width float64) {
	for i := 1; i < len(pts); i++ {
		s.Line(pts[i-1].X, pts[i-1].Y, pts[i].X, pts[i].Y, c, width)
	}
}

// Circle draws a circle outline, or a filled disc when fill is set.
func (s *ImageSurface) Circle(cx, cy, r float64, c color.RGBA, width float64, fill bool) {
	if fill {
		s.stamp(cx, cy, r, c)
		return
	}
	steps := perimeterSteps(r, 360)
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		s.stamp(cx+math.Cos(a)*r, cy+math.Sin(a)*r, width/2, c)
	}
}

// Rect draws a rectangle outline.
func (s *ImageSurface) Rect(r overlay.Rect, c color.RGBA, width float64) {
	s.Line(r.X, r.Y, r.X+r.W, r.Y, c, width)
	s.Line(r.X+r.W, r.Y, r.X+r.W, r.Y+r.H, c, width)
	s.Line(r.X+r.W, r.Y+r.H, r.X, r.Y+r.H, c, width)
	s.Line(r.X, r.Y+r.H, r.X, r.Y, c, width)
}

// Arc draws a circular arc between the given angles, in degrees, measured
// clockwise from the positive x axis in screen coordinates.
func (s *ImageSurface) Arc(cx, cy, r, startDeg, endDeg float64, c color.RGBA, width float64) {
	sweep := endDeg - startDeg
	steps := perimeterSteps(r, math.Abs(sweep))
	for i := 0; i <= steps; i++ {
		a := (startDeg + sweep*float64(i)/float64(steps)) * math.Pi / 180
		s.stamp(cx+math.Cos(a)*r, cy+math.Sin(a)*r, width/2, c)
	}
}

// Text draws a string with its baseline at (x, y). The bitmap face has a
// fixed size, so sizePx only matters to vector-backed surfaces.
func (s *ImageSurface) Text(str string, x, y float64, c color.RGBA, sizePx float64) {
	d := font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot: fixed.Point26_6{
			X: fixed.I(int(math.Round(x))),
			Y: fixed.I(int(math.Round(y))),
		},
	}
	d.DrawString(str)
}

// EncodePNG writes the surface as a PNG stream.
func (s *ImageSurface) EncodePNG(w io.Writer) error {
	return png.Encode(w, s.img)
}

// stamp fills a disc of the given radius. Radius below one pixel sets a
// single pixel.
func (s *ImageSurface) stamp(cx, cy, r float64, c color.RGBA) {
	if r <= 0.5 {
		s.set(int(math.Round(cx)), int(math.Round(cy)), c)
		return
	}
	x0 := int(math.Floor(cx - r))
	x1 := int(math.Ceil(cx + r))
	y0 := int(math.Floor(cy - r))
	y1 := int(math.Ceil(cy + r))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			if dx*dx+dy*dy <= r*r {
				s.set(x, y, c)
			}
		}
	}
}

func (s *ImageSurface) set(x, y int, c color.RGBA) {
	if !(image.Point{X: x, Y: y}).In(s.img.Bounds()) {
		return
	}
	s.img.SetRGBA(x, y, c)
}

// perimeterSteps picks a sample count for a circular span so adjacent
// stamps stay within a pixel of each other.
func perimeterSteps(r, sweepDeg float64) int {
	arc := math.Abs(sweepDeg) * math.Pi / 180 * math.Max(r, 1)
	steps := int(math.Ceil(arc))
	if steps < 12 {
		steps = 12
	}
	return steps
}

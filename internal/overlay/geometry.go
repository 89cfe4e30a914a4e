package overlay

// Point is a position on the drawing surface, in surface pixels.
type Point struct {
	X float64
	Y float64
}

// Rect is an axis-aligned rectangle on the drawing surface.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Intersects reports whether two rectangles overlap with positive area.
// Rectangles that merely share an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W &&
		r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Center returns the rectangle's midpoint.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

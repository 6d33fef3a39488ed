// Package geom holds the normalized image-space geometry shared by the
// viewer surface and the annotation layer.
package geom

import "math"

// Point is a location or a delta. Depending on context it is measured in
// pixels or in normalized image space.
type Point struct {
	X float64
	Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p with both coordinates multiplied by k.
func (p Point) Scale(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

// Len returns the euclidean length of p.
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
// Width and Height are not required to be positive: resizing a corner past
// its opposite edge produces an inverted rectangle and that is kept as is.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewRect builds a Rect from its top-left corner and size.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// RectFromArray builds a Rect from the [x, y, w, h] wire layout.
func RectFromArray(a [4]float64) Rect {
	return Rect{X: a[0], Y: a[1], Width: a[2], Height: a[3]}
}

// Array returns the [x, y, w, h] wire layout.
func (r Rect) Array() [4]float64 {
	return [4]float64{r.X, r.Y, r.Width, r.Height}
}

// TopLeft returns the anchor corner.
func (r Rect) TopLeft() Point {
	return Point{X: r.X, Y: r.Y}
}

// BottomRight returns the corner opposite the anchor.
func (r Rect) BottomRight() Point {
	return Point{X: r.X + r.Width, Y: r.Y + r.Height}
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Translate moves r by d without changing its size.
func (r Rect) Translate(d Point) Rect {
	r.X += d.X
	r.Y += d.Y
	return r
}

// Canon returns a copy of r with non-negative width and height covering
// the same area. Only hit testing and painting use it; stored locations
// are never canonicalized.
func (r Rect) Canon() Rect {
	if r.Width < 0 {
		r.X += r.Width
		r.Width = -r.Width
	}
	if r.Height < 0 {
		r.Y += r.Height
		r.Height = -r.Height
	}
	return r
}

// Degenerate reports whether r has a zero or negative extent.
func (r Rect) Degenerate() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	c := r.Canon()
	return p.X >= c.X && p.X <= c.X+c.Width &&
		p.Y >= c.Y && p.Y <= c.Y+c.Height
}

// Corner identifies one of the four resize handles of a rectangle.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomRight
	BottomLeft
)

// Corners lists every corner in clockwise order starting at the top-left.
var Corners = []Corner{TopLeft, TopRight, BottomRight, BottomLeft}

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomRight:
		return "bottom-right"
	case BottomLeft:
		return "bottom-left"
	}
	return "unknown"
}

// Point returns the position of corner c on r.
func (c Corner) Point(r Rect) Point {
	switch c {
	case TopRight:
		return Point{X: r.X + r.Width, Y: r.Y}
	case BottomRight:
		return Point{X: r.X + r.Width, Y: r.Y + r.Height}
	case BottomLeft:
		return Point{X: r.X, Y: r.Y + r.Height}
	}
	return Point{X: r.X, Y: r.Y}
}

// Opposite returns the diagonally opposite corner.
func (c Corner) Opposite() Corner {
	return (c + 2) % 4
}

// Resize moves corner c of r by d and keeps the opposite corner fixed.
func (r Rect) Resize(c Corner, d Point) Rect {
	next := r
	switch c {
	case TopLeft:
		next.X = r.X + d.X
		next.Y = r.Y + d.Y
		next.Width = r.Width - d.X
		next.Height = r.Height - d.Y
	case TopRight:
		next.Y = r.Y + d.Y
		next.Width = r.Width + d.X
		next.Height = r.Height - d.Y
	case BottomRight:
		next.Width = r.Width + d.X
		next.Height = r.Height + d.Y
	case BottomLeft:
		next.X = r.X + d.X
		next.Width = r.Width - d.X
		next.Height = r.Height + d.Y
	}
	return next
}

package diagram

import "fmt"

// Point is a position in screen pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p minus q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Rect is an axis-aligned rectangle, as reported by getBoundingClientRect.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size returns the width and height as a Point.
func (r Rect) Size() Point {
	return Point{X: r.Width, Y: r.Height}
}

// Center returns the center of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Equal reports whether r and o describe the same rectangle.
func (r Rect) Equal(o Rect) bool {
	return r == o
}

func (r Rect) String() string {
	return fmt.Sprintf("Rect{x: %g, y: %g, w: %g, h: %g}", r.X, r.Y, r.Width, r.Height)
}

// Package geometry holds the coordinate math used to hit-test nodes and links
// on the editing canvas. Every function is pure.
package geometry

import "math"

const (
	// NodeRadius is the visual radius of a node; pointer hits inside it select the node.
	NodeRadius = 24.0
	// LinkTolerance is how far (in canvas units) a pointer may be from a link and still hit it.
	LinkTolerance = 10.0
)

// Point is a position in canvas coordinate space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Distance returns the Euclidean distance between (x1,y1) and (x2,y2).
func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x1-x2, y1-y2)
}

// Within reports whether p lies strictly inside the circle of the given radius around c.
func Within(c, p Point, radius float64) bool {
	return Distance(c.X, c.Y, p.X, p.Y) < radius
}

// HitTest returns the index of the first item whose center is strictly within
// radius of p, or -1 when nothing is hit. center maps an item to its position.
func HitTest[T any](items []T, center func(T) Point, p Point, radius float64) int {
	for i, it := range items {
		if Within(center(it), p, radius) {
			return i
		}
	}
	return -1
}

// PointToSegmentDistance projects p onto the segment a-b, clamps the projection
// to the segment, and returns the distance from p to that closest point.
// A degenerate segment (a == b) measures the distance to a.
func PointToSegmentDistance(p, a, b Point) float64 {
	ab := b.Sub(a)
	ap := p.Sub(a)
	ab2 := ab.X*ab.X + ab.Y*ab.Y
	t := 0.0
	if ab2 != 0 {
		t = (ap.X*ab.X + ap.Y*ab.Y) / ab2
	}
	t = math.Max(0, math.Min(1, t))
	closest := Point{X: a.X + ab.X*t, Y: a.Y + ab.Y*t}
	return Distance(p.X, p.Y, closest.X, closest.Y)
}

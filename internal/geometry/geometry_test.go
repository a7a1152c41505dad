package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, Distance(0, 0, 3, 4), 1e-9)
	assert.InDelta(t, 0.0, Distance(7, 7, 7, 7), 1e-9)
	assert.InDelta(t, Distance(1, 2, 4, 6), Distance(4, 6, 1, 2), 1e-9)
}

func TestHitTest_ReturnsFirstMatch(t *testing.T) {
	pts := []Point{{X: 100, Y: 100}, {X: 105, Y: 100}, {X: 300, Y: 300}}
	id := func(p Point) Point { return p }

	assert.Equal(t, 0, HitTest(pts, id, Point{X: 102, Y: 100}, NodeRadius))
	assert.Equal(t, 2, HitTest(pts, id, Point{X: 310, Y: 290}, NodeRadius))
	assert.Equal(t, -1, HitTest(pts, id, Point{X: 500, Y: 500}, NodeRadius))
}

func TestHitTest_BoundaryIsExclusive(t *testing.T) {
	pts := []Point{{X: 0, Y: 0}}
	id := func(p Point) Point { return p }

	assert.Equal(t, -1, HitTest(pts, id, Point{X: NodeRadius, Y: 0}, NodeRadius))
	assert.Equal(t, 0, HitTest(pts, id, Point{X: NodeRadius - 0.01, Y: 0}, NodeRadius))
}

func TestPointToSegmentDistance(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 10, Y: 0}

	tests := []struct {
		name string
		p    Point
		want float64
	}{
		{"above middle", Point{X: 5, Y: 3}, 3},
		{"on segment", Point{X: 7, Y: 0}, 0},
		{"before start clamps to a", Point{X: -3, Y: 4}, 5},
		{"past end clamps to b", Point{X: 13, Y: 4}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PointToSegmentDistance(tt.p, a, b), 1e-9)
		})
	}
}

func TestPointToSegmentDistance_DegenerateSegment(t *testing.T) {
	a := Point{X: 2, Y: 2}
	assert.InDelta(t, 5.0, PointToSegmentDistance(Point{X: 5, Y: 6}, a, a), 1e-9)
}

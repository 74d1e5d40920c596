package detection

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Bounds represents an inclusive bounding box in pixel coordinates.
//
// Unlike image.Rectangle, X2 and Y2 are the last covered column and row, so
// a single pixel at (5,5) has Bounds{5,5,5,5} and a width of 1.
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge (inclusive)
	Y2 int `json:"y2"` // Bottom edge (inclusive)
}

// Width is the number of covered columns.
func (b Bounds) Width() int { return b.X2 - b.X1 + 1 }

// Height is the number of covered rows.
func (b Bounds) Height() int { return b.Y2 - b.Y1 + 1 }

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Curve is a closed polygon approximating the outer edge of one connected
// mask region. Vertices are pixel centres; the closing edge from the last
// vertex back to the first is implicit.
//
// Geometry is computed once by NewCurve and the value is treated as
// immutable afterwards.
type Curve struct {
	// Points are the polygon vertices in tracing order.
	Points []Point `json:"points"`

	// Area is the enclosed polygon area in square pixels (shoelace formula).
	Area float64 `json:"area"`

	// Perimeter is the closed polyline length in pixels.
	Perimeter float64 `json:"perimeter"`

	// Circularity is 4πA/P²: 1.0 for a circle, lower for elongated or
	// jagged shapes, 0 when the perimeter is zero.
	Circularity float64 `json:"circularity"`

	// Bounds is the axis-aligned bounding box of the vertices.
	Bounds Bounds `json:"bounds"`

	// m10 and m01 are first-order polygon moments, scaled by 6.
	m10, m01 float64
	// signed is twice the signed area.
	signed float64
}

// NewCurve builds a Curve from polygon vertices and computes its geometry.
func NewCurve(points []Point) Curve {
	c := Curve{Points: points}
	if len(points) == 0 {
		return c
	}

	b := Bounds{X1: points[0].X, Y1: points[0].Y, X2: points[0].X, Y2: points[0].Y}
	n := len(points)
	for i, p := range points {
		if p.X < b.X1 {
			b.X1 = p.X
		}
		if p.X > b.X2 {
			b.X2 = p.X
		}
		if p.Y < b.Y1 {
			b.Y1 = p.Y
		}
		if p.Y > b.Y2 {
			b.Y2 = p.Y
		}

		q := points[(i+1)%n]
		x0, y0 := float64(p.X), float64(p.Y)
		x1, y1 := float64(q.X), float64(q.Y)
		cross := x0*y1 - x1*y0
		c.signed += cross
		c.m10 += (x0 + x1) * cross
		c.m01 += (y0 + y1) * cross
		if n > 1 {
			c.Perimeter += math.Hypot(x1-x0, y1-y0)
		}
	}
	c.Bounds = b
	c.Area = math.Abs(c.signed) / 2
	c.Circularity = Circularity(c.Area, c.Perimeter)
	return c
}

// Circularity returns 4πA/P², or 0 when perimeter is zero.
func Circularity(area, perimeter float64) float64 {
	if perimeter == 0 {
		return 0
	}
	return 4 * math.Pi * area / (perimeter * perimeter)
}

// AspectRatio is bounding-box width divided by height.
func (c Curve) AspectRatio() float64 {
	if len(c.Points) == 0 {
		return 0
	}
	return float64(c.Bounds.Width()) / float64(c.Bounds.Height())
}

// Centroid returns the area-weighted centroid of the filled polygon
// (first-order moments divided by the zeroth-order moment).
//
// ok is false when the enclosed area is zero; such curves have no defined
// centroid and must be skipped by callers.
func (c Curve) Centroid() (r2.Vec, bool) {
	if c.signed == 0 {
		return r2.Vec{}, false
	}
	return r2.Vec{
		X: c.m10 / (3 * c.signed),
		Y: c.m01 / (3 * c.signed),
	}, true
}

// MeanBoundaryDistance returns the arc-length weighted mean distance of the
// polygon edges from center. Each edge contributes the distance of its
// midpoint, weighted by its length.
//
// ok is false for a curve with zero perimeter.
func (c Curve) MeanBoundaryDistance(center r2.Vec) (float64, bool) {
	if c.Perimeter == 0 {
		return 0, false
	}
	n := len(c.Points)
	var sum float64
	for i, p := range c.Points {
		q := c.Points[(i+1)%n]
		a := r2.Vec{X: float64(p.X), Y: float64(p.Y)}
		b := r2.Vec{X: float64(q.X), Y: float64(q.Y)}
		length := r2.Norm(r2.Sub(b, a))
		mid := r2.Scale(0.5, r2.Add(a, b))
		sum += length * r2.Norm(r2.Sub(mid, center))
	}
	return sum / c.Perimeter, true
}
